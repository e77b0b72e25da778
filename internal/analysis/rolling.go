// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/ddw-trends/pkg/types"
)

// RollingCOVIDShare returns, for each record in date order, the fraction
// of records flagged COVID related within the trailing window (t-window, t].
// Records sharing a date are taken in input order, so a row's window does
// not include later rows with the same date.
func (a *Analyzer) RollingCOVIDShare(window time.Duration) []types.TimePoint {
	if len(a.records) == 0 || window <= 0 {
		return nil
	}
	recs := make([]datedRecord, len(a.records))
	copy(recs, a.records)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].date.Before(recs[j].date) })

	flags := make(stats.Float64Data, len(recs))
	for i, r := range recs {
		flags[i] = float64(r.COVIDFlag())
	}

	out := make([]types.TimePoint, 0, len(recs))
	start := 0
	for i, r := range recs {
		lower := r.date.Add(-window)
		for !recs[start].date.After(lower) {
			start++
		}
		mean, err := stats.Mean(flags[start : i+1])
		if err != nil {
			continue
		}
		out = append(out, types.TimePoint{Time: r.date, Value: mean})
	}
	return out
}
