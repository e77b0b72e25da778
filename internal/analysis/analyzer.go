// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis computes temporal, event-impact, and geographic
// statistics over a labeled abstract dataset.
package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pdiddy/ddw-trends/pkg/types"
)

// ErrDegenerateInput reports a statistic that cannot be computed from the
// given data, such as a chi-square test over an empty partition.
var ErrDegenerateInput = errors.New("statistically degenerate input")

// Options configures an Analyzer.
type Options struct {
	// Cutoff splits records into the pre-event partition (date < Cutoff)
	// and the post-event partition (date >= Cutoff).
	Cutoff time.Time

	// SignificanceLevel is the chi-square p-value threshold.
	SignificanceLevel float64
}

// OptionsFromConfig converts the analysis configuration into Options.
func OptionsFromConfig(cfg types.AnalysisConfig) (Options, error) {
	cutoff, err := cfg.Cutoff()
	if err != nil {
		return Options{}, err
	}
	if cfg.SignificanceLevel <= 0 || cfg.SignificanceLevel >= 1 {
		return Options{}, fmt.Errorf("significance level must be in (0, 1), got %g", cfg.SignificanceLevel)
	}
	return Options{Cutoff: cutoff, SignificanceLevel: cfg.SignificanceLevel}, nil
}

type datedRecord struct {
	types.AbstractRecord
	date time.Time
}

// Analyzer holds a dataset with parsed presentation dates. Records whose
// date cannot be parsed are excluded from every statistic and counted in
// Skipped.
type Analyzer struct {
	records []datedRecord
	skipped int
	opts    Options
	logger  *slog.Logger
}

// New parses the presentation date of every record in ds.
func New(ds types.Dataset, opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{opts: opts, logger: logger, records: make([]datedRecord, 0, len(ds))}
	for i, rec := range ds {
		t, err := ParseDate(rec.PresentationDate)
		if err != nil {
			a.skipped++
			logger.Warn("skipping record", "index", i, "title", rec.Title, "error", err)
			continue
		}
		a.records = append(a.records, datedRecord{AbstractRecord: rec, date: t})
	}
	return a
}

// Len returns the number of analyzed records.
func (a *Analyzer) Len() int { return len(a.records) }

// Skipped returns the number of records excluded for an unparseable date.
func (a *Analyzer) Skipped() int { return a.skipped }

// TemporalTrends groups records by calendar year of the presentation date.
// Years appear in ascending order; years with no records are absent.
func (a *Analyzer) TemporalTrends() types.TemporalTrends {
	byYear := make(map[int]*types.YearStats)
	for _, r := range a.records {
		y := r.date.Year()
		st, ok := byYear[y]
		if !ok {
			st = &types.YearStats{
				Year:       y,
				Categories: make(map[types.Category]int),
				Geography:  make(map[string]int),
			}
			byYear[y] = st
		}
		st.AbstractCount++
		if r.ContainsCOVID {
			st.COVIDCount++
		}
		st.Categories[r.ResearchCategory]++
		st.Geography[r.Geography]++
	}

	years := sortedKeys(byYear)
	out := types.TemporalTrends{Years: make([]types.YearStats, 0, len(years))}
	for i, y := range years {
		st := *byYear[y]
		if i == 0 {
			st.YoYChange = types.Undefined("no previous year")
		} else {
			prev := out.Years[i-1].AbstractCount
			st.YoYChange = types.Defined(float64(st.AbstractCount-prev) / float64(prev) * 100)
		}
		out.Years = append(out.Years, st)
	}
	return out
}

// COVIDImpact partitions records at the event cutoff and compares the
// category distributions of the two partitions.
func (a *Analyzer) COVIDImpact() types.COVIDImpact {
	var pre, post []types.Category
	covid := 0
	for _, r := range a.records {
		if r.date.Before(a.opts.Cutoff) {
			pre = append(pre, r.ResearchCategory)
			continue
		}
		post = append(post, r.ResearchCategory)
		if r.ContainsCOVID {
			covid++
		}
	}

	out := types.COVIDImpact{
		EventCutoff:     a.opts.Cutoff.Format(types.DateLayout),
		PreEventCount:   len(pre),
		PostEventCount:  len(post),
		CategoryChanges: CompareDistributions(pre, post, a.opts.SignificanceLevel),
	}
	if len(post) == 0 {
		out.COVIDRelatedPercentage = types.Undefined("no post-event records")
	} else {
		out.COVIDRelatedPercentage = types.Defined(float64(covid) / float64(len(post)) * 100)
	}
	if r := out.CategoryChanges.Reason; r != "" {
		a.logger.Warn("category comparison not computable", "reason", r)
	}
	return out
}

// GeographicalDistribution counts records per geography overall and per
// year. Every year row carries every geography in the dataset.
func (a *Analyzer) GeographicalDistribution() types.GeoDistribution {
	overall := make(map[string]int)
	byYear := make(map[int]map[string]int)
	for _, r := range a.records {
		overall[r.Geography]++
		y := r.date.Year()
		if byYear[y] == nil {
			byYear[y] = make(map[string]int)
		}
		byYear[y][r.Geography]++
	}
	for _, row := range byYear {
		for g := range overall {
			if _, ok := row[g]; !ok {
				row[g] = 0
			}
		}
	}
	return types.GeoDistribution{Overall: overall, ByYear: byYear}
}

// Analyze runs every analysis and stamps the result with now.
func (a *Analyzer) Analyze(now time.Time) types.AnalysisResult {
	a.logger.Info("analyzing dataset", "records", len(a.records), "skipped", a.skipped)
	return types.AnalysisResult{
		GeneratedAt:              now,
		SkippedRecords:           a.skipped,
		TemporalTrends:           a.TemporalTrends(),
		COVIDImpact:              a.COVIDImpact(),
		GeographicalDistribution: a.GeographicalDistribution(),
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
