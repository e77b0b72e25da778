// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists abstract datasets as CSV and combines per-year
// datasets into the full corpus, reusing processed files as a cache.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pdiddy/ddw-trends/internal/label"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

// ErrEmptyCorpus is returned when there are no years to process.
var ErrEmptyCorpus = errors.New("empty corpus: no years to process")

// Fetcher retrieves the raw dataset for one year.
type Fetcher interface {
	Fetch(ctx context.Context, year int) (types.Dataset, error)
}

// YearOutcome describes how one year was obtained.
type YearOutcome string

const (
	OutcomeCached  YearOutcome = "cached"
	OutcomeFetched YearOutcome = "fetched"
	OutcomeFailed  YearOutcome = "failed"
)

// YearResult records the outcome and record count for one year.
type YearResult struct {
	Year    int
	Outcome YearOutcome
	Records int
	Err     error
}

// Result holds the combined dataset and per-year outcomes of a run.
type Result struct {
	Dataset types.Dataset
	Years   []YearResult
}

// Count returns the number of years with the given outcome.
func (r Result) Count(o YearOutcome) int {
	n := 0
	for _, y := range r.Years {
		if y.Outcome == o {
			n++
		}
	}
	return n
}

// Aggregator builds the combined corpus from per-year datasets.
type Aggregator struct {
	fetcher      Fetcher
	processedDir string
	logger       *slog.Logger
}

// NewAggregator returns an Aggregator that reads and writes processed files
// under dirs.Processed and fetches missing years with f.
func NewAggregator(dirs types.DataDirs, f Fetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		fetcher:      f,
		processedDir: dirs.Processed,
		logger:       logger.With("component", "aggregator"),
	}
}

// ProcessAllYears loads or builds the processed dataset for each year in
// order and returns their concatenation.
//
// A year whose processed file exists is loaded verbatim and never
// refetched or relabeled, even if the labeling rules have changed since it
// was written. Other years are fetched, labeled and persisted. A failed
// fetch contributes no records and leaves no processed file, so a later run
// retries it. The combined dataset is written to all_abstracts_processed.csv.
func (a *Aggregator) ProcessAllYears(ctx context.Context, years []int) (*Result, error) {
	if len(years) == 0 {
		return nil, ErrEmptyCorpus
	}

	res := &Result{Dataset: types.Dataset{}}
	for _, year := range years {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		a.logger.Info("processing year", "year", year)
		ds, yr, err := a.processYear(ctx, year)
		if err != nil {
			return nil, err
		}
		res.Years = append(res.Years, yr)
		res.Dataset = append(res.Dataset, ds...)
	}

	combined := CombinedPath(a.processedDir)
	if err := WriteProcessed(combined, res.Dataset); err != nil {
		return nil, fmt.Errorf("writing combined dataset: %w", err)
	}
	a.logger.Info("corpus combined",
		"records", len(res.Dataset),
		"cached", res.Count(OutcomeCached),
		"fetched", res.Count(OutcomeFetched),
		"failed", res.Count(OutcomeFailed),
		"path", combined)
	return res, nil
}

// processYear returns the processed dataset for year. Only filesystem
// errors on the cache are fatal; fetch failures degrade to an empty year.
func (a *Aggregator) processYear(ctx context.Context, year int) (types.Dataset, YearResult, error) {
	path := ProcessedPath(a.processedDir, year)

	if _, err := os.Stat(path); err == nil {
		ds, err := ReadProcessed(path)
		if err != nil {
			return nil, YearResult{}, fmt.Errorf("loading cached year %d: %w", year, err)
		}
		a.logger.Info("cache hit", "year", year, "records", len(ds), "path", path)
		return ds, YearResult{Year: year, Outcome: OutcomeCached, Records: len(ds)}, nil
	}

	raw, err := a.fetcher.Fetch(ctx, year)
	if err != nil {
		a.logger.Error("fetch failed, continuing without year", "year", year, "err", err)
		return types.Dataset{}, YearResult{Year: year, Outcome: OutcomeFailed, Err: err}, nil
	}

	ds := label.Process(raw)
	if err := WriteProcessed(path, ds); err != nil {
		return nil, YearResult{}, fmt.Errorf("writing processed year %d: %w", year, err)
	}
	return ds, YearResult{Year: year, Outcome: OutcomeFetched, Records: len(ds)}, nil
}

// LoadCombined reads the combined processed dataset from processedDir.
func LoadCombined(processedDir string) (types.Dataset, error) {
	ds, err := ReadProcessed(CombinedPath(processedDir))
	if err != nil {
		return nil, fmt.Errorf("loading combined dataset: %w", err)
	}
	return ds, nil
}
