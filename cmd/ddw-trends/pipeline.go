// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pdiddy/ddw-trends/internal/analysis"
	"github.com/pdiddy/ddw-trends/internal/corpus"
	"github.com/pdiddy/ddw-trends/internal/fetch"
	"github.com/pdiddy/ddw-trends/internal/report"
	"github.com/pdiddy/ddw-trends/internal/score"
	"github.com/pdiddy/ddw-trends/internal/store"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

func newFetcher(cfg types.PipelineConfig, logger *slog.Logger) *fetch.Client {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	return fetch.NewClient(httpClient, cfg.BaseURL, cfg.HTTP, cfg.Data.Raw, logger)
}

// analyzeDataset runs every analysis and the rolling COVID share.
func analyzeDataset(cfg types.PipelineConfig, ds types.Dataset, logger *slog.Logger) (types.AnalysisResult, []types.TimePoint, error) {
	opts, err := analysis.OptionsFromConfig(cfg.Analysis)
	if err != nil {
		return types.AnalysisResult{}, nil, err
	}
	a := analysis.New(ds, opts, logger)
	if a.Len() == 0 {
		return types.AnalysisResult{}, nil, fmt.Errorf("%w: no records with a valid presentation date", corpus.ErrEmptyCorpus)
	}
	res := a.Analyze(time.Now().UTC())
	return res, a.RollingCOVIDShare(cfg.Analysis.RollingWindow), nil
}

// scoreDataset sends every abstract to the scoring service.
func scoreDataset(ctx context.Context, cfg types.PipelineConfig, ds types.Dataset, logger *slog.Logger) ([]score.Scores, error) {
	s := score.NewHTTPScorer(cfg.Scorer, cfg.HTTP.UserAgent, logger)
	texts := make([]string, len(ds))
	for i, rec := range ds {
		texts[i] = rec.Abstract
	}
	logger.Info("scoring abstracts", "count", len(texts), "batch_size", cfg.Scorer.BatchSize)
	return score.BatchScore(ctx, s, texts, cfg.Scorer.BatchSize)
}

// indexDataset replaces the corpus store contents with ds, attaches
// scores when present, and writes the YAML export.
func indexDataset(ctx context.Context, cfg types.PipelineConfig, ds types.Dataset, scores []score.Scores, logger *slog.Logger) (store.IngestSummary, error) {
	st, err := store.Open(cfg.Data.Index, cfg.Store, logger)
	if err != nil {
		return store.IngestSummary{}, err
	}
	defer st.Close()

	summary, err := st.Ingest(ctx, ds)
	if err != nil {
		return summary, err
	}
	if len(scores) > 0 {
		ids := make([]string, len(ds))
		for i, rec := range ds {
			ids[i] = store.RecordID(rec)
		}
		if err := st.SaveScores(ctx, ids, scores); err != nil {
			return summary, err
		}
	}
	if _, err := st.ExportYAML(ctx, store.QueryOptions{}); err != nil {
		logger.Warn("corpus export failed", "error", err)
	}
	return summary, nil
}

// renderReport writes the results files and all figures.
func renderReport(cfg types.PipelineConfig, res types.AnalysisResult, rolling []types.TimePoint, withYAML bool, logger *slog.Logger) error {
	paths, err := report.WriteResults(cfg.Data.Processed, res, withYAML)
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Info("wrote results", "path", p)
	}
	return renderFigures(cfg, res, rolling, logger)
}

func renderFigures(cfg types.PipelineConfig, res types.AnalysisResult, rolling []types.TimePoint, logger *slog.Logger) error {
	r, err := report.New(cfg.Figures, logger)
	if err != nil {
		return err
	}
	_, err = r.Render(res, rolling)
	return err
}

// printSummary writes the per-year and event comparison tables.
func printSummary(w io.Writer, res types.AnalysisResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Abstracts by year")
	t.AppendHeader(table.Row{"Year", "Abstracts", "COVID", "YoY change %"})
	for _, y := range res.TemporalTrends.Years {
		yoy := "-"
		if v, ok := y.YoYChange.Get(); ok {
			yoy = fmt.Sprintf("%+.1f", v)
		}
		t.AppendRow(table.Row{y.Year, y.AbstractCount, y.COVIDCount, yoy})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	impact := res.COVIDImpact
	cc := impact.CategoryChanges
	e := table.NewWriter()
	e.SetOutputMirror(w)
	e.SetTitle("Event cutoff " + impact.EventCutoff)
	e.AppendRows([]table.Row{
		{"Pre-event abstracts", impact.PreEventCount},
		{"Post-event abstracts", impact.PostEventCount},
		{"Post-event COVID %", formatOptional(impact.COVIDRelatedPercentage, "%.1f")},
		{"Chi-square", formatOptional(cc.Chi2Statistic, "%.3f")},
		{"p-value", formatOptional(cc.PValue, "%.4g")},
		{"Significant", cc.Significant},
	})
	if res.SkippedRecords > 0 {
		e.AppendRow(table.Row{"Skipped (bad date)", res.SkippedRecords})
	}
	e.SetStyle(table.StyleRounded)
	e.Render()
}

func formatOptional(o types.Optional, format string) string {
	v, ok := o.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}
