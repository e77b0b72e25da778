// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score consumes an external classification service that rates
// abstract texts against a fixed set of trend labels.
package score

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/montanaflynn/stats"

	"github.com/pdiddy/ddw-trends/pkg/types"
)

// Trend labels returned by the scoring service.
const (
	LabelCOVIDRelated      = "covid_related"
	LabelInnovativeMethods = "innovative_methods"
	LabelClinicalTrials    = "clinical_trials"
	LabelTechAdvancement   = "technological_advancement"
	LabelPatientOutcomes   = "patient_outcomes"
)

// Labels lists every label a valid score set carries.
var Labels = []string{
	LabelCOVIDRelated,
	LabelInnovativeMethods,
	LabelClinicalTrials,
	LabelTechAdvancement,
	LabelPatientOutcomes,
}

// ErrMissingLabel reports a score set that lacks one of Labels.
var ErrMissingLabel = errors.New("score set missing label")

// Scores maps label to a confidence in [0, 1].
type Scores map[string]float64

// Validate checks that every label is present and in range.
func (s Scores) Validate() error {
	for _, l := range Labels {
		v, ok := s[l]
		if !ok {
			return fmt.Errorf("%w %q", ErrMissingLabel, l)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("label %q score %v outside [0, 1]", l, v)
		}
	}
	return nil
}

// Scorer rates a batch of texts. The result has one entry per text, in order.
type Scorer interface {
	ScoreBatch(ctx context.Context, texts []string) ([]Scores, error)
}

// Score rates a single text.
func Score(ctx context.Context, s Scorer, text string) (Scores, error) {
	out, err := s.ScoreBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("scorer returned %d score sets for 1 text", len(out))
	}
	return out[0], nil
}

// BatchScore splits texts into batches of batchSize and scores them in
// order. Every score set is validated. A batch whose response length does
// not match its request aborts the run.
func BatchScore(ctx context.Context, s Scorer, texts []string, batchSize int) ([]Scores, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	out := make([]Scores, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchSize, len(texts))
		batch, err := s.ScoreBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("scoring texts %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("scoring texts %d-%d: got %d score sets, want %d", start, end-1, len(batch), end-start)
		}
		for i, sc := range batch {
			if err := sc.Validate(); err != nil {
				return nil, fmt.Errorf("text %d: %w", start+i, err)
			}
		}
		out = append(out, batch...)
	}
	return out, nil
}

// Summarize returns the mean score per label. Labels with no scores are omitted.
func Summarize(all []Scores) map[string]float64 {
	out := make(map[string]float64, len(Labels))
	for _, l := range Labels {
		vals := make(stats.Float64Data, 0, len(all))
		for _, s := range all {
			if v, ok := s[l]; ok {
				vals = append(vals, v)
			}
		}
		mean, err := stats.Mean(vals)
		if err != nil {
			continue
		}
		out[l] = mean
	}
	return out
}

type scoreRequest struct {
	Texts []string `json:"texts"`
}

type scoreResponse struct {
	Scores []Scores `json:"scores"`
}

// HTTPScorer calls a scoring service at <URL>/score.
type HTTPScorer struct {
	client *resty.Client
	logger *slog.Logger
}

// NewHTTPScorer builds a scorer for the configured service. The API key,
// when set, is sent as a bearer token.
func NewHTTPScorer(cfg types.ScorerConfig, userAgent string, logger *slog.Logger) *HTTPScorer {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &HTTPScorer{client: client, logger: logger}
}

// ScoreBatch implements Scorer.
func (s *HTTPScorer) ScoreBatch(ctx context.Context, texts []string) ([]Scores, error) {
	var out scoreResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(scoreRequest{Texts: texts}).
		SetResult(&out).
		Post("/score")
	if err != nil {
		return nil, fmt.Errorf("posting to scoring service: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("scoring service returned %s", res.Status())
	}
	s.logger.Debug("scored batch", "texts", len(texts), "elapsed", res.Time())
	return out.Scores, nil
}
