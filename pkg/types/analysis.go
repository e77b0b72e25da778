// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// YearStats holds the temporal aggregates for one calendar year.
type YearStats struct {
	Year          int `json:"year" yaml:"year"`
	AbstractCount int `json:"abstract_count" yaml:"abstract_count"`
	COVIDCount    int `json:"covid_count" yaml:"covid_count"`

	// Categories maps research category to record count.
	Categories map[Category]int `json:"research_category" yaml:"research_category"`

	// Geography maps geography token to record count.
	Geography map[string]int `json:"geography" yaml:"geography"`

	// YoYChange is the percentage change in AbstractCount relative to the
	// previous year present in the data. Undefined for the earliest year.
	YoYChange Optional `json:"yoy_change" yaml:"yoy_change"`
}

// TemporalTrends holds per-year statistics in ascending year order.
type TemporalTrends struct {
	Years []YearStats `json:"years" yaml:"years"`
}

// CategoryMatrix returns the year × category count table: the years in
// ascending order, the categories observed in any year sorted by name, and
// a zero-filled matrix indexed [year][category].
func (t TemporalTrends) CategoryMatrix() ([]int, []Category, [][]int) {
	seen := make(map[Category]bool)
	for _, y := range t.Years {
		for c := range y.Categories {
			seen[c] = true
		}
	}
	cats := make([]Category, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	years := make([]int, len(t.Years))
	counts := make([][]int, len(t.Years))
	for i, y := range t.Years {
		years[i] = y.Year
		counts[i] = make([]int, len(cats))
		for j, c := range cats {
			counts[i][j] = y.Categories[c]
		}
	}
	return years, cats, counts
}

// DistributionComparison compares the research category distribution
// before and after the event cutoff.
type DistributionComparison struct {
	// PreDistribution and PostDistribution map every category observed in
	// either partition to its proportion within the partition. A category
	// absent from a partition maps to 0. A map is nil when its partition is
	// empty.
	PreDistribution  map[Category]float64 `json:"pre_distribution" yaml:"pre_distribution"`
	PostDistribution map[Category]float64 `json:"post_distribution" yaml:"post_distribution"`

	Chi2Statistic    Optional `json:"chi2_statistic" yaml:"chi2_statistic"`
	PValue           Optional `json:"p_value" yaml:"p_value"`
	DegreesOfFreedom int      `json:"degrees_of_freedom" yaml:"degrees_of_freedom"`

	// Significant is true only when the test was computable and the
	// p-value is below the configured significance level.
	Significant bool `json:"significant_difference" yaml:"significant_difference"`

	// Reason explains why the test could not be computed. Empty otherwise.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// COVIDImpact holds the pre/post event comparison.
type COVIDImpact struct {
	EventCutoff    string `json:"event_cutoff" yaml:"event_cutoff"`
	PreEventCount  int    `json:"pre_covid_count" yaml:"pre_covid_count"`
	PostEventCount int    `json:"post_covid_count" yaml:"post_covid_count"`

	// COVIDRelatedPercentage is the share (0-100) of post-event records
	// flagged as COVID related. Undefined when there are no post-event records.
	COVIDRelatedPercentage Optional `json:"covid_related_percentage" yaml:"covid_related_percentage"`

	CategoryChanges DistributionComparison `json:"category_changes" yaml:"category_changes"`
}

// GeoDistribution holds geographic breakdowns.
type GeoDistribution struct {
	// Overall maps geography token to record count across the dataset.
	Overall map[string]int `json:"overall_distribution" yaml:"overall_distribution"`

	// ByYear is the year × geography cross-tabulation. Every year carries
	// every geography observed in the dataset, with 0 where absent.
	ByYear map[int]map[string]int `json:"temporal_changes" yaml:"temporal_changes"`
}

// TimePoint is one sample of a time series.
type TimePoint struct {
	Time  time.Time `json:"time" yaml:"time"`
	Value float64   `json:"value" yaml:"value"`
}

// AnalysisResult is the full output of one analysis run.
type AnalysisResult struct {
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// SkippedRecords counts records excluded for an unparseable presentation date.
	SkippedRecords int `json:"skipped_records" yaml:"skipped_records"`

	TemporalTrends           TemporalTrends  `json:"temporal_trends" yaml:"temporal_trends"`
	COVIDImpact              COVIDImpact     `json:"covid_impact" yaml:"covid_impact"`
	GeographicalDistribution GeoDistribution `json:"geographical_distribution" yaml:"geographical_distribution"`

	// TrendScores holds the mean score per label from the scoring service,
	// when one is configured.
	TrendScores map[string]float64 `json:"trend_scores,omitempty" yaml:"trend_scores,omitempty"`
}
