package types

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of configured dates such as the event cutoff.
const DateLayout = "2006-01-02"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ddw-trends/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 and 503 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// DataDirs holds the on-disk locations for pipeline files.
type DataDirs struct {
	// Raw holds per-year raw CSV files (ddw_abstracts_<year>.csv).
	Raw string `json:"raw" yaml:"raw" mapstructure:"raw"`

	// Processed holds per-year processed CSV files, the combined dataset,
	// and the dated results JSON.
	Processed string `json:"processed" yaml:"processed" mapstructure:"processed"`

	// Index holds the SQLite corpus store and its exports.
	Index string `json:"index" yaml:"index" mapstructure:"index"`
}

// YearRange is an inclusive range of years to analyze. A range with From
// greater than To is empty.
type YearRange struct {
	From int `json:"from" yaml:"from" mapstructure:"from"`
	To   int `json:"to" yaml:"to" mapstructure:"to"`
}

// Years returns the years in ascending order.
func (r YearRange) Years() []int {
	if r.From > r.To {
		return nil
	}
	years := make([]int, 0, r.To-r.From+1)
	for y := r.From; y <= r.To; y++ {
		years = append(years, y)
	}
	return years
}

// AnalysisConfig holds settings for the trend analysis stage.
type AnalysisConfig struct {
	// SignificanceLevel is the p-value threshold for the chi-square test (default 0.05).
	SignificanceLevel float64 `json:"significance_level" yaml:"significance_level" mapstructure:"significance_level"`

	// EventCutoff splits records into pre- and post-event partitions,
	// formatted as YYYY-MM-DD (default "2020-03-01").
	EventCutoff string `json:"event_cutoff" yaml:"event_cutoff" mapstructure:"event_cutoff"`

	// RollingWindow is the window of the COVID share moving average (default 30 days).
	RollingWindow time.Duration `json:"rolling_window" yaml:"rolling_window" mapstructure:"rolling_window"`
}

// Cutoff parses EventCutoff.
func (c AnalysisConfig) Cutoff() (time.Time, error) {
	t, err := time.Parse(DateLayout, c.EventCutoff)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing event cutoff %q: %w", c.EventCutoff, err)
	}
	return t, nil
}

// FigureFormat is the file format of static charts.
type FigureFormat string

const (
	FormatPNG  FigureFormat = "png"
	FormatJPG  FigureFormat = "jpg"
	FormatSVG  FigureFormat = "svg"
	FormatPDF  FigureFormat = "pdf"
	FormatTIFF FigureFormat = "tiff"
)

// Raster reports whether the format is a bitmap format affected by DPI.
func (f FigureFormat) Raster() bool {
	switch f {
	case FormatPNG, FormatJPG, FormatTIFF:
		return true
	}
	return false
}

// FigureConfig holds settings for the report stage.
type FigureConfig struct {
	// Dir is the output directory for charts and dashboards.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// DPI is the resolution of raster charts (default 300).
	DPI int `json:"dpi" yaml:"dpi" mapstructure:"dpi"`

	// Format selects the static chart format (default png).
	Format FigureFormat `json:"format" yaml:"format" mapstructure:"format"`

	// Palette names the chart color palette (default viridis).
	Palette string `json:"palette" yaml:"palette" mapstructure:"palette"`
}

// ScorerConfig holds settings for the external scoring service.
type ScorerConfig struct {
	// URL is the service base URL. Scoring is disabled when empty.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BatchSize is the number of abstracts sent per request (default 32).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// Timeout is the per-request timeout (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Enabled reports whether a scoring service is configured.
func (c ScorerConfig) Enabled() bool {
	return c.URL != ""
}

// StoreConfig holds settings for the SQLite corpus store.
type StoreConfig struct {
	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Data     DataDirs       `json:"data" yaml:"data" mapstructure:"data"`
	Years    YearRange      `json:"years" yaml:"years" mapstructure:"years"`
	BaseURL  string         `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	HTTP     HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Figures  FigureConfig   `json:"figures" yaml:"figures" mapstructure:"figures"`
	Scorer   ScorerConfig   `json:"scorer" yaml:"scorer" mapstructure:"scorer"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
}

// DefaultPipelineConfig returns the configuration used when no config file
// or environment override is present.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Data: DataDirs{
			Raw:       "data/raw",
			Processed: "data/processed",
			Index:     "data/index",
		},
		Years:   YearRange{From: 2018, To: 2023},
		BaseURL: "https://ddw.org/abstracts/",
		HTTP: HTTPConfig{
			Timeout:    60 * time.Second,
			UserAgent:  "ddw-trends/0.1",
			MaxRetries: 3,
		},
		Analysis: AnalysisConfig{
			SignificanceLevel: 0.05,
			EventCutoff:       "2020-03-01",
			RollingWindow:     30 * 24 * time.Hour,
		},
		Figures: FigureConfig{
			Dir:     "docs/figures",
			DPI:     300,
			Format:  FormatPNG,
			Palette: "viridis",
		},
		Scorer: ScorerConfig{
			BatchSize: 32,
			Timeout:   2 * time.Minute,
		},
		Store: StoreConfig{
			MaxResults: 20,
		},
	}
}

// Validate checks settings that would otherwise fail deep inside a stage.
// An empty year range is not rejected here; the aggregator reports it.
func (c PipelineConfig) Validate() error {
	if c.Data.Raw == "" || c.Data.Processed == "" {
		return fmt.Errorf("config: data.raw and data.processed are required")
	}
	if c.Years.From < 0 || c.Years.To < 0 {
		return fmt.Errorf("config: years must be non-negative (got %d..%d)", c.Years.From, c.Years.To)
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if c.Analysis.SignificanceLevel <= 0 || c.Analysis.SignificanceLevel >= 1 {
		return fmt.Errorf("config: analysis.significance_level must be in (0, 1), got %v", c.Analysis.SignificanceLevel)
	}
	if _, err := c.Analysis.Cutoff(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Analysis.RollingWindow <= 0 {
		return fmt.Errorf("config: analysis.rolling_window must be positive")
	}
	switch c.Figures.Format {
	case FormatPNG, FormatJPG, FormatSVG, FormatPDF, FormatTIFF:
	default:
		return fmt.Errorf("config: unsupported figures.format %q (supported: png, jpg, svg, pdf, tiff)", c.Figures.Format)
	}
	if c.Figures.DPI <= 0 {
		return fmt.Errorf("config: figures.dpi must be positive, got %d", c.Figures.DPI)
	}
	if c.Scorer.Enabled() && c.Scorer.BatchSize <= 0 {
		return fmt.Errorf("config: scorer.batch_size must be positive, got %d", c.Scorer.BatchSize)
	}
	return nil
}
