// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders analysis results as static charts, interactive
// HTML pages, and results files.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/pdiddy/ddw-trends/internal/fsutil"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

// Artifact base names.
const (
	TemporalTrendsFile       = "temporal_trends"
	CategoryDistributionFile = "category_distribution"
	COVIDImpactFile          = "covid_impact"
	GeoDistributionFile      = "geographical_distribution.html"
	DashboardFile            = "interactive_dashboard.html"
)

// Reporter writes charts into the configured figures directory.
type Reporter struct {
	cfg    types.FigureConfig
	logger *slog.Logger
}

// New returns a Reporter. The palette is checked up front.
func New(cfg types.FigureConfig, logger *slog.Logger) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DPI <= 0 {
		return nil, fmt.Errorf("figure dpi must be positive, got %d", cfg.DPI)
	}
	if cfg.Format == "" {
		cfg.Format = types.FormatPNG
	}
	if _, err := Colors(cfg.Palette, 3); err != nil {
		return nil, err
	}
	return &Reporter{cfg: cfg, logger: logger}, nil
}

// Render writes the three static charts, the geographic map, and the
// dashboard, returning the written paths. rolling is the COVID share
// series plotted on the impact chart.
func (r *Reporter) Render(res types.AnalysisResult, rolling []types.TimePoint) ([]string, error) {
	if len(res.TemporalTrends.Years) == 0 {
		return nil, fmt.Errorf("no yearly data to plot")
	}
	cutoff, err := time.Parse(types.DateLayout, res.COVIDImpact.EventCutoff)
	if err != nil {
		return nil, fmt.Errorf("parsing event cutoff: %w", err)
	}

	steps := []struct {
		name string
		fn   func() (string, error)
	}{
		{TemporalTrendsFile, func() (string, error) { return r.temporalTrends(res.TemporalTrends) }},
		{CategoryDistributionFile, func() (string, error) { return r.categoryDistribution(res.TemporalTrends) }},
		{COVIDImpactFile, func() (string, error) { return r.covidImpact(rolling, cutoff) }},
		{GeoDistributionFile, func() (string, error) { return r.geoMap(res.GeographicalDistribution) }},
		{DashboardFile, func() (string, error) { return r.dashboard(res.TemporalTrends) }},
	}

	paths := make([]string, 0, len(steps))
	for _, s := range steps {
		path, err := s.fn()
		if err != nil {
			return paths, fmt.Errorf("rendering %s: %w", s.name, err)
		}
		r.logger.Info("wrote figure", "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *Reporter) path(name string) string {
	return filepath.Join(r.cfg.Dir, name)
}

// savePlot writes p at w×h in the configured format. Raster formats are
// drawn at the configured DPI.
func (r *Reporter) savePlot(p *plot.Plot, w, h vg.Length, base string) (string, error) {
	format := r.cfg.Format
	path := r.path(base + "." + string(format))
	err := fsutil.WriteAtomic(path, func(out io.Writer) error {
		if !format.Raster() {
			wt, err := p.WriterTo(w, h, string(format))
			if err != nil {
				return err
			}
			_, err = wt.WriteTo(out)
			return err
		}

		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.cfg.DPI))
		p.Draw(draw.New(c))
		var wt io.WriterTo
		switch format {
		case types.FormatJPG:
			wt = vgimg.JpegCanvas{Canvas: c}
		case types.FormatTIFF:
			wt = vgimg.TiffCanvas{Canvas: c}
		default:
			wt = vgimg.PngCanvas{Canvas: c}
		}
		_, err := wt.WriteTo(out)
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}
