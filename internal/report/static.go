// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"image/color"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/pdiddy/ddw-trends/pkg/types"
)

// yearlySeries returns the year labels with the total and COVID related
// abstract counts per year.
func yearlySeries(tr types.TemporalTrends) (labels []string, totals, covid []int) {
	for _, y := range tr.Years {
		labels = append(labels, strconv.Itoa(y.Year))
		totals = append(totals, y.AbstractCount)
		covid = append(covid, y.COVIDCount)
	}
	return labels, totals, covid
}

func (r *Reporter) temporalTrends(tr types.TemporalTrends) (string, error) {
	p := plot.New()
	p.Title.Text = "Number of DDW Abstracts Over Time"
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Number of Abstracts"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(tr.Years))
	for i, y := range tr.Years {
		pts[i] = plotter.XY{X: float64(y.Year), Y: float64(y.AbstractCount)}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return "", err
	}
	colors, err := Colors(r.cfg.Palette, 1)
	if err != nil {
		return "", err
	}
	line.Color = colors[0]
	points.GlyphStyle.Color = colors[0]
	p.Add(line, points)

	p.X.Tick.Marker = yearTicks(tr)
	return r.savePlot(p, 12*vg.Inch, 6*vg.Inch, TemporalTrendsFile)
}

// yearTicks labels each year present in the data.
func yearTicks(tr types.TemporalTrends) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(tr.Years))
	for i, y := range tr.Years {
		ticks[i] = plot.Tick{Value: float64(y.Year), Label: strconv.Itoa(y.Year)}
	}
	return ticks
}

func (r *Reporter) categoryDistribution(tr types.TemporalTrends) (string, error) {
	years, cats, counts := tr.CategoryMatrix()

	p := plot.New()
	p.Title.Text = "Research Categories Distribution Over Time"
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Number of Abstracts"
	p.Legend.Top = true
	p.Legend.Left = true

	colors, err := Colors(r.cfg.Palette, len(cats))
	if err != nil {
		return "", err
	}

	var below *plotter.BarChart
	for j, c := range cats {
		vals := make(plotter.Values, len(years))
		for i := range years {
			vals[i] = float64(counts[i][j])
		}
		bar, err := plotter.NewBarChart(vals, vg.Points(30))
		if err != nil {
			return "", err
		}
		bar.Color = colors[j]
		bar.LineStyle.Width = 0
		if below != nil {
			bar.StackOn(below)
		}
		p.Add(bar)
		p.Legend.Add(string(c), bar)
		below = bar
	}

	names := make([]string, len(years))
	for i, y := range years {
		names[i] = strconv.Itoa(y)
	}
	p.NominalX(names...)
	return r.savePlot(p, 10*vg.Inch, 8*vg.Inch, CategoryDistributionFile)
}

func (r *Reporter) covidImpact(rolling []types.TimePoint, cutoff time.Time) (string, error) {
	p := plot.New()
	p.Title.Text = "Timeline of COVID-19 Related Research"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Proportion of COVID-related Abstracts (moving average)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Y.Min = 0
	p.Y.Max = 1
	p.Add(plotter.NewGrid())

	if len(rolling) > 0 {
		pts := make(plotter.XYs, len(rolling))
		for i, tp := range rolling {
			pts[i] = plotter.XY{X: float64(tp.Time.Unix()), Y: tp.Value}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", err
		}
		colors, err := Colors(r.cfg.Palette, 1)
		if err != nil {
			return "", err
		}
		line.Color = colors[0]
		p.Add(line)
		p.Legend.Add("COVID share", line)
	}

	x := float64(cutoff.Unix())
	marker, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: 1}})
	if err != nil {
		return "", err
	}
	marker.Color = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	marker.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(marker)
	p.Legend.Add("COVID-19 Start", marker)

	return r.savePlot(p, 12*vg.Inch, 6*vg.Inch, COVIDImpactFile)
}
