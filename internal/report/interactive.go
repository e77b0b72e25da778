// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pdiddy/ddw-trends/internal/fsutil"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

// geoSeries returns one map entry per geography, sorted by name, and the
// largest count.
func geoSeries(geo types.GeoDistribution) ([]opts.MapData, int) {
	names := make([]string, 0, len(geo.Overall))
	for g := range geo.Overall {
		names = append(names, g)
	}
	sort.Strings(names)

	data := make([]opts.MapData, len(names))
	peak := 0
	for i, g := range names {
		n := geo.Overall[g]
		data[i] = opts.MapData{Name: g, Value: n}
		peak = max(peak, n)
	}
	return data, peak
}

func (r *Reporter) geoMap(geo types.GeoDistribution) (string, error) {
	data, peak := geoSeries(geo)
	colors, err := Colors(r.cfg.Palette, 5)
	if err != nil {
		return "", err
	}
	inRange := make([]string, len(colors))
	for i, c := range colors {
		inRange[i] = hex(c)
	}

	m := charts.NewMap()
	m.RegisterMapType("world")
	m.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Geographical Distribution",
			Width:     "1000px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Geographical Distribution of DDW Research"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: true,
			Max:        float32(max(peak, 1)),
			Text:       []string{"Number of Abstracts"},
			InRange:    &opts.VisualMapInRange{Color: inRange},
		}),
	)
	m.AddSeries("abstracts", data)

	path := r.path(GeoDistributionFile)
	if err := fsutil.WriteAtomic(path, func(w io.Writer) error { return m.Render(w) }); err != nil {
		return "", err
	}
	return path, nil
}

func lineData(vals []int) []opts.LineData {
	out := make([]opts.LineData, len(vals))
	for i, v := range vals {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func (r *Reporter) dashboard(tr types.TemporalTrends) (string, error) {
	labels, totals, covid := yearlySeries(tr)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: "DDW Research Trends Dashboard"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Abstracts"}),
	)
	line.SetXAxis(labels).
		AddSeries("Total Abstracts", lineData(totals)).
		AddSeries("COVID-related", lineData(covid))

	years, cats, counts := tr.CategoryMatrix()
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Research Categories by Year"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
	)
	bar.SetXAxis(labels)
	for j, c := range cats {
		data := make([]opts.BarData, len(years))
		for i := range years {
			data[i] = opts.BarData{Value: counts[i][j]}
		}
		bar.AddSeries(string(c), data, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
	}

	page := components.NewPage()
	page.PageTitle = "DDW Research Trends"
	page.AddCharts(line, bar)

	path := r.path(DashboardFile)
	if err := fsutil.WriteAtomic(path, func(w io.Writer) error { return page.Render(w) }); err != nil {
		return "", err
	}
	return path, nil
}
