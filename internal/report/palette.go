// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot/palette/brewer"
)

// viridisStops are evenly spaced samples of the viridis colormap.
var viridisStops = []color.RGBA{
	{0x44, 0x01, 0x54, 0xff},
	{0x3b, 0x52, 0x8b, 0xff},
	{0x21, 0x91, 0x8c, 0xff},
	{0x5e, 0xc9, 0x62, 0xff},
	{0xfd, 0xe7, 0x25, 0xff},
}

// Colors returns n colors from the named palette. "viridis" is
// interpolated; any other name is looked up among the ColorBrewer palettes
// (for example "Set2" or "YlGnBu").
func Colors(name string, n int) ([]color.Color, error) {
	if n <= 0 {
		return nil, nil
	}
	if strings.EqualFold(name, "viridis") || name == "" {
		return viridis(n), nil
	}
	want := max(n, 3)
	p, err := brewer.GetPalette(brewer.TypeAny, name, want)
	if err != nil {
		return nil, fmt.Errorf("palette %q with %d colors: %w", name, want, err)
	}
	return p.Colors()[:n], nil
}

func viridis(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = sampleStops(viridisStops, t)
	}
	return out
}

func sampleStops(stops []color.RGBA, t float64) color.RGBA {
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	f := pos - float64(i)
	a, b := stops[i], stops[i+1]
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*f + 0.5) }
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 0xff}
}

// hex formats c as #rrggbb.
func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
