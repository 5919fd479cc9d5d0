// Package chart renders permit distributions, durations and simulations
// as PNG charts.
package chart

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette colors the bar series of a chart.
type Palette struct {
	MH       color.RGBA
	BL       color.RGBA
	Expected color.RGBA
}

// Palettes for per-borough and whole-city charts.
var (
	BoroughPalette = Palette{
		MH:       mustHex("#87CEFA"),
		BL:       mustHex("#FF9999"),
		Expected: mustHex("#90EE90"),
	}
	CityPalette = Palette{
		MH:       mustHex("#1E90FF"),
		BL:       mustHex("#B22222"),
		Expected: mustHex("#90EE90"),
	}
)

// ParseHex parses a #RRGGBB color.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// withAlpha returns c at the given opacity, premultiplied as image/color expects.
func withAlpha(c color.RGBA, a uint8) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(a) / 255) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: a}
}
