package chart

import (
	"fmt"
	"image/color"
	"slices"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Marker is a labelled vertical line drawn over a histogram.
type Marker struct {
	Label string
	X     float64
	Color color.RGBA
}

// HistogramBins is the number of bins used for simulated durations.
const HistogramBins = 50

// Histogram renders the distribution of values with optional markers.
func Histogram(path, title, xLabel string, values []float64, bins int, markers ...Marker) error {
	if len(values) == 0 {
		return ErrEmpty
	}
	if bins <= 0 {
		bins = HistogramBins
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Frequency"
	p.Legend.Top = true

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	h.FillColor = BoroughPalette.MH
	p.Add(h)

	_, _, _, yMax := h.DataRange()
	for _, m := range markers {
		line, err := plotter.NewLine(plotter.XYs{{X: m.X, Y: 0}, {X: m.X, Y: yMax}})
		if err != nil {
			return fmt.Errorf("failed to build marker %s: %w", m.Label, err)
		}
		line.Color = m.Color
		line.Width = vg.Points(1.5)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
		p.Legend.Add(m.Label, line)
	}

	return save(p, path)
}

// SequenceHistogram renders simulated permit sequences with one bar per
// sequence value between the smallest and largest draw.
func SequenceHistogram(path, title string, draws []int) error {
	if len(draws) == 0 {
		return ErrEmpty
	}
	lo, hi := slices.Min(draws), slices.Max(draws)

	counts := make(plotter.Values, hi-lo+1)
	ticks := make([]string, len(counts))
	for i := range ticks {
		ticks[i] = strconv.Itoa(lo + i)
	}
	for _, d := range draws {
		counts[d-lo]++
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Permit sequence"
	p.Y.Label.Text = "Frequency"

	bars, err := plotter.NewBarChart(counts, vg.Points(30))
	if err != nil {
		return fmt.Errorf("failed to build sequence bars: %w", err)
	}
	bars.Color = BoroughPalette.BL
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(ticks...)

	return save(p, path)
}
