package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/Veraticus/permitflow/internal/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrEmpty is returned when there is nothing to plot.
var ErrEmpty = errors.New("nothing to plot")

// Chart dimensions.
const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

type barSeries struct {
	name   string
	values plotter.Values
	labels []string
	color  color.RGBA
}

type barChart struct {
	title  string
	xLabel string
	yLabel string
	ticks  []string
	yMax   float64
	series []barSeries
}

func (c barChart) render(path string) error {
	p := plot.New()
	p.Title.Text = c.title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = c.xLabel
	p.Y.Label.Text = c.yLabel
	p.Y.Min = 0
	p.Y.Max = c.yMax
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	barWidth := vg.Points(60 / float64(len(c.series)))
	for i, s := range c.series {
		bars, err := plotter.NewBarChart(s.values, barWidth)
		if err != nil {
			return fmt.Errorf("failed to build %s bars: %w", s.name, err)
		}
		bars.Color = s.color
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(c.series)-1)/2)
		p.Add(bars)
		p.Legend.Add(s.name, bars)

		if err := addBarLabels(p, s, bars.Offset); err != nil {
			return err
		}
	}
	p.NominalX(c.ticks...)
	p.X.Tick.Label.XAlign = draw.XCenter

	return save(p, path)
}

// addBarLabels writes each non-empty label just above its bar.
func addBarLabels(p *plot.Plot, s barSeries, offset vg.Length) error {
	var xys plotter.XYs
	var texts []string
	for i, v := range s.values {
		if i >= len(s.labels) || s.labels[i] == "" {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: v})
		texts = append(texts, s.labels[i])
	}
	if len(xys) == 0 {
		return nil
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return fmt.Errorf("failed to build labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].Font.Size = vg.Points(8)
	}
	labels.Offset = vg.Point{X: offset, Y: vg.Points(2)}
	p.Add(labels)
	return nil
}

func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create chart directory: %w", err)
		}
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}

func percentLabels(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if v > 0 {
			out[i] = fmt.Sprintf("%.1f%%", v)
		}
	}
	return out
}

// Comparison renders observed MH and BL shares next to the expected
// distribution for one group. Both observed distributions empty is ErrEmpty.
func Comparison(path, title string, mh, bl model.Distribution, expected model.ExpectedRow, pal Palette) error {
	if mh.Empty() && bl.Empty() {
		return ErrEmpty
	}
	mhVals := plotter.Values(mh.Percent[:])
	blVals := plotter.Values(bl.Percent[:])
	expVals := plotter.Values(expected[:])

	return barChart{
		title:  title,
		xLabel: "Building height",
		yLabel: "Permits (%)",
		ticks:  model.CategoryLabels(),
		yMax:   100,
		series: []barSeries{
			{name: "MH observed", values: mhVals, labels: percentLabels(mhVals), color: pal.MH},
			{name: "BL observed", values: blVals, labels: percentLabels(blVals), color: pal.BL},
			{name: "Expected", values: expVals, labels: percentLabels(expVals), color: withAlpha(pal.Expected, 153)},
		},
	}.render(path)
}

// Counts renders permit counts per height category for MH and BL,
// labelled with count and share.
func Counts(path, title string, mh, bl model.Distribution, pal Palette) error {
	if mh.Empty() && bl.Empty() {
		return ErrEmpty
	}
	series := func(name string, d model.Distribution, c color.RGBA) barSeries {
		s := barSeries{name: name, color: c, values: make(plotter.Values, model.NumCategories), labels: make([]string, model.NumCategories)}
		for i, n := range d.Counts {
			s.values[i] = float64(n)
			if n > 0 {
				s.labels[i] = fmt.Sprintf("%d (%.1f%%)", n, d.Percent[i])
			}
		}
		return s
	}

	maxCount := 0
	for i := range mh.Counts {
		maxCount = max(maxCount, mh.Counts[i], bl.Counts[i])
	}

	return barChart{
		title:  title,
		xLabel: "Building height",
		yLabel: "Permits",
		ticks:  model.CategoryLabels(),
		yMax:   float64(maxCount) * 1.15,
		series: []barSeries{
			series("MH", mh, pal.MH),
			series("BL", bl, pal.BL),
		},
	}.render(path)
}

// AverageGroup is one x position of an averages chart.
type AverageGroup struct {
	Name     string
	Averages map[model.Subtype]model.Average
}

// AveragesMax is the top of the averages chart axis, in days.
const AveragesMax = 600

// Averages renders mean duration per subtype for each group.
func Averages(path, title string, groups []AverageGroup, pal Palette) error {
	if len(groups) == 0 {
		return ErrEmpty
	}
	ticks := make([]string, len(groups))
	mh := barSeries{name: "MH", color: pal.MH, values: make(plotter.Values, len(groups)), labels: make([]string, len(groups))}
	bl := barSeries{name: "BL", color: pal.BL, values: make(plotter.Values, len(groups)), labels: make([]string, len(groups))}
	plotted := false
	for i, g := range groups {
		ticks[i] = g.Name
		for _, s := range []*barSeries{&mh, &bl} {
			avg := g.Averages[model.Subtype(s.name)]
			if avg.Count == 0 {
				continue
			}
			plotted = true
			s.values[i] = avg.Mean
			s.labels[i] = fmt.Sprintf("%.1f", avg.Mean)
		}
	}
	if !plotted {
		return ErrEmpty
	}

	return barChart{
		title:  title,
		xLabel: "Group",
		yLabel: "Mean duration (days)",
		ticks:  ticks,
		yMax:   AveragesMax,
		series: []barSeries{mh, bl},
	}.render(path)
}
