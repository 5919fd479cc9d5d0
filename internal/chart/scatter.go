package chart

import (
	"fmt"
	"image/color"

	"github.com/Veraticus/permitflow/internal/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Scatter axis ranges.
const (
	ScatterMinYear     = 1980
	ScatterMaxYear     = 2027
	ScatterMaxDuration = 4000
)

// SubtypeColor returns the scatter color for a subtype.
func SubtypeColor(s model.Subtype) color.RGBA {
	if s == model.SubtypeBL {
		return BoroughPalette.BL
	}
	return BoroughPalette.MH
}

// Scatter plots job start year against duration for the records of one
// subtype. Records without a start date are left out; with none left the
// result is ErrEmpty.
func Scatter(path, title string, records []model.PermitRecord, subtype model.Subtype) error {
	var xys plotter.XYs
	for _, r := range records {
		if r.Subtype != subtype || r.StartYear() == 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(r.StartYear()), Y: float64(r.Duration)})
	}
	if len(xys) == 0 {
		return ErrEmpty
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Job start year"
	p.Y.Label.Text = "Duration (days)"
	p.X.Min, p.X.Max = ScatterMinYear, ScatterMaxYear
	p.Y.Min, p.Y.Max = 0, ScatterMaxDuration
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.GlyphStyle.Color = withAlpha(SubtypeColor(subtype), 178)
	scatter.GlyphStyle.Radius = vg.Points(2)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(scatter)
	p.Legend.Add(string(subtype), scatter)
	p.Legend.Top = true

	return save(p, path)
}
