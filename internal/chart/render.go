package chart

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/pipeline"
)

// Kind selects which charts RenderReport produces.
type Kind string

// Chart kinds.
const (
	KindDuration Kind = "duration"
	KindCounts   Kind = "counts"
	KindScatter  Kind = "scatter"
	KindAverages Kind = "averages"
)

// Kinds lists every chart kind.
var Kinds = []Kind{KindDuration, KindCounts, KindScatter, KindAverages}

// ParseKind maps a command argument to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart kind %q", s)
}

// FileName builds the chart file name for a group.
func FileName(group string, suffix string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(group), "_"))
	return slug + "_" + suffix + ".png"
}

// RenderReport writes the charts of kind for a pipeline report into dir
// and returns the written paths. Empty groups and subsets are skipped.
func RenderReport(dir string, kind Kind, report *pipeline.Report) ([]string, error) {
	r := renderer{dir: dir}
	switch kind {
	case KindDuration:
		r.duration(report)
	case KindCounts:
		r.counts(report)
	case KindScatter:
		r.scatter(report)
	case KindAverages:
		r.averages(report)
	default:
		return nil, fmt.Errorf("unknown chart kind %q", kind)
	}
	return r.written, r.err
}

type renderer struct {
	err     error
	dir     string
	written []string
}

// emit runs a chart function, recording the path or skipping empty charts.
func (r *renderer) emit(path string, fn func(path string) error) {
	if r.err != nil {
		return
	}
	err := fn(path)
	switch {
	case errors.Is(err, ErrEmpty):
		slog.Debug("Skipping empty chart", "path", path)
	case err != nil:
		r.err = err
	default:
		slog.Debug("Wrote chart", "path", path)
		r.written = append(r.written, path)
	}
}

func (r *renderer) duration(report *pipeline.Report) {
	for _, g := range report.Groups {
		if !g.OK() || !g.HasExpected() {
			continue
		}
		mh, bl := g.Distribution.Subtype(model.SubtypeMH), g.Distribution.Subtype(model.SubtypeBL)
		title := fmt.Sprintf("%s - Observed vs Expected Permit Durations by Height", strings.ToUpper(g.Region))
		expected := g.Expected
		r.emit(filepath.Join(r.dir, FileName(g.Name, "duration")), func(path string) error {
			return Comparison(path, title, mh, bl, expected, BoroughPalette)
		})
	}
	if !report.HasExpected {
		return
	}
	mh, bl := report.Combined.Subtype(model.SubtypeMH), report.Combined.Subtype(model.SubtypeBL)
	r.emit(filepath.Join(r.dir, FileName(model.CombinedGroup, "duration")), func(path string) error {
		return Comparison(path, model.CombinedGroup+" TOTAL - Observed vs Expected Permit Durations by Height", mh, bl, report.ExpectedMean, CityPalette)
	})
}

func (r *renderer) counts(report *pipeline.Report) {
	for _, g := range report.Groups {
		if !g.OK() {
			continue
		}
		mh, bl := g.Distribution.Subtype(model.SubtypeMH), g.Distribution.Subtype(model.SubtypeBL)
		title := fmt.Sprintf("%s - Number of Permits by Height", strings.ToUpper(g.Name))
		r.emit(filepath.Join(r.dir, FileName(g.Name, "counts")), func(path string) error {
			return Counts(path, title, mh, bl, BoroughPalette)
		})
	}
	mh, bl := report.Combined.Subtype(model.SubtypeMH), report.Combined.Subtype(model.SubtypeBL)
	r.emit(filepath.Join(r.dir, FileName(model.CombinedGroup, "counts")), func(path string) error {
		return Counts(path, model.CombinedGroup+" TOTAL - Number of Permits by Height", mh, bl, CityPalette)
	})
}

func (r *renderer) scatter(report *pipeline.Report) {
	for _, g := range report.Groups {
		if !g.OK() {
			continue
		}
		for _, s := range model.Subtypes {
			title := fmt.Sprintf("%s - %s Duration by Job Start Year", strings.ToUpper(g.Name), s)
			records := g.Records
			subtype := s
			r.emit(filepath.Join(r.dir, FileName(g.Name, "scatter_"+strings.ToLower(string(s)))), func(path string) error {
				return Scatter(path, title, records, subtype)
			})
		}
	}
}

func (r *renderer) averages(report *pipeline.Report) {
	var groups []AverageGroup
	for _, g := range report.Groups {
		if !g.OK() {
			continue
		}
		groups = append(groups, AverageGroup{Name: g.Name, Averages: g.Averages})
	}
	groups = append(groups, AverageGroup{Name: model.CombinedGroup, Averages: report.Averages})
	r.emit(filepath.Join(r.dir, "averages.png"), func(path string) error {
		return Averages(path, "Average Permit Duration by Group", groups, BoroughPalette)
	})
}
