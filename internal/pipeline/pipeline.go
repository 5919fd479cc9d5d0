// Package pipeline runs the load, categorize and aggregate steps over a
// whole workbook, one group per sheet.
package pipeline

import (
	"log/slog"
	"sort"

	"github.com/Veraticus/permitflow/internal/aggregate"
	"github.com/Veraticus/permitflow/internal/categorize"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/records"
	"github.com/Veraticus/permitflow/internal/workbook"
)

// Options configures a pipeline run.
type Options struct {
	Aggregator *aggregate.Aggregator
	Expected   *model.ExpectedTable
	Basis      records.Basis
	// OnSheet, when set, is called after each sheet is processed.
	OnSheet func(name string)
}

// GroupResult is the outcome for one sheet.
type GroupResult struct {
	Name         string
	Distribution model.GroupDistribution
	Averages     map[model.Subtype]model.Average
	Stats        records.Stats
	Records      []model.PermitRecord
	// Region is the canonical expected-table region matching Name.
	Region   string
	Expected model.ExpectedRow
	Err      error
}

// HasExpected reports whether the group matched a known region.
func (g GroupResult) HasExpected() bool {
	return g.Region != ""
}

// OK reports whether the sheet was aggregated.
func (g GroupResult) OK() bool {
	return g.Err == nil
}

// Report is the result of a pipeline run.
type Report struct {
	Mode     aggregate.Mode
	Groups   []GroupResult
	Combined model.GroupDistribution
	Averages map[model.Subtype]model.Average
	// ExpectedMean is the unweighted mean of all expected regions.
	ExpectedMean model.ExpectedRow
	HasExpected  bool
}

// Group returns the result for the named sheet.
func (r *Report) Group(name string) (GroupResult, bool) {
	for _, g := range r.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupResult{}, false
}

// Failed returns the groups that could not be aggregated.
func (r *Report) Failed() []GroupResult {
	var out []GroupResult
	for _, g := range r.Groups {
		if !g.OK() {
			out = append(out, g)
		}
	}
	return out
}

// Records returns the loaded records of every successful group, in sheet order.
func (r *Report) Records() []model.PermitRecord {
	var out []model.PermitRecord
	for _, g := range r.Groups {
		out = append(out, g.Records...)
	}
	return out
}

// StoredPermits resolves the height category of every loaded record for
// persistence under batchID. Records the categorizer rejects are left out.
func (r *Report) StoredPermits(c *categorize.Categorizer, batchID string) []model.StoredPermit {
	if c == nil {
		c = categorize.Default()
	}
	var out []model.StoredPermit
	for _, rec := range r.Records() {
		category, ok := c.Categorize(rec.Subtype, rec.Duration)
		if !ok {
			continue
		}
		out = append(out, model.StoredPermit{PermitRecord: rec, BatchID: batchID, Category: category})
	}
	return out
}

// Run aggregates every sheet of wb. A sheet that cannot be loaded is
// logged and recorded in its GroupResult; the remaining sheets still run.
func Run(wb *workbook.Workbook, opts Options) *Report {
	agg := opts.Aggregator
	if agg == nil {
		agg = aggregate.New(nil, aggregate.ModeProportion)
	}

	report := &Report{Mode: agg.Mode()}
	pooled := make(map[string][]model.PermitRecord)

	for _, sheet := range wb.Sheets {
		g := runSheet(sheet, agg, opts)
		if g.OK() {
			pooled[g.Name] = g.Records
		}
		report.Groups = append(report.Groups, g)
		if opts.OnSheet != nil {
			opts.OnSheet(sheet.Name)
		}
	}

	report.Combined = agg.Combined(pooled)
	report.Averages = aggregate.Averages(flatten(pooled))
	if opts.Expected != nil {
		report.ExpectedMean = opts.Expected.Mean()
		report.HasExpected = true
	}

	slog.Info("Aggregated workbook",
		"sheets", len(wb.Sheets),
		"failed", len(report.Failed()),
		"records", report.Combined.Total(),
		"mode", report.Mode.String())
	return report
}

func runSheet(sheet workbook.Sheet, agg *aggregate.Aggregator, opts Options) GroupResult {
	g := GroupResult{Name: sheet.Name}
	if opts.Expected != nil {
		if region, row, ok := opts.Expected.Lookup(sheet.Name); ok {
			g.Region, g.Expected = region, row
		}
	}

	batch, err := records.Load(sheet, opts.Basis)
	if err != nil {
		slog.Warn("Skipping sheet", "group", sheet.Name, "error", err)
		g.Err = err
		return g
	}

	g.Records = batch.Records
	g.Stats = batch.Stats
	g.Distribution = agg.Group(sheet.Name, batch.Records)
	g.Averages = aggregate.Averages(batch.Records)
	if batch.Stats.Excluded() > 0 {
		slog.Debug("Excluded rows",
			"group", sheet.Name,
			"excluded", batch.Stats.Excluded(),
			"unknown_subtype", batch.Stats.UnknownSubtype,
			"negative_duration", batch.Stats.NegativeDuration,
			"unparsable", batch.Stats.UnparsableDate,
			"missing", batch.Stats.MissingField)
	}
	if g.Distribution.Empty() {
		slog.Debug("Empty group", "group", sheet.Name)
	}
	return g
}

func flatten(groups map[string][]model.PermitRecord) []model.PermitRecord {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []model.PermitRecord
	for _, name := range names {
		out = append(out, groups[name]...)
	}
	return out
}
