// Package export flattens pipeline reports into summaries and writes them
// as workbooks or through a ReportWriter.
package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/pipeline"
	"github.com/Veraticus/permitflow/internal/service"
	"github.com/Veraticus/permitflow/internal/workbook"
	"github.com/shopspring/decimal"
)

// AveragesSheet names the workbook sheet holding mean durations.
const AveragesSheet = "Averages"

// Round rounds v half away from zero to one decimal.
func Round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(1)
}

// BuildSummary flattens a report into one row per (group, subtype,
// category), successful groups first in sheet order and the combined
// group last. Failed sheets are left out.
func BuildSummary(report *pipeline.Report, title, source string, now time.Time) *service.ReportSummary {
	summary := &service.ReportSummary{
		GeneratedAt: now,
		Title:       title,
		Source:      source,
		Mode:        report.Mode.String(),
	}

	for _, g := range report.Groups {
		if !g.OK() {
			continue
		}
		var expected *model.ExpectedRow
		if g.HasExpected() {
			expected = &g.Expected
		}
		summary.Rows = append(summary.Rows, distributionRows(g.Name, g.Distribution, expected)...)
		summary.Averages = append(summary.Averages, averageRows(g.Name, g.Averages)...)
	}

	var expected *model.ExpectedRow
	if report.HasExpected {
		expected = &report.ExpectedMean
	}
	summary.Rows = append(summary.Rows, distributionRows(model.CombinedGroup, report.Combined, expected)...)
	summary.Averages = append(summary.Averages, averageRows(model.CombinedGroup, report.Averages)...)
	return summary
}

func distributionRows(group string, gd model.GroupDistribution, expected *model.ExpectedRow) []service.SummaryRow {
	rows := make([]service.SummaryRow, 0, len(model.Subtypes)*model.NumCategories)
	for _, s := range model.Subtypes {
		d := gd.Subtype(s)
		for _, c := range model.Categories {
			row := service.SummaryRow{
				Group:    group,
				Subtype:  string(s),
				Category: c.String(),
				Count:    d.Count(c),
				Percent:  Round(d.Share(c)),
			}
			if expected != nil {
				row.Expected = decimal.NewNullDecimal(Round(expected[c]))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func averageRows(group string, averages map[model.Subtype]model.Average) []service.AverageRow {
	var rows []service.AverageRow
	for _, s := range model.Subtypes {
		avg, ok := averages[s]
		if !ok || avg.Count == 0 {
			continue
		}
		rows = append(rows, service.AverageRow{
			Group:   group,
			Subtype: string(s),
			Mean:    Round(avg.Mean),
			Count:   avg.Count,
		})
	}
	return rows
}

// Workbook lays summaries out as sheets: one distribution sheet per
// summary, named after its mode, followed by the averages of the first
// summary that has any.
func Workbook(summaries ...*service.ReportSummary) *workbook.Workbook {
	wb := &workbook.Workbook{}
	var averages []service.AverageRow
	for _, s := range summaries {
		if s == nil {
			continue
		}
		sheet := workbook.Sheet{
			Name:   sheetName(s.Mode),
			Header: []string{"Group", "Subtype", "Category", "Count", "Percent", "Expected"},
		}
		for _, r := range s.Rows {
			expected := ""
			if r.Expected.Valid {
				expected = r.Expected.Decimal.StringFixed(1)
			}
			sheet.Rows = append(sheet.Rows, []string{
				r.Group, r.Subtype, r.Category, strconv.Itoa(r.Count), r.Percent.StringFixed(1), expected,
			})
		}
		wb.Sheets = append(wb.Sheets, sheet)
		if averages == nil && len(s.Averages) > 0 {
			averages = s.Averages
		}
	}

	if len(averages) > 0 {
		sheet := workbook.Sheet{Name: AveragesSheet, Header: []string{"Group", "Subtype", "Mean Duration", "Permits"}}
		for _, a := range averages {
			sheet.Rows = append(sheet.Rows, []string{a.Group, a.Subtype, a.Mean.StringFixed(1), strconv.Itoa(a.Count)})
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb
}

func sheetName(mode string) string {
	if mode == "" {
		return "Summary"
	}
	return "Summary " + mode
}

// WriteWorkbook saves summaries to an xlsx file at path.
func WriteWorkbook(path string, summaries ...*service.ReportSummary) error {
	if err := workbook.Write(path, Workbook(summaries...)); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}
	return nil
}

// Push sends each summary through w in order, stopping at the first failure.
func Push(ctx context.Context, w service.ReportWriter, summaries ...*service.ReportSummary) error {
	for _, s := range summaries {
		if err := w.Write(ctx, s); err != nil {
			return fmt.Errorf("failed to push %s summary: %w", s.Mode, err)
		}
	}
	return nil
}
