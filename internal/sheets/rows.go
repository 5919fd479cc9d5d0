package sheets

import (
	"github.com/Veraticus/permitflow/internal/service"
)

var distributionHeader = []any{"Group", "Subtype", "Category", "Count", "Percent", "Expected"}

// PrepareReportData lays a summary out as sheet rows: a title block, the
// distribution table, then average durations.
func PrepareReportData(summary *service.ReportSummary) [][]any {
	values := make([][]any, 0, len(summary.Rows)+len(summary.Averages)+8)

	values = append(values,
		[]any{summary.Title, summary.GeneratedAt.Format("Jan 2, 2006 15:04")},
		[]any{"Source", summary.Source},
		[]any{"Mode", summary.Mode},
		[]any{},
		distributionHeader,
	)

	for _, r := range summary.Rows {
		var expected any = ""
		if r.Expected.Valid {
			expected = r.Expected.Decimal.InexactFloat64()
		}
		values = append(values, []any{
			r.Group,
			r.Subtype,
			r.Category,
			r.Count,
			r.Percent.InexactFloat64(),
			expected,
		})
	}

	if len(summary.Averages) == 0 {
		return values
	}

	values = append(values,
		[]any{},
		[]any{"Group", "Subtype", "Mean Duration", "Permits"},
	)
	for _, a := range summary.Averages {
		values = append(values, []any{a.Group, a.Subtype, a.Mean.InexactFloat64(), a.Count})
	}
	return values
}
