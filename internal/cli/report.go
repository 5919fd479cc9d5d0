package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/permitflow/internal/aggregate"
	"github.com/Veraticus/permitflow/internal/estimate"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
)

// Table renders columns of cells with a bold underlined header row.
func Table(header []string, rows [][]string) string {
	columns := make([]string, len(header))
	for c, h := range header {
		cells := make([]string, 0, len(rows)+1)
		cells = append(cells, TableHeaderStyle.Render(h))
		for _, row := range rows {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			cells = append(cells, cell)
		}
		align := lipgloss.Right
		if c == 0 {
			align = lipgloss.Left
		}
		columns[c] = TableCellStyle.Render(lipgloss.JoinVertical(align, cells...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// DistributionTable lays a group distribution out with one row per height
// category. Count mode shows "n (p%)"; proportion mode shows the share.
// The expected column is only present when expected is non-nil.
func DistributionTable(gd model.GroupDistribution, mode aggregate.Mode, expected *model.ExpectedRow, dark bool) string {
	mhStyle := lipgloss.NewStyle().Foreground(LightMHColor)
	blStyle := lipgloss.NewStyle().Foreground(LightBLColor)
	if dark {
		mhStyle = mhStyle.Foreground(DarkMHColor)
		blStyle = blStyle.Foreground(DarkBLColor)
	}

	header := []string{"Height", mhStyle.Render("MH"), blStyle.Render("BL")}
	if expected != nil {
		header = append(header, "Expected")
	}

	mh, bl := gd.Subtype(model.SubtypeMH), gd.Subtype(model.SubtypeBL)
	rows := make([][]string, 0, model.NumCategories+1)
	for _, c := range model.Categories {
		row := []string{c.String(), cellText(mh, c, mode), cellText(bl, c, mode)}
		if expected != nil {
			row = append(row, percent(expected[c]))
		}
		rows = append(rows, row)
	}
	total := []string{BoldStyle.Render("Total"), strconv.Itoa(mh.Total), strconv.Itoa(bl.Total)}
	if expected != nil {
		total = append(total, "")
	}
	rows = append(rows, total)
	return Table(header, rows)
}

func cellText(d model.Distribution, c model.HeightCategory, mode aggregate.Mode) string {
	if mode == aggregate.ModeCount {
		return fmt.Sprintf("%d (%s)", d.Count(c), percent(d.Share(c)))
	}
	return percent(d.Share(c))
}

func percent(v float64) string {
	return strconv.FormatFloat(aggregate.Round1(v), 'f', 1, 64) + "%"
}

// AveragesLine summarizes mean durations per subtype.
func AveragesLine(averages map[model.Subtype]model.Average) string {
	parts := make([]string, 0, len(model.Subtypes))
	for _, s := range model.Subtypes {
		avg, ok := averages[s]
		if !ok || avg.Count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.1f days (n=%d)", s, avg.Mean, avg.Count))
	}
	if len(parts) == 0 {
		return SubtleStyle.Render("No durations")
	}
	return "Mean duration: " + strings.Join(parts, ", ")
}

// RenderReport writes every group of a pipeline report followed by the
// combined distribution. Failed sheets are listed as warnings.
func RenderReport(w io.Writer, report *pipeline.Report) error {
	var b strings.Builder
	for _, g := range report.Groups {
		if !g.OK() {
			b.WriteString(FormatWarning(fmt.Sprintf("%s skipped: %v", g.Name, g.Err)) + "\n")
			continue
		}
		var expected *model.ExpectedRow
		if g.HasExpected() {
			expected = &g.Expected
		}
		title := g.Name
		if g.Distribution.Empty() {
			title += " (no permits)"
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			DistributionTable(g.Distribution, report.Mode, expected, false),
			"",
			AveragesLine(g.Averages),
			SubtleStyle.Render(statsLine(g)),
		)
		b.WriteString(RenderBox(title, content) + "\n")
	}

	var expected *model.ExpectedRow
	if report.HasExpected {
		expected = &report.ExpectedMean
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		DistributionTable(report.Combined, report.Mode, expected, true),
		"",
		AveragesLine(report.Averages),
	)
	b.WriteString(RenderDarkBox(model.CombinedGroup+" TOTAL", content) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func statsLine(g pipeline.GroupResult) string {
	s := g.Stats
	return fmt.Sprintf("%d rows, %d loaded, %d excluded (missing %d, bad date %d, unknown subtype %d, negative %d)",
		s.Rows, s.Loaded, s.Excluded(), s.MissingField, s.UnparsableDate, s.UnknownSubtype, s.NegativeDuration)
}

// RenderEstimate writes the outcome of an estimate run.
func RenderEstimate(w io.Writer, r *estimate.Result) error {
	var lines []string

	lines = append(lines, fmt.Sprintf("Work type: %s   Region: %s   Height: %s",
		r.Features.WorkType, r.Features.Region, r.Features.HeightCategory()))
	if r.Request.RecentYears > 0 {
		lines = append(lines, fmt.Sprintf("Permits from the last %d years", r.Request.RecentYears))
	}
	lines = append(lines, fmt.Sprintf("Dataset: %d permits", r.Dataset), "")

	if r.PredictionErr != nil {
		lines = append(lines, FormatWarning("Prediction unavailable: "+r.PredictionErr.Error()))
	} else {
		lines = append(lines,
			fmt.Sprintf("Predicted duration: %s days", BoldStyle.Render(fmt.Sprintf("%.0f", r.Prediction.Duration))),
		)
		if r.Prediction.Sequence > 0 {
			lines = append(lines, fmt.Sprintf("Predicted sequence: %d", r.Prediction.Sequence))
		}
	}

	d := r.Duration
	lines = append(lines, "",
		fmt.Sprintf("Mean duration: %.1f days (std %.1f)", d.Mean, d.StdDev),
		fmt.Sprintf("5th percentile: %.1f days", d.P5),
		fmt.Sprintf("95th percentile: %.1f days", d.P95),
		fmt.Sprintf("P(duration > %d days): %.1f%%", r.Request.Threshold, r.ExceedProbability),
	)
	if r.Sequenced > 0 {
		lines = append(lines, fmt.Sprintf("P(sequence >= %d): %.1f%% (%d permits with a sequence)",
			estimate.RenewalSequence, r.Sequence.RenewalProbability, r.Sequenced))
	} else {
		lines = append(lines, FormatWarning("No permit sequences in the dataset"))
	}
	lines = append(lines, SubtleStyle.Render(fmt.Sprintf("%d of %d draws kept", d.Kept, r.Request.Samples)))

	_, err := fmt.Fprintln(w, RenderBox(ChartIcon+" Permit Estimate", strings.Join(lines, "\n")))
	return err
}
