package derive

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/workbook"
)

// Column names used by the derivation steps.
const (
	ColSubtype    = "Permit Subtype"
	ColIssuance   = "Issuance Date"
	ColExpiration = "Expiration Date"
	ColStart      = "Job Start Date"
	ColDuration   = "Duration"
	ColJobFinish  = "Job Finish"
	ColSequence   = "Permit Sequence"
)

// Completion statuses written to the Job Finish column.
const (
	StatusCompleted    = "COMPLETED"
	StatusNotCompleted = "NOT COMPLETED"
)

// DefaultCutoffYear is the first expiration year treated as still open.
const DefaultCutoffYear = 2025

// CompletionStatus classifies a permit by its expiration year.
func CompletionStatus(expiration time.Time, cutoffYear int) string {
	if expiration.Year() >= cutoffYear {
		return StatusNotCompleted
	}
	return StatusCompleted
}

// Complete adds Duration (Job Start Date to Expiration Date, in days) and
// Job Finish columns. Rows whose dates do not parse get empty cells. A
// sheet missing either date column fails with ErrMissingField.
func Complete(sheet workbook.Sheet, cutoffYear int) (workbook.Sheet, error) {
	cols, err := sheet.Require(ColExpiration, ColStart)
	if err != nil {
		return workbook.Sheet{}, err
	}
	expCol, startCol := cols[0], cols[1]

	durations := make([]string, len(sheet.Rows))
	finish := make([]string, len(sheet.Rows))
	for i := range sheet.Rows {
		exp, expErr := ParseDate(sheet.Cell(i, expCol))
		if expErr == nil {
			finish[i] = CompletionStatus(exp, cutoffYear)
		}
		start, startErr := ParseDate(sheet.Cell(i, startCol))
		if expErr == nil && startErr == nil {
			durations[i] = strconv.Itoa(Days(start, exp))
		}
	}

	return sheet.SetColumn(ColDuration, durations).SetColumn(ColJobFinish, finish), nil
}

// DefaultLimits are the longest plausible durations kept by Clean.
func DefaultLimits() map[model.Subtype]int {
	return map[model.Subtype]int{
		model.SubtypeMH: 271,
		model.SubtypeBL: 181,
	}
}

// Clean keeps rows with a recognized subtype and a duration within
// [0, limit] for that subtype. Kept rows are grouped by subtype in
// reporting order, preserving source order within each subtype.
func Clean(sheet workbook.Sheet, limits map[model.Subtype]int) (workbook.Sheet, error) {
	cols, err := sheet.Require(ColSubtype, ColDuration)
	if err != nil {
		return workbook.Sheet{}, err
	}
	subtypeCol, durationCol := cols[0], cols[1]

	bySubtype := make(map[model.Subtype][][]string)
	for i, row := range sheet.Rows {
		subtype, ok := model.ParseSubtype(sheet.Cell(i, subtypeCol))
		if !ok {
			continue
		}
		limit, ok := limits[subtype]
		if !ok {
			continue
		}
		days, err := ParseDuration(sheet.Cell(i, durationCol))
		if err != nil || days > limit {
			continue
		}
		bySubtype[subtype] = append(bySubtype[subtype], normalizeSubtype(row, subtypeCol, subtype))
	}

	var kept [][]string
	for _, s := range model.Subtypes {
		kept = append(kept, bySubtype[s]...)
	}
	return sheet.WithRows(kept), nil
}

func normalizeSubtype(row []string, col int, subtype model.Subtype) []string {
	cp := make([]string, len(row))
	copy(cp, row)
	cp[col] = string(subtype)
	return cp
}

// CompleteWorkbook runs Complete over every sheet. Sheets lacking the
// date columns are left out of the result and reported in skipped.
func CompleteWorkbook(wb *workbook.Workbook, cutoffYear int) (*workbook.Workbook, map[string]error) {
	out := &workbook.Workbook{}
	skipped := make(map[string]error)
	for _, s := range wb.Sheets {
		done, err := Complete(s, cutoffYear)
		if err != nil {
			skipped[s.Name] = err
			continue
		}
		out.Sheets = append(out.Sheets, done)
	}
	return out, skipped
}

// CleanWorkbook runs Clean over every sheet, skipping sheets without the
// subtype or duration columns.
func CleanWorkbook(wb *workbook.Workbook, limits map[model.Subtype]int) (*workbook.Workbook, map[string]error) {
	out := &workbook.Workbook{}
	skipped := make(map[string]error)
	for _, s := range wb.Sheets {
		cleaned, err := Clean(s, limits)
		if err != nil {
			skipped[s.Name] = err
			continue
		}
		out.Sheets = append(out.Sheets, cleaned)
	}
	return out, skipped
}

// ValidateLimits rejects negative duration limits.
func ValidateLimits(limits map[model.Subtype]int) error {
	for s, l := range limits {
		if l < 0 {
			return fmt.Errorf("%w: clean limit for %s is negative", common.ErrInvalidConfig, s)
		}
	}
	return nil
}
