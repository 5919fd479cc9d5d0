// Package selection narrows permit sheets to the rows of interest, such as
// residential HVAC alteration permits that were actually issued.
package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/workbook"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// rowColumn carries each row's source index through the dataframe.
const rowColumn = "__row"

// Rule keeps rows whose Column equals one of Values.
type Rule struct {
	Column string   `mapstructure:"column" validate:"required"`
	Values []string `mapstructure:"values" validate:"required,min=1,dive,required"`
}

// Criteria is a conjunction of rules.
type Criteria struct {
	Rules []Rule `mapstructure:"rules" validate:"required,min=1,dive"`
}

// DefaultCriteria selects issued residential A2 permits for boiler and
// mechanical HVAC work in type 2 buildings.
func DefaultCriteria() Criteria {
	return Criteria{Rules: []Rule{
		{Column: "Job Type", Values: []string{"A2"}},
		{Column: "Bldg Type", Values: []string{"2"}},
		{Column: "Residential", Values: []string{"YES"}},
		{Column: "Work Type", Values: []string{"BL", "MH"}},
		{Column: "Permit Status", Values: []string{"ISSUED", "RE-ISSUED"}},
	}}
}

// Columns returns the columns the criteria read.
func (c Criteria) Columns() []string {
	cols := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		cols[i] = r.Column
	}
	return cols
}

func (c Criteria) filters() []dataframe.F {
	filters := make([]dataframe.F, 0, len(c.Rules))
	for _, r := range c.Rules {
		if len(r.Values) == 1 {
			filters = append(filters, dataframe.F{Colname: r.Column, Comparator: series.Eq, Comparando: r.Values[0]})
			continue
		}
		filters = append(filters, dataframe.F{Colname: r.Column, Comparator: series.In, Comparando: r.Values})
	}
	return filters
}

// Select returns a copy of sheet holding only the rows matching every
// rule, in source order. A sheet missing a rule column fails with
// ErrMissingField.
func Select(sheet workbook.Sheet, criteria Criteria) (workbook.Sheet, error) {
	cols, err := sheet.Require(criteria.Columns()...)
	if err != nil {
		return workbook.Sheet{}, err
	}
	if len(sheet.Rows) == 0 || len(criteria.Rules) == 0 {
		return sheet.WithRows(sheet.Rows), nil
	}

	df := dataframe.LoadRecords(
		frameRecords(sheet, criteria.Columns(), cols),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.HasHeader(true),
	)
	if df.Err != nil {
		return workbook.Sheet{}, fmt.Errorf("failed to load sheet %q: %w", sheet.Name, df.Err)
	}

	selected := df.FilterAggregation(dataframe.And, criteria.filters()...)
	if selected.Err != nil {
		return workbook.Sheet{}, fmt.Errorf("failed to filter sheet %q: %w", sheet.Name, selected.Err)
	}

	var kept [][]string
	for _, v := range selected.Col(rowColumn).Records() {
		i, err := strconv.Atoi(v)
		if err != nil {
			return workbook.Sheet{}, fmt.Errorf("bad row index %q: %w", v, err)
		}
		kept = append(kept, sheet.Rows[i])
	}
	return sheet.WithRows(kept), nil
}

// frameRecords builds the dataframe input: the row index plus the trimmed
// rule columns, every row padded to full width.
func frameRecords(sheet workbook.Sheet, names []string, cols []int) [][]string {
	records := make([][]string, 0, len(sheet.Rows)+1)
	header := append([]string{rowColumn}, names...)
	records = append(records, header)
	for i := range sheet.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(i))
		for _, col := range cols {
			rec = append(rec, sheet.Cell(i, col))
		}
		records = append(records, rec)
	}
	return records
}

// Result is the outcome of selecting over a whole workbook.
type Result struct {
	Workbook *workbook.Workbook
	Kept     map[string]int
	Skipped  map[string]error
}

// SelectWorkbook applies Select to every sheet. Sheets that cannot be
// filtered are left out and reported in Skipped.
func SelectWorkbook(wb *workbook.Workbook, criteria Criteria) Result {
	res := Result{
		Workbook: &workbook.Workbook{},
		Kept:     make(map[string]int),
		Skipped:  make(map[string]error),
	}
	for _, s := range wb.Sheets {
		out, err := Select(s, criteria)
		if err != nil {
			res.Skipped[s.Name] = err
			continue
		}
		res.Kept[s.Name] = len(out.Rows)
		res.Workbook.Sheets = append(res.Workbook.Sheets, out)
	}
	return res
}

// Validate checks that every rule names a column and at least one value.
func (c Criteria) Validate() error {
	if len(c.Rules) == 0 {
		return fmt.Errorf("%w: selection has no rules", common.ErrInvalidConfig)
	}
	seen := make(map[string]bool)
	for _, r := range c.Rules {
		name := strings.TrimSpace(r.Column)
		if name == "" {
			return fmt.Errorf("%w: selection rule without column", common.ErrInvalidConfig)
		}
		if len(r.Values) == 0 {
			return fmt.Errorf("%w: selection rule %q has no values", common.ErrInvalidConfig, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate selection rule %q", common.ErrInvalidConfig, name)
		}
		seen[name] = true
	}
	return nil
}
