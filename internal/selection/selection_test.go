package selection

import (
	"testing"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permitSheet(name string, rows ...[]string) workbook.Sheet {
	return workbook.Sheet{
		Name:   name,
		Header: []string{"Job Type", "Bldg Type", "Residential", "Work Type", "Permit Status", "Permit Subtype"},
		Rows:   rows,
	}
}

func TestSelect(t *testing.T) {
	sheet := permitSheet("Manhattan",
		[]string{"A2", "2", "YES", "MH", "ISSUED", "MH"},
		[]string{"A1", "2", "YES", "MH", "ISSUED", "MH"},
		[]string{"A2", "1", "YES", "BL", "ISSUED", "BL"},
		[]string{"A2", "2", "NO", "BL", "ISSUED", "BL"},
		[]string{"A2", "2", "YES", "PL", "ISSUED", "PL"},
		[]string{"A2", "2", "YES", "BL", "RE-ISSUED", "BL"},
		[]string{"A2", "2", "YES", "BL", "REVOKED", "BL"},
		[]string{"A2", "2", "YES"},
		[]string{" A2 ", "2", "YES", "BL", "ISSUED", "BL"},
	)

	out, err := Select(sheet, DefaultCriteria())
	require.NoError(t, err)
	assert.Equal(t, "Manhattan", out.Name)
	assert.Equal(t, sheet.Header, out.Header)
	assert.Equal(t, [][]string{
		{"A2", "2", "YES", "MH", "ISSUED", "MH"},
		{"A2", "2", "YES", "BL", "RE-ISSUED", "BL"},
		{" A2 ", "2", "YES", "BL", "ISSUED", "BL"},
	}, out.Rows)
}

func TestSelect_RuleOrderIrrelevant(t *testing.T) {
	sheet := permitSheet("Queens",
		[]string{"A2", "2", "YES", "MH", "ISSUED", "MH"},
		[]string{"A2", "2", "YES", "BL", "REVOKED", "BL"},
	)

	c := DefaultCriteria()
	reversed := Criteria{}
	for i := len(c.Rules) - 1; i >= 0; i-- {
		reversed.Rules = append(reversed.Rules, c.Rules[i])
	}

	a, err := Select(sheet, c)
	require.NoError(t, err)
	b, err := Select(sheet, reversed)
	require.NoError(t, err)
	assert.Equal(t, a.Rows, b.Rows)
	assert.Len(t, a.Rows, 1)
}

func TestSelect_NoMatchesAndEmpty(t *testing.T) {
	out, err := Select(permitSheet("Bronx", []string{"A1", "1", "NO", "PL", "REVOKED", "PL"}), DefaultCriteria())
	require.NoError(t, err)
	assert.Empty(t, out.Rows)

	out, err = Select(permitSheet("Bronx"), DefaultCriteria())
	require.NoError(t, err)
	assert.Empty(t, out.Rows)
}

func TestSelect_MissingColumn(t *testing.T) {
	sheet := workbook.Sheet{Name: "Notes", Header: []string{"Job Type"}, Rows: [][]string{{"A2"}}}
	_, err := Select(sheet, DefaultCriteria())
	assert.ErrorIs(t, err, common.ErrMissingField)
}

func TestSelectWorkbook(t *testing.T) {
	wb := &workbook.Workbook{Sheets: []workbook.Sheet{
		permitSheet("Brooklyn", []string{"A2", "2", "YES", "BL", "ISSUED", "BL"}),
		{Name: "Notes", Header: []string{"Comment"}},
		permitSheet("Staten Island"),
	}}

	res := SelectWorkbook(wb, DefaultCriteria())
	assert.Equal(t, []string{"Brooklyn", "Staten Island"}, res.Workbook.Names())
	assert.Equal(t, map[string]int{"Brooklyn": 1, "Staten Island": 0}, res.Kept)
	require.Contains(t, res.Skipped, "Notes")
	assert.ErrorIs(t, res.Skipped["Notes"], common.ErrMissingField)
}

func TestCriteria_Validate(t *testing.T) {
	require.NoError(t, DefaultCriteria().Validate())

	tests := []Criteria{
		{},
		{Rules: []Rule{{Column: "", Values: []string{"x"}}}},
		{Rules: []Rule{{Column: "Job Type"}}},
		{Rules: []Rule{{Column: "Job Type", Values: []string{"A2"}}, {Column: "Job Type", Values: []string{"A1"}}}},
	}
	for _, c := range tests {
		assert.ErrorIs(t, c.Validate(), common.ErrInvalidConfig)
	}
}
