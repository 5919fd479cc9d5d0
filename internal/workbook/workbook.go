// Package workbook reads and writes permit spreadsheets as header + string
// rows per sheet.
package workbook

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Workbook is an ordered list of sheets.
type Workbook struct {
	Sheets []Sheet
}

// Column returns the index of the header named name. Surrounding
// whitespace in header cells is ignored.
func (s Sheet) Column(name string) (int, bool) {
	for i, h := range s.Header {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	return -1, false
}

// Require returns the indexes of all named columns, or ErrMissingField
// naming the first absent one.
func (s Sheet) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		col, ok := s.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: sheet %q has no %q column", common.ErrMissingField, s.Name, name)
		}
		idx[i] = col
	}
	return idx, nil
}

// Cell returns the trimmed value at row/col; short rows read as empty.
func (s Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(s.Rows[row][col])
}

// WithRows returns a copy of the sheet holding rows.
func (s Sheet) WithRows(rows [][]string) Sheet {
	header := make([]string, len(s.Header))
	copy(header, s.Header)
	return Sheet{Name: s.Name, Header: header, Rows: rows}
}

// SetColumn returns a copy of the sheet with column name set to values,
// appending the column when it does not exist yet.
func (s Sheet) SetColumn(name string, values []string) Sheet {
	out := s.WithRows(make([][]string, len(s.Rows)))
	col, ok := out.Column(name)
	if !ok {
		out.Header = append(out.Header, name)
		col = len(out.Header) - 1
	}
	for i, row := range s.Rows {
		width := len(row)
		if width < len(out.Header) {
			width = len(out.Header)
		}
		cp := make([]string, width)
		copy(cp, row)
		if i < len(values) {
			cp[col] = values[i]
		}
		out.Rows[i] = cp
	}
	return out
}

// Sheet returns the sheet named name.
func (w *Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// Names returns the sheet names in order.
func (w *Workbook) Names() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// Read loads every sheet of the workbook at path. Cells are read as raw
// values so dates arrive either as text or as Excel serial numbers.
func Read(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", path, common.ErrEmptyWorkbook)
	}

	wb := &Workbook{Sheets: make([]Sheet, 0, len(names))}
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		sheet := Sheet{Name: name}
		if len(rows) > 0 {
			sheet.Header = rows[0]
			sheet.Rows = rows[1:]
		}
		slog.Debug("Read sheet", "sheet", name, "rows", len(sheet.Rows))
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

// Write saves the workbook to path, one worksheet per sheet in order.
func Write(path string, wb *Workbook) error {
	if wb == nil || len(wb.Sheets) == 0 {
		return common.ErrEmptyWorkbook
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	defaultSheet := f.GetSheetName(0)
	for i, s := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", s.Name, err)
		}
		if err := writeRows(f, s); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, s Sheet) error {
	all := make([][]string, 0, len(s.Rows)+1)
	all = append(all, s.Header)
	all = append(all, s.Rows...)

	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+1, s.Name, err)
		}
	}
	return nil
}
