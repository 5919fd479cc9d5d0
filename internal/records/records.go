// Package records turns workbook sheets into permit records ready for
// categorization.
package records

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/derive"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/workbook"
)

// Basis selects where a record's duration comes from.
type Basis int

const (
	// BasisGiven reads the precomputed Duration column.
	BasisGiven Basis = iota
	// BasisStart derives Job Start Date to Expiration Date.
	BasisStart
	// BasisIssuance derives Issuance Date to Expiration Date.
	BasisIssuance
)

func (b Basis) String() string {
	switch b {
	case BasisGiven:
		return "given"
	case BasisStart:
		return "start"
	case BasisIssuance:
		return "issuance"
	default:
		return "unknown"
	}
}

// ParseBasis maps a flag value to a Basis.
func ParseBasis(s string) (Basis, error) {
	switch s {
	case "given", "":
		return BasisGiven, nil
	case "start":
		return BasisStart, nil
	case "issuance":
		return BasisIssuance, nil
	default:
		return BasisGiven, fmt.Errorf("%w: duration basis %q", common.ErrInvalidConfig, s)
	}
}

// requiredColumns lists the columns a sheet must carry for the basis.
func (b Basis) requiredColumns() []string {
	switch b {
	case BasisStart:
		return []string{derive.ColSubtype, derive.ColStart, derive.ColExpiration}
	case BasisIssuance:
		return []string{derive.ColSubtype, derive.ColIssuance, derive.ColExpiration}
	default:
		return []string{derive.ColSubtype, derive.ColDuration}
	}
}

// Stats counts why rows were excluded while loading a sheet.
type Stats struct {
	Rows             int
	Loaded           int
	MissingField     int
	UnparsableDate   int
	UnknownSubtype   int
	NegativeDuration int
}

// Excluded returns the number of rows that did not become records.
func (s Stats) Excluded() int {
	return s.Rows - s.Loaded
}

func (s *Stats) count(err error) {
	switch {
	case errors.Is(err, common.ErrUnknownSubtype):
		s.UnknownSubtype++
	case errors.Is(err, common.ErrNegativeDuration):
		s.NegativeDuration++
	case errors.Is(err, common.ErrUnparsableDate):
		s.UnparsableDate++
	default:
		s.MissingField++
	}
}

// Batch is the result of loading one sheet.
type Batch struct {
	Group   string
	Records []model.PermitRecord
	Stats   Stats
}

// Load maps every row of sheet to a permit record, with Group set to the
// sheet name. A sheet missing a required column fails with
// ErrMissingField; row-level failures are counted in Stats.
func Load(sheet workbook.Sheet, basis Basis) (Batch, error) {
	if _, err := sheet.Require(basis.requiredColumns()...); err != nil {
		return Batch{Group: sheet.Name}, err
	}

	l := newLoader(sheet, basis)
	batch := Batch{Group: sheet.Name}
	for i := range sheet.Rows {
		batch.Stats.Rows++
		rec, err := l.record(i)
		if err != nil {
			batch.Stats.count(err)
			continue
		}
		batch.Records = append(batch.Records, rec)
		batch.Stats.Loaded++
	}
	return batch, nil
}

type loader struct {
	sheet workbook.Sheet
	basis Basis
	cols  map[string]int
}

func newLoader(sheet workbook.Sheet, basis Basis) *loader {
	l := &loader{sheet: sheet, basis: basis, cols: make(map[string]int)}
	for _, name := range []string{
		derive.ColSubtype, derive.ColIssuance, derive.ColExpiration,
		derive.ColStart, derive.ColDuration, derive.ColSequence,
	} {
		if col, ok := sheet.Column(name); ok {
			l.cols[name] = col
		}
	}
	return l
}

func (l *loader) cell(row int, name string) string {
	col, ok := l.cols[name]
	if !ok {
		return ""
	}
	return l.sheet.Cell(row, col)
}

// date parses an optional date column; absent or unparsable values are zero.
func (l *loader) date(row int, name string) time.Time {
	t, err := derive.ParseDate(l.cell(row, name))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (l *loader) record(row int) (model.PermitRecord, error) {
	raw := l.cell(row, derive.ColSubtype)
	if raw == "" {
		return model.PermitRecord{}, fmt.Errorf("%w: row %d: subtype", common.ErrMissingField, row+2)
	}
	subtype, ok := model.ParseSubtype(raw)
	if !ok {
		return model.PermitRecord{}, fmt.Errorf("%w: row %d: %q", common.ErrUnknownSubtype, row+2, raw)
	}

	rec := model.PermitRecord{
		Subtype:        subtype,
		Group:          l.sheet.Name,
		Row:            row + 2,
		IssuanceDate:   l.date(row, derive.ColIssuance),
		ExpirationDate: l.date(row, derive.ColExpiration),
		StartDate:      l.date(row, derive.ColStart),
	}

	var err error
	switch l.basis {
	case BasisStart:
		rec.Duration, err = derive.Duration(l.cell(row, derive.ColStart), l.cell(row, derive.ColExpiration))
	case BasisIssuance:
		rec.Duration, err = derive.Duration(l.cell(row, derive.ColIssuance), l.cell(row, derive.ColExpiration))
	default:
		rec.Duration, err = derive.ParseDuration(l.cell(row, derive.ColDuration))
	}
	if err != nil {
		return model.PermitRecord{}, fmt.Errorf("row %d: %w", row+2, err)
	}

	if seq, ok := derive.ParseSequence(l.cell(row, derive.ColSequence)); ok {
		rec.Sequence = seq
	}
	return rec, nil
}
