// Package model defines the permit records and distributions shared by the pipeline.
package model

import (
	"strings"
	"time"
)

// Subtype is the permit work subtype that selects the duration thresholds.
type Subtype string

// Recognized permit subtypes.
const (
	SubtypeMH Subtype = "MH"
	SubtypeBL Subtype = "BL"
)

// Subtypes lists the recognized subtypes in reporting order.
var Subtypes = []Subtype{SubtypeMH, SubtypeBL}

// ParseSubtype trims s and matches it against the recognized subtypes.
func ParseSubtype(s string) (Subtype, bool) {
	switch st := Subtype(strings.TrimSpace(s)); st {
	case SubtypeMH, SubtypeBL:
		return st, true
	default:
		return "", false
	}
}

// CombinedGroup names the pooled whole-population group.
const CombinedGroup = "NYC"

// PermitRecord is a single permit row after duration derivation.
type PermitRecord struct {
	IssuanceDate   time.Time
	ExpirationDate time.Time
	StartDate      time.Time
	Subtype        Subtype
	Group          string // sheet / borough the row came from
	Duration       int    // whole days, never negative
	Sequence       int    // permit sequence starting at 1, 0 when absent
	Row            int    // 1-based row in the source sheet
}

// StartYear returns the year of the job start date, or 0 if unknown.
func (r PermitRecord) StartYear() int {
	if r.StartDate.IsZero() {
		return 0
	}
	return r.StartDate.Year()
}

// HasSequence reports whether the source row carried a permit sequence.
func (r PermitRecord) HasSequence() bool {
	return r.Sequence > 0
}
