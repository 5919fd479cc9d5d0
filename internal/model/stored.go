package model

import "time"

// StoredPermit is a permit record persisted by an import, with its
// height category resolved at import time.
type StoredPermit struct {
	PermitRecord
	BatchID  string
	Category HeightCategory
	ID       int64
}

// ImportBatch describes one workbook import.
type ImportBatch struct {
	ImportedAt time.Time
	ID         string
	Source     string // workbook path the permits came from
	Basis      string // duration basis used while loading
	Permits    int
}
