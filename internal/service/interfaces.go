// Package service defines the interfaces shared by the permit commands.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/permitflow/internal/model"
	"github.com/shopspring/decimal"
)

// PermitFilter defines filtering options for permit queries. Zero values
// leave a dimension unfiltered.
type PermitFilter struct {
	Category     *model.HeightCategory
	WorkType     model.Subtype
	Region       string // matched case-insensitively against the group
	BatchID      string
	MinStartYear int
	Limit        int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Permit operations
	SaveImport(ctx context.Context, batch *model.ImportBatch, permits []model.StoredPermit) error
	GetPermits(ctx context.Context, filter PermitFilter) ([]model.StoredPermit, error)
	CountPermits(ctx context.Context, filter PermitFilter) (int, error)

	// Import batch operations
	GetImportBatches(ctx context.Context) ([]model.ImportBatch, error)
	GetImportBatch(ctx context.Context, id string) (*model.ImportBatch, error)
	DeleteImportBatch(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter defines the contract for report generation.
type ReportWriter interface {
	Write(ctx context.Context, summary *ReportSummary) error
}

// ReportSummary is a flattened distribution report ready for export.
type ReportSummary struct {
	GeneratedAt time.Time
	Title       string
	Source      string
	Mode        string
	Rows        []SummaryRow
	Averages    []AverageRow
}

// SummaryRow is one (group, subtype, category) cell of a report.
type SummaryRow struct {
	Group    string
	Subtype  string
	Category string
	Percent  decimal.Decimal
	Expected decimal.NullDecimal
	Count    int
}

// AverageRow is the mean duration of one subtype within a group.
type AverageRow struct {
	Group   string
	Subtype string
	Mean    decimal.Decimal
	Count   int
}
