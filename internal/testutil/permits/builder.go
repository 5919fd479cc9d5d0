// Package permits provides fixture permits for tests. It offers a fluent
// API for describing the stored permits a test needs.
//
// Example usage:
//
//	permits := permits.NewBuilder(t).
//		WithFixture(permits.FixtureManhattan).
//		WithPermit("BROOKLYN", model.SubtypeBL, 45).
//		Build()
//
//	db := testutil.SetupTestDB(t, permits)
package permits

import (
	"testing"
	"time"

	"github.com/Veraticus/permitflow/internal/categorize"
	"github.com/Veraticus/permitflow/internal/model"
)

// DefaultBatchID is the import batch fixture permits belong to.
const DefaultBatchID = "test-batch"

// Builder constructs stored permits with their categories resolved.
type Builder struct {
	t           *testing.T
	categorizer *categorize.Categorizer
	start       time.Time
	batchID     string
	permits     []model.StoredPermit
}

// NewBuilder creates a builder using the default height thresholds.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{
		t:           t,
		categorizer: categorize.Default(),
		start:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		batchID:     DefaultBatchID,
	}
}

// WithBatch sets the batch ID of permits added afterwards.
func (b *Builder) WithBatch(id string) *Builder {
	b.batchID = id
	return b
}

// WithStart sets the job start date of permits added afterwards.
func (b *Builder) WithStart(start time.Time) *Builder {
	b.start = start
	return b
}

// WithPermit adds one permit with sequence 1.
func (b *Builder) WithPermit(group string, subtype model.Subtype, duration int) *Builder {
	return b.WithSequence(group, subtype, duration, 1)
}

// WithSequence adds one permit with the given permit sequence.
func (b *Builder) WithSequence(group string, subtype model.Subtype, duration, sequence int) *Builder {
	b.t.Helper()
	category, ok := b.categorizer.Categorize(subtype, duration)
	if !ok {
		b.t.Fatalf("cannot categorize %s permit of %d days", subtype, duration)
	}
	b.permits = append(b.permits, model.StoredPermit{
		PermitRecord: model.PermitRecord{
			Subtype:        subtype,
			Group:          group,
			Duration:       duration,
			Sequence:       sequence,
			StartDate:      b.start,
			ExpirationDate: b.start.AddDate(0, 0, duration),
			Row:            len(b.permits) + 2,
		},
		BatchID:  b.batchID,
		Category: category,
	})
	return b
}

// WithFixture adds every permit of a fixture.
func (b *Builder) WithFixture(f Fixture) *Builder {
	for _, p := range f.Permits {
		b.WithSequence(f.Group, p.Subtype, p.Duration, p.Sequence)
	}
	return b
}

// Build returns the permits added so far.
func (b *Builder) Build() []model.StoredPermit {
	out := make([]model.StoredPermit, len(b.permits))
	copy(out, b.permits)
	return out
}
