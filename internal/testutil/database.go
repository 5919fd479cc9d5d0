// Package testutil provides test databases seeded with permits.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/storage"
	"github.com/Veraticus/permitflow/internal/testutil/permits"
)

// TestDB represents a test database with its seeded permits.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Batch   *model.ImportBatch
	Permits []model.StoredPermit
}

// SetupTestDB creates a new in-memory test database holding seed as one
// import batch. It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		permits.NewBuilder(t).
//			WithFixture(permits.FixtureManhattan).
//			Build(),
//	)
func SetupTestDB(t *testing.T, seed []model.StoredPermit) *TestDB {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	// Run migrations
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: store}
	if len(seed) == 0 {
		return db
	}

	batchID := seed[0].BatchID
	if batchID == "" {
		batchID = permits.DefaultBatchID
	}
	db.Batch = &model.ImportBatch{ID: batchID, Source: "fixture.xlsx", Basis: "given"}
	db.Permits = make([]model.StoredPermit, len(seed))
	for i, p := range seed {
		p.BatchID = batchID
		db.Permits[i] = p
	}
	if err := store.SaveImport(ctx, db.Batch, db.Permits); err != nil {
		t.Fatalf("failed to seed permits: %v", err)
	}
	return db
}
