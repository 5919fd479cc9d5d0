package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS import_batches (
					id TEXT PRIMARY KEY,
					source TEXT NOT NULL,
					basis TEXT NOT NULL,
					permit_count INTEGER NOT NULL DEFAULT 0,
					imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS permits (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					batch_id TEXT NOT NULL,
					group_name TEXT NOT NULL,
					work_type TEXT NOT NULL,
					category INTEGER NOT NULL,
					duration INTEGER NOT NULL,
					sequence INTEGER NOT NULL DEFAULT 0, -- 0 when the row carried no sequence
					issuance_date DATETIME,
					expiration_date DATETIME,
					start_date DATETIME,
					source_row INTEGER NOT NULL DEFAULT 0,
					FOREIGN KEY (batch_id) REFERENCES import_batches(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_permits_batch ON permits(batch_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add start year and lookup indexes for estimation",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE permits ADD COLUMN start_year INTEGER NOT NULL DEFAULT 0`,
				`UPDATE permits SET start_year = CAST(strftime('%Y', start_date) AS INTEGER) WHERE start_date IS NOT NULL`,
				`CREATE INDEX idx_permits_lookup ON permits(work_type, group_name COLLATE NOCASE, category)`,
				`CREATE INDEX idx_permits_start_year ON permits(start_year)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
