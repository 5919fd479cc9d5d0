package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/service"
)

// PermitFilter is the query filter accepted by GetPermits.
type PermitFilter = service.PermitFilter

// SaveImport records an import batch and its permits in one transaction.
func (s *SQLiteStorage) SaveImport(ctx context.Context, batch *model.ImportBatch, permits []model.StoredPermit) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}
	if err := validatePermits(permits); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	importedAt := batch.ImportedAt
	if importedAt.IsZero() {
		importedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_batches (id, source, basis, permit_count, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`, batch.ID, batch.Source, batch.Basis, len(permits), importedAt)
	if err != nil {
		return fmt.Errorf("failed to save import batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO permits (
			batch_id, group_name, work_type, category, duration, sequence,
			issuance_date, expiration_date, start_date, start_year, source_row
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range permits {
		_, err := stmt.ExecContext(ctx,
			batch.ID,
			p.Group,
			string(p.Subtype),
			p.Category.Tier(),
			p.Duration,
			p.Sequence,
			nullTime(p.IssuanceDate),
			nullTime(p.ExpirationDate),
			nullTime(p.StartDate),
			p.StartYear(),
			p.Row,
		)
		if err != nil {
			return fmt.Errorf("failed to save permit from %s row %d: %w", p.Group, p.Row, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	batch.ImportedAt = importedAt
	batch.Permits = len(permits)
	slog.Info("Saved import", "batch", batch.ID, "permits", len(permits))
	return nil
}

// GetPermits returns the stored permits matching filter, oldest import first.
func (s *SQLiteStorage) GetPermits(ctx context.Context, filter PermitFilter) ([]model.StoredPermit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	where, args := filterClause(filter)
	query := `
		SELECT id, batch_id, group_name, work_type, category, duration, sequence,
			issuance_date, expiration_date, start_date, source_row
		FROM permits` + where + ` ORDER BY id`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query permits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var permits []model.StoredPermit
	for rows.Next() {
		p, err := scanPermit(rows)
		if err != nil {
			return nil, err
		}
		permits = append(permits, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permits: %w", err)
	}
	return permits, nil
}

// CountPermits returns the number of stored permits matching filter.
func (s *SQLiteStorage) CountPermits(ctx context.Context, filter PermitFilter) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateFilter(filter); err != nil {
		return 0, err
	}

	where, args := filterClause(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM permits"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count permits: %w", err)
	}
	return n, nil
}

func filterClause(f PermitFilter) (string, []any) {
	var conds []string
	var args []any
	if f.WorkType != "" {
		conds = append(conds, "work_type = ?")
		args = append(args, string(f.WorkType))
	}
	if f.Region != "" {
		conds = append(conds, "group_name = ? COLLATE NOCASE")
		args = append(args, strings.TrimSpace(f.Region))
	}
	if f.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, f.Category.Tier())
	}
	if f.BatchID != "" {
		conds = append(conds, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.MinStartYear > 0 {
		conds = append(conds, "start_year >= ?")
		args = append(args, f.MinStartYear)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPermit(row scanner) (model.StoredPermit, error) {
	var (
		p                           model.StoredPermit
		workType                    string
		tier                        int
		issuance, expiration, start sql.NullTime
	)
	err := row.Scan(&p.ID, &p.BatchID, &p.Group, &workType, &tier, &p.Duration, &p.Sequence,
		&issuance, &expiration, &start, &p.Row)
	if err != nil {
		return p, fmt.Errorf("failed to scan permit: %w", err)
	}

	subtype, ok := model.ParseSubtype(workType)
	if !ok {
		return p, fmt.Errorf("%w: stored permit %d has subtype %q", common.ErrUnknownSubtype, p.ID, workType)
	}
	category, ok := model.CategoryFromTier(tier)
	if !ok {
		return p, fmt.Errorf("stored permit %d has category %d: %w", p.ID, tier, ErrInvalidPermit)
	}
	p.Subtype = subtype
	p.Category = category
	p.IssuanceDate = issuance.Time
	p.ExpirationDate = expiration.Time
	p.StartDate = start.Time
	return p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// GetImportBatches returns every import batch, newest first.
func (s *SQLiteStorage) GetImportBatches(ctx context.Context) ([]model.ImportBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, basis, permit_count, imported_at
		FROM import_batches
		ORDER BY imported_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query import batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var batches []model.ImportBatch
	for rows.Next() {
		var b model.ImportBatch
		if err := rows.Scan(&b.ID, &b.Source, &b.Basis, &b.Permits, &b.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import batches: %w", err)
	}
	return batches, nil
}

// GetImportBatch returns one import batch by ID.
func (s *SQLiteStorage) GetImportBatch(ctx context.Context, id string) (*model.ImportBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var b model.ImportBatch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, basis, permit_count, imported_at
		FROM import_batches WHERE id = ?
	`, id).Scan(&b.ID, &b.Source, &b.Basis, &b.Permits, &b.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import batch %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import batch: %w", err)
	}
	return &b, nil
}

// DeleteImportBatch removes a batch and its permits.
func (s *SQLiteStorage) DeleteImportBatch(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM permits WHERE batch_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete permits: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM import_batches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete import batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("import batch %s: %w", id, common.ErrNotFound)
	}
	return tx.Commit()
}
