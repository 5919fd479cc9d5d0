// Package storage provides the data persistence layer for imported permits.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/permitflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrEmptySlice    = errors.New("slice cannot be empty")
	ErrInvalidPermit = errors.New("invalid permit")
	ErrInvalidBatch  = errors.New("invalid import batch")
	ErrInvalidFilter = errors.New("invalid permit filter")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateBatch(batch *model.ImportBatch) error {
	if batch == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if strings.TrimSpace(batch.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBatch)
	}
	if strings.TrimSpace(batch.Source) == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidBatch)
	}
	return nil
}

// validatePermits validates a slice of permits.
func validatePermits(permits []model.StoredPermit) error {
	if permits == nil {
		return fmt.Errorf("%w: permits", ErrNilParameter)
	}
	if len(permits) == 0 {
		return fmt.Errorf("%w: permits", ErrEmptySlice)
	}
	for i := range permits {
		if err := validatePermit(&permits[i]); err != nil {
			return fmt.Errorf("permit at index %d: %w", i, err)
		}
	}
	return nil
}

func validatePermit(p *model.StoredPermit) error {
	if _, ok := model.ParseSubtype(string(p.Subtype)); !ok {
		return fmt.Errorf("%w: subtype %q", ErrInvalidPermit, p.Subtype)
	}
	if strings.TrimSpace(p.Group) == "" {
		return fmt.Errorf("%w: missing group", ErrInvalidPermit)
	}
	if p.Duration < 0 {
		return fmt.Errorf("%w: negative duration %d", ErrInvalidPermit, p.Duration)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%w: category %d", ErrInvalidPermit, p.Category)
	}
	if p.Sequence < 0 {
		return fmt.Errorf("%w: negative sequence", ErrInvalidPermit)
	}
	return nil
}

func validateFilter(f PermitFilter) error {
	if f.Category != nil && !f.Category.Valid() {
		return fmt.Errorf("%w: category %d", ErrInvalidFilter, *f.Category)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidFilter)
	}
	return nil
}
