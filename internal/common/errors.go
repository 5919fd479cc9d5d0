// Package common provides shared errors, logging setup and retry helpers.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Record-level errors. A record failing with one of these is excluded
// before categorization.
var (
	ErrMissingField     = errors.New("missing field")
	ErrUnparsableDate   = errors.New("unparsable date")
	ErrUnknownSubtype   = errors.New("unknown permit subtype")
	ErrNegativeDuration = errors.New("negative duration")
)

// Application errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrInsufficientData = errors.New("insufficient data")
	ErrEmptyWorkbook    = errors.New("workbook has no sheets")

	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRecordError reports whether err excludes a single record rather than
// a whole sheet or run.
func IsRecordError(err error) bool {
	return errors.Is(err, ErrUnparsableDate) ||
		errors.Is(err, ErrUnknownSubtype) ||
		errors.Is(err, ErrNegativeDuration)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
