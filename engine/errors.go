/*
errors.go - Centralized error types for the engine

PURPOSE:
  All engine error types in one place. Collaborator packages (stores, API)
  wrap these with their own context and use the classification helpers to
  translate them at the boundary.

USAGE:
  if errors.Is(err, engine.ErrZeroDuration) { ... }

  var unknown *engine.UnknownCategoryError
  if errors.As(err, &unknown) { ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidSpan is returned for malformed date spans (zero dates, end
	// before start).
	ErrInvalidSpan = errors.New("invalid date span")

	// ErrZeroDuration is returned when a span yields no chargeable days.
	// The booking service rejects such requests before the decision engine.
	ErrZeroDuration = errors.New("request covers no working days")

	// ErrUnknownCategory is returned when a category is absent from the
	// organization's ledger-type table.
	ErrUnknownCategory = errors.New("unknown leave category")

	// ErrRequestNotPending is returned when approving, rejecting, or
	// cancelling a request that already reached a terminal status.
	ErrRequestNotPending = errors.New("request is not pending")

	// ErrUserNotFound is returned by the user directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrRequestNotFound is returned by the request store.
	ErrRequestNotFound = errors.New("request not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownCategoryError names the category that is missing from the table.
type UnknownCategoryError struct {
	Category Category
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown leave category %q", e.Category)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid client input
// rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSpan) ||
		errors.Is(err, ErrZeroDuration) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrRequestNotPending)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrRequestNotFound)
}
