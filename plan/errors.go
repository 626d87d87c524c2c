/*
errors.go - Centralized error types for the plan engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The surrounding packages (order, api, store) wrap these with context.

ERROR CATEGORIES:
  1. Input errors - invalid quantities, negative money, malformed conditions
  2. Store errors - duplicate generation periods, missing records

The engine itself has no transient failures: every error here is a
programming or configuration defect and is surfaced to the caller
immediately, never retried.
*/
package plan

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is the root of every input-validation failure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicatePeriod is returned by stores when a generated installment
	// already exists for an (expense, reference period) pair. Expected on
	// re-runs; callers treat it as "already done".
	ErrDuplicatePeriod = errors.New("installment already generated for period")

	// ErrNotFound is returned by stores for missing records.
	ErrNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError reports which field failed validation and why.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrDuplicatePeriod)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
