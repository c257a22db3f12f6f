/*
errors.go - Centralized error types for the capacity engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these with additional context where useful.

ERROR CATEGORIES:
  1. Reference errors - A requested entity does not exist. Fatal to the
     operation that needed it.
  2. Date parse errors - A stored or supplied date string is malformed.
     Fatal to the single calculation; propagated, never patched over.

  Data-integrity findings (an assignment whose project has no requirement,
  pinned percentages summing past 100%) are NOT errors: they accumulate as
  warnings on the OptimizationResult and processing continues. Likewise an
  under-staffed project is an InfeasibleProject entry, not an error.

USAGE:
  if engine.IsNotFound(err) {
      // 404 territory
  }

SEE ALSO:
  - optimizer.go: Warning and shortfall accumulation
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
	// ErrPeriodNotFound is returned when a referenced planning period doesn't exist.
	ErrPeriodNotFound = errors.New("planning period not found")

	// ErrPersonNotFound is returned when a referenced person doesn't exist.
	ErrPersonNotFound = errors.New("person not found")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrRequirementNotFound is returned when a project has no requirement
	// row for the requested planning period.
	ErrRequirementNotFound = errors.New("project requirement not found")

	// ErrInvalidDate is the sentinel behind DateParseError.
	ErrInvalidDate = errors.New("invalid date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError notes which entity id was missing.
type NotFoundError struct {
	ID  int64
	Err error // one of the *NotFound sentinels
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: id %d", e.Err, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// DateParseError reports an unparseable date string. The whole calculation
// that needed the date fails; there is no partial result.
type DateParseError struct {
	Input string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid date %q: %v", e.Input, e.Err)
}

func (e *DateParseError) Unwrap() error { return ErrInvalidDate }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrPersonNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrRequirementNotFound)
}

// IsInvalidDate returns true if the error stems from a malformed date string.
func IsInvalidDate(err error) bool {
	return errors.Is(err, ErrInvalidDate)
}
