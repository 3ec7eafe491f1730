/*
errors.go - Centralized error types for the interest engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failure of the engine is a distinct, identifiable value. Nothing
  is silently defaulted to zero interest.

ERROR CATEGORIES:
  1. Input errors - dates that cannot be normalized, inverted ranges,
     negative amounts, unknown regimes
  2. Rate table errors - malformed tables, unknown jurisdictions
  3. Lookup errors - no rate on a date, gaps inside a requested range

USAGE:
  Callers match with errors.Is / errors.As:

    var gap *engine.RateTableGapError
    if errors.As(err, &gap) {
        fmt.Printf("no rate between %s and %s\n", gap.From, gap.To)
    }

SEE ALSO:
  - splitter.go: Produces RateTableGapError
  - rates.go: Produces RateNotFoundError, ErrInvalidRateTable
  - api/handlers.go: Maps these errors to HTTP status codes
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
	// ErrInvalidDate is returned when an input date cannot be normalized.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidRange is returned when a range starts after it ends.
	ErrInvalidRange = errors.New("invalid range: start after end")

	// ErrRateNotFound is returned when no rate period covers a date.
	ErrRateNotFound = errors.New("rate not found")

	// ErrRateTableGap is returned when the rate periods for a range leave
	// part of it uncovered.
	ErrRateTableGap = errors.New("rate table gap")

	// ErrInvalidRateTable is returned when periods overlap, are inverted or
	// carry a negative rate.
	ErrInvalidRateTable = errors.New("invalid rate table")

	// ErrUnknownJurisdiction is returned when a table has no schedule for the
	// requested jurisdiction.
	ErrUnknownJurisdiction = errors.New("unknown jurisdiction")

	// ErrUnknownRegime is returned for a regime other than prejudgment or
	// postjudgment.
	ErrUnknownRegime = errors.New("unknown regime")

	// ErrInvalidAmount is returned for a negative principal or damage amount.
	ErrInvalidAmount = errors.New("invalid amount")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidDateError names the input that could not be parsed.
type InvalidDateError struct {
	Input string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid date %q", e.Input)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrInvalidDate
}

// InvalidRangeError reports an inverted range. Label says which range:
// "calculation" for the base range, the damage description otherwise.
type InvalidRangeError struct {
	Label string
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s range: start %s is after end %s", e.Label, e.Start, e.End)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// RateNotFoundError reports a point lookup that hit no period.
type RateNotFoundError struct {
	Regime Regime
	Date   Date
}

func (e *RateNotFoundError) Error() string {
	if e.Regime == "" {
		return fmt.Sprintf("no rate in effect on %s", e.Date)
	}
	return fmt.Sprintf("no %s rate in effect on %s", e.Regime, e.Date)
}

func (e *RateNotFoundError) Unwrap() error {
	return ErrRateNotFound
}

// RateTableGapError names the first uncovered run [From, To] inside a
// requested range.
type RateTableGapError struct {
	From Date
	To   Date
}

func (e *RateTableGapError) Error() string {
	return fmt.Sprintf("rate table gap: no rate defined from %s to %s", e.From, e.To)
}

func (e *RateTableGapError) Unwrap() error {
	return ErrRateTableGap
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownRegime) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidRateTable)
}

// IsNotFound returns true if the error indicates a missing jurisdiction.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownJurisdiction)
}

// IsRateCoverage returns true if the rate table cannot price the request.
func IsRateCoverage(err error) bool {
	return errors.Is(err, ErrRateNotFound) || errors.Is(err, ErrRateTableGap)
}
