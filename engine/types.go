/*
Package engine computes simple statutory interest on money judgments.

PURPOSE:
  Given a principal, a date range, one jurisdiction's published rate
  schedule and a list of dated special damages, the engine splits the
  range at rate boundaries, prices every sub-range with simple per-annum
  interest and returns itemized rows plus a total.

KEY CONCEPTS IN THIS FILE (types.go):
  - Regime: prejudgment or postjudgment, selects the rate column
  - SpecialDamage: an itemized loss accruing from its own date
  - InterestRow: one rate-aligned sub-range for one principal source
  - Result: ordered rows, rounded total, base principal

DESIGN PRINCIPLES:
  1. Purity: no I/O, no logging, no shared mutable state
  2. Precision: decimal.Decimal for money and rates, rounding once
  3. Calendar days: Date is an integer day number, never a timestamp

USAGE:
  schedule, _ := engine.NewSchedule(periods)
  result, err := engine.CalculateInterestPeriods(
      engine.Prejudgment, start, end, decimal.NewFromInt(10000), schedule, nil)

SEE ALSO:
  - date.go: Date and DaysBetween
  - rates.go: RatePeriod, Schedule, RateTable
  - splitter.go: Range decomposition
  - accrual.go: Interest per sub-range
  - calculation.go: Orchestration
*/
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REGIME
// =============================================================================

type Regime string

const (
	Prejudgment  Regime = "prejudgment"
	Postjudgment Regime = "postjudgment"
)

// ParseRegime accepts the regime names case-insensitively.
func ParseRegime(s string) (Regime, error) {
	switch Regime(strings.ToLower(strings.TrimSpace(s))) {
	case Prejudgment:
		return Prejudgment, nil
	case Postjudgment:
		return Postjudgment, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegime, s)
}

func (r Regime) Valid() bool { return r == Prejudgment || r == Postjudgment }

// =============================================================================
// MONEY
// =============================================================================

// CurrencyPlaces is the precision the total is rounded to.
const CurrencyPlaces = 2

// daysPerYear is the fixed annual denominator. Not 365.25.
var daysPerYear = decimal.NewFromInt(365)

var hundred = decimal.NewFromInt(100)

// MustParseDecimal panics on invalid input. Use in tests and fixtures.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// SPECIAL DAMAGES
// =============================================================================

// SpecialDamage is an itemized loss. Interest runs from Date to the end of
// the calculation range.
type SpecialDamage struct {
	Date        Date
	Description string
	Amount      decimal.Decimal
}

// =============================================================================
// ROWS AND RESULTS
// =============================================================================

type SourceKind string

const (
	SourceBase          SourceKind = "base"
	SourceSpecialDamage SourceKind = "special_damage"
)

// Source identifies the principal a row was computed on. Index is the
// position in the request's special damages, -1 for the base principal.
type Source struct {
	Kind        SourceKind
	Index       int
	Description string
}

var baseSource = Source{Kind: SourceBase, Index: -1}

func (s Source) String() string {
	if s.Kind == SourceBase {
		return string(SourceBase)
	}
	return fmt.Sprintf("%s[%d] %s", s.Kind, s.Index, s.Description)
}

// InterestRow is one rate-aligned sub-range priced for one principal.
// Days counts from PeriodStart up to, not including, PeriodEnd.
type InterestRow struct {
	PeriodStart Date
	PeriodEnd   Date
	Days        int
	Rate        decimal.Decimal
	Principal   decimal.Decimal
	Interest    decimal.Decimal // unrounded
	Source      Source
}

// Subtotal is the unrounded interest accrued on one principal source.
type Subtotal struct {
	Source    Source
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// Result is built fresh for every calculation and not mutated afterwards.
type Result struct {
	Details []InterestRow
	// Total is the sum of all row interest, rounded once.
	Total decimal.Decimal
	// Principal is the base judgment amount only.
	Principal decimal.Decimal
	// SpecialDamagesPrincipal sums the damages that were priced.
	SpecialDamagesPrincipal decimal.Decimal
	Subtotals               []Subtotal
}

// =============================================================================
// REQUEST
// =============================================================================

type Request struct {
	Regime         Regime
	Start          Date
	End            Date
	Principal      decimal.Decimal
	Jurisdiction   Jurisdiction
	SpecialDamages []SpecialDamage
}

// Validate checks the request before any rate lookup.
func (r Request) Validate() error {
	if !r.Regime.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRegime, r.Regime)
	}
	if r.Start.After(r.End) {
		return &InvalidRangeError{Label: "calculation", Start: r.Start, End: r.End}
	}
	if r.Principal.IsNegative() {
		return fmt.Errorf("%w: principal %s is negative", ErrInvalidAmount, r.Principal)
	}
	for i, d := range r.SpecialDamages {
		if d.Amount.IsNegative() {
			return fmt.Errorf("%w: special damage %d (%s) amount %s is negative",
				ErrInvalidAmount, i, d.Description, d.Amount)
		}
	}
	return nil
}
