package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATOR - Resolves the jurisdiction, then prices the request
// =============================================================================

// Calculator prices requests against one rate table snapshot. The zero
// value has no jurisdictions.
type Calculator struct {
	Rates *RateTable
}

func NewCalculator(rates *RateTable) *Calculator {
	return &Calculator{Rates: rates}
}

// Calculate validates req, looks up its jurisdiction's schedule and prices it.
func (c *Calculator) Calculate(req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	schedule, err := c.Rates.Schedule(req.Jurisdiction)
	if err != nil {
		return nil, err
	}
	return calculate(req, schedule)
}

// =============================================================================
// ORCHESTRATION
// =============================================================================

// CalculateInterestPeriods prices the base principal over [start, end] and
// every special damage from max(damage date, start) to end. Damages dated
// after end are left out.
//
// Rows are ordered by PeriodStart; on the same start the base rows come
// first, then damages in the order given. The total is rounded once, to
// CurrencyPlaces. Result.Principal is the base principal only.
func CalculateInterestPeriods(
	regime Regime,
	start, end Date,
	principal decimal.Decimal,
	schedule Schedule,
	damages []SpecialDamage,
) (*Result, error) {
	req := Request{
		Regime:         regime,
		Start:          start,
		End:            end,
		Principal:      principal,
		SpecialDamages: damages,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return calculate(req, schedule)
}

func calculate(req Request, schedule Schedule) (*Result, error) {
	rows, err := priceRange(req.Regime, req.Start, req.End, req.Principal, schedule, baseSource)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Principal:               req.Principal,
		SpecialDamagesPrincipal: decimal.Zero,
		Subtotals: []Subtotal{{
			Source:    baseSource,
			Principal: req.Principal,
			Interest:  SumInterest(rows),
		}},
	}

	for i, d := range req.SpecialDamages {
		if d.Date.After(req.End) {
			continue
		}
		from := MaxDate(d.Date, req.Start)
		if from.After(req.End) {
			return nil, &InvalidRangeError{Label: d.Description, Start: from, End: req.End}
		}

		src := Source{Kind: SourceSpecialDamage, Index: i, Description: d.Description}
		damageRows, err := priceRange(req.Regime, from, req.End, d.Amount, schedule, src)
		if err != nil {
			return nil, fmt.Errorf("special damage %d (%s): %w", i, d.Description, err)
		}

		rows = append(rows, damageRows...)
		result.SpecialDamagesPrincipal = result.SpecialDamagesPrincipal.Add(d.Amount)
		result.Subtotals = append(result.Subtotals, Subtotal{
			Source:    src,
			Principal: d.Amount,
			Interest:  SumInterest(damageRows),
		})
	}

	// Rows were appended base first, then damages in input order, so a
	// stable sort keeps that order among rows starting on the same day.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PeriodStart.Before(rows[j].PeriodStart)
	})

	result.Details = rows
	result.Total = SumInterest(rows).Round(CurrencyPlaces)
	return result, nil
}

func priceRange(regime Regime, start, end Date, principal decimal.Decimal, schedule Schedule, src Source) ([]InterestRow, error) {
	subs, err := Split(regime, start, end, schedule.PeriodsOverlapping(start, end))
	if err != nil {
		return nil, err
	}
	return Accrue(principal, subs, src), nil
}
