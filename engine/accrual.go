package engine

import "github.com/shopspring/decimal"

// =============================================================================
// ACCUMULATOR - Simple per-annum interest over sub-ranges
// =============================================================================

// Interest returns principal × rate% × days / 365, unrounded. Zero when
// days is not positive.
func Interest(principal, rate decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	// One division keeps the result exact to DivisionPrecision.
	return principal.
		Mul(rate).
		Mul(decimal.NewFromInt(int64(days))).
		Div(hundred.Mul(daysPerYear))
}

// Accrue prices every sub-range for principal. One row per sub-range, zero
// interest rows included.
func Accrue(principal decimal.Decimal, subs []SubRange, source Source) []InterestRow {
	rows := make([]InterestRow, 0, len(subs))
	for _, s := range subs {
		days := s.Days()
		rows = append(rows, InterestRow{
			PeriodStart: s.Start,
			PeriodEnd:   s.End,
			Days:        days,
			Rate:        s.Rate,
			Principal:   principal,
			Interest:    Interest(principal, s.Rate, days),
			Source:      source,
		})
	}
	return rows
}

// SumInterest adds row interest without rounding.
func SumInterest(rows []InterestRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Interest)
	}
	return total
}
