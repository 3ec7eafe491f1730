package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SUB-RANGE - The part of a requested range inside one rate period
// =============================================================================

// SubRange is priced at a single rate. Interest accrues from Start up to,
// not including, End. Adjacent sub-ranges share a boundary: one's End is
// the next one's Start.
type SubRange struct {
	Start Date
	End   Date
	Rate  decimal.Decimal
}

func (s SubRange) Days() int { return DaysBetween(s.Start, s.End) }

// =============================================================================
// SPLITTER
// =============================================================================

// Split decomposes [start, end] into sub-ranges aligned to periods, which
// must be ordered by start (Schedule guarantees this).
//
// Every day in [start, end] must fall in some period, otherwise the first
// uncovered run is returned as a *RateTableGapError. Day counts of the
// returned sub-ranges sum to DaysBetween(start, end).
//
// A same-day range yields exactly one zero-day sub-range so it still shows up
// as a row. When end is the first day of a new period, the zero-day tail in
// that period is dropped: no interest accrues in it.
func Split(regime Regime, start, end Date, periods []RatePeriod) ([]SubRange, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Label: "split", Start: start, End: end}
	}

	clipped, err := clip(start, end, periods)
	if err != nil {
		return nil, err
	}

	subs := make([]SubRange, len(clipped))
	for i, p := range clipped {
		subs[i] = SubRange{Start: p.Start, End: p.End, Rate: p.Rate(regime)}
	}

	// Move each boundary from the period's last day to the next period's
	// first day so no day of accrual is lost between rows.
	for i := 0; i < len(subs)-1; i++ {
		subs[i].End = subs[i+1].Start
	}

	if n := len(subs); n > 1 && subs[n-1].Days() == 0 {
		subs = subs[:n-1]
	}
	return subs, nil
}

// CheckCoverage returns a *RateTableGapError if periods leave any day of
// [start, end] uncovered.
func CheckCoverage(start, end Date, periods []RatePeriod) error {
	_, err := clip(start, end, periods)
	return err
}

// clip intersects each period with [start, end] and verifies the pieces are
// contiguous. Returned periods have inclusive End dates.
func clip(start, end Date, periods []RatePeriod) ([]RatePeriod, error) {
	var out []RatePeriod
	next := start // first day not yet covered

	for _, p := range periods {
		if next.After(end) {
			break
		}
		cs := MaxDate(MaxDate(p.Start, start), next)
		ce := MinDate(p.End, end)
		if cs.After(ce) {
			continue
		}
		if cs.After(next) {
			return nil, &RateTableGapError{From: next, To: cs.AddDays(-1)}
		}
		p.Start, p.End = cs, ce
		out = append(out, p)
		next = ce.AddDays(1)
	}

	if next.BeforeOrEqual(end) {
		return nil, &RateTableGapError{From: next, To: end}
	}
	return out, nil
}
