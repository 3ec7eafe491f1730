package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE PERIOD - One published rate interval
// =============================================================================

// RatePeriod is a calendar interval [Start, End], both days inclusive, over
// which one annual rate per regime applies. Rates are percent per annum.
type RatePeriod struct {
	Start        Date
	End          Date
	Prejudgment  decimal.Decimal
	Postjudgment decimal.Decimal
}

// Rate returns the column selected by regime.
func (p RatePeriod) Rate(regime Regime) decimal.Decimal {
	if regime == Postjudgment {
		return p.Postjudgment
	}
	return p.Prejudgment
}

// Contains returns true if d is within [Start, End].
func (p RatePeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps returns true if the period intersects [start, end].
func (p RatePeriod) Overlaps(start, end Date) bool {
	return p.Start.BeforeOrEqual(end) && p.End.AfterOrEqual(start)
}

func (p RatePeriod) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// SCHEDULE - One jurisdiction's ordered rate periods
// =============================================================================

// Schedule holds ordered, non-overlapping periods. Gaps between periods are
// allowed; pricing a range that falls in one is an error.
type Schedule struct {
	periods []RatePeriod
}

// NewSchedule sorts periods by start and validates them. The input slice is
// copied, so later changes by the caller do not leak into the schedule.
func NewSchedule(periods []RatePeriod) (Schedule, error) {
	sorted := make([]RatePeriod, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i, p := range sorted {
		if p.Start.After(p.End) {
			return Schedule{}, fmt.Errorf("%w: period %s ends before it starts", ErrInvalidRateTable, p)
		}
		if p.Prejudgment.IsNegative() || p.Postjudgment.IsNegative() {
			return Schedule{}, fmt.Errorf("%w: period %s has a negative rate", ErrInvalidRateTable, p)
		}
		if i > 0 && !sorted[i-1].End.Before(p.Start) {
			return Schedule{}, fmt.Errorf("%w: period %s overlaps %s", ErrInvalidRateTable, sorted[i-1], p)
		}
	}
	return Schedule{periods: sorted}, nil
}

// MustSchedule panics on an invalid table. Use in tests and fixtures.
func MustSchedule(periods ...RatePeriod) Schedule {
	s, err := NewSchedule(periods)
	if err != nil {
		panic(err)
	}
	return s
}

// Periods returns a copy of every period, ordered by start.
func (s Schedule) Periods() []RatePeriod {
	out := make([]RatePeriod, len(s.periods))
	copy(out, s.periods)
	return out
}

func (s Schedule) Len() int { return len(s.periods) }

// PeriodsOverlapping returns every period with Start <= end and End >= start,
// ordered by start.
func (s Schedule) PeriodsOverlapping(start, end Date) []RatePeriod {
	// First period whose End is not before start.
	i := sort.Search(len(s.periods), func(i int) bool { return s.periods[i].End.AfterOrEqual(start) })

	var out []RatePeriod
	for ; i < len(s.periods) && s.periods[i].Start.BeforeOrEqual(end); i++ {
		out = append(out, s.periods[i])
	}
	return out
}

// PeriodOn returns the period containing d.
func (s Schedule) PeriodOn(d Date) (RatePeriod, bool) {
	i := sort.Search(len(s.periods), func(i int) bool { return s.periods[i].End.AfterOrEqual(d) })
	if i < len(s.periods) && s.periods[i].Contains(d) {
		return s.periods[i], true
	}
	return RatePeriod{}, false
}

// RateOn returns the rate in effect on d under regime.
func (s Schedule) RateOn(regime Regime, d Date) (decimal.Decimal, error) {
	p, ok := s.PeriodOn(d)
	if !ok {
		return decimal.Zero, &RateNotFoundError{Regime: regime, Date: d}
	}
	return p.Rate(regime), nil
}

// =============================================================================
// RATE TABLE - Schedules keyed by jurisdiction
// =============================================================================

type Jurisdiction string

// RateTable is an immutable snapshot of every jurisdiction's schedule.
// Refreshing rate data means building a new table, never editing one in use.
type RateTable struct {
	schedules map[Jurisdiction]Schedule
}

// NewRateTable copies the map.
func NewRateTable(schedules map[Jurisdiction]Schedule) *RateTable {
	m := make(map[Jurisdiction]Schedule, len(schedules))
	for j, s := range schedules {
		m[j] = s
	}
	return &RateTable{schedules: m}
}

// Schedule returns the schedule for j.
func (t *RateTable) Schedule(j Jurisdiction) (Schedule, error) {
	if t == nil {
		return Schedule{}, fmt.Errorf("%w: %q", ErrUnknownJurisdiction, j)
	}
	s, ok := t.schedules[j]
	if !ok {
		return Schedule{}, fmt.Errorf("%w: %q", ErrUnknownJurisdiction, j)
	}
	return s, nil
}

// Jurisdictions returns the table's keys, sorted.
func (t *RateTable) Jurisdictions() []Jurisdiction {
	if t == nil {
		return nil
	}
	out := make([]Jurisdiction, 0, len(t.schedules))
	for j := range t.schedules {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i] < out[k] })
	return out
}

// With returns a new table with j's schedule replaced. t is left untouched.
func (t *RateTable) With(j Jurisdiction, s Schedule) *RateTable {
	m := make(map[Jurisdiction]Schedule)
	if t != nil {
		for k, v := range t.schedules {
			m[k] = v
		}
	}
	m[j] = s
	return &RateTable{schedules: m}
}

// PeriodsOverlapping resolves j and returns the periods touching
// [start, end]. Fails with *RateTableGapError if they do not cover it.
func (t *RateTable) PeriodsOverlapping(j Jurisdiction, start, end Date) ([]RatePeriod, error) {
	s, err := t.Schedule(j)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, &InvalidRangeError{Label: "lookup", Start: start, End: end}
	}
	periods := s.PeriodsOverlapping(start, end)
	if err := CheckCoverage(start, end, periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// RateOn resolves j and returns the rate in effect on d.
func (t *RateTable) RateOn(j Jurisdiction, regime Regime, d Date) (decimal.Decimal, error) {
	s, err := t.Schedule(j)
	if err != nil {
		return decimal.Zero, err
	}
	return s.RateOn(regime, d)
}
