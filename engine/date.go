package engine

import (
	"encoding/json"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// =============================================================================
// DATE - Calendar day with no time-of-day component
// =============================================================================

// Date is a calendar day stored as the number of days since 1970-01-01.
// Two dates are equal iff they name the same calendar day, wherever the
// value came from.
type Date int32

const secondsPerDay = 24 * 60 * 60

// NewDate returns the Date for year, month, day. Out-of-range values are
// normalized the way time.Date normalizes them.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date(t.Unix() / secondsPerDay)
}

// Normalize truncates t to its calendar day as written in t's own location.
// 2022-01-01T23:30-08:00 is 2022-01-01, not the UTC day it falls on.
func Normalize(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// FromCivil converts a civil.Date.
func FromCivil(d civil.Date) Date {
	return NewDate(d.Year, d.Month, d.Day)
}

// ParseDate parses "YYYY-MM-DD" or an RFC3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		if !d.IsValid() {
			return 0, &InvalidDateError{Input: s}
		}
		return FromCivil(d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, &InvalidDateError{Input: s, Err: err}
	}
	return Normalize(t), nil
}

// MustParseDate panics on invalid input. Use in tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d < other }
func (d Date) After(other Date) bool         { return d > other }
func (d Date) Equal(other Date) bool         { return d == other }
func (d Date) BeforeOrEqual(other Date) bool { return d <= other }
func (d Date) AfterOrEqual(other Date) bool  { return d >= other }

// Arithmetic
func (d Date) AddDays(n int) Date { return d + Date(n) }

// Properties
func (d Date) Time() time.Time     { return time.Unix(int64(d)*secondsPerDay, 0).UTC() }
func (d Date) Civil() civil.Date   { return civil.DateOf(d.Time()) }
func (d Date) Year() int           { return d.Time().Year() }
func (d Date) Month() time.Month   { return d.Time().Month() }
func (d Date) Day() int            { return d.Time().Day() }
func (d Date) String() string      { return d.Time().Format(time.DateOnly) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &InvalidDateError{Input: string(b), Err: err}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DaysBetween returns b - a in whole days. Negative when b is before a.
func DaysBetween(a, b Date) int { return int(b - a) }

func MinDate(a, b Date) Date {
	if a < b {
		return a
	}
	return b
}

func MaxDate(a, b Date) Date {
	if a > b {
		return a
	}
	return b
}
