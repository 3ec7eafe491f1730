package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/judgment-interest/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) engine.Date { return engine.MustParseDate(s) }

func period(start, end, pre, post string) engine.RatePeriod {
	return engine.RatePeriod{
		Start:        date(start),
		End:          date(end),
		Prejudgment:  engine.MustParseDecimal(pre),
		Postjudgment: engine.MustParseDecimal(post),
	}
}

// bc2022 has two half-year periods with distinct rates per regime.
func bc2022() engine.Schedule {
	return engine.MustSchedule(
		period("2022-01-01", "2022-06-30", "2.0", "3.0"),
		period("2022-07-01", "2022-12-31", "2.5", "3.5"),
	)
}

// =============================================================================
// SCHEDULE CONSTRUCTION
// =============================================================================

func TestNewSchedule_SortsByStart(t *testing.T) {
	s, err := engine.NewSchedule([]engine.RatePeriod{
		period("2022-07-01", "2022-12-31", "2.5", "3.5"),
		period("2022-01-01", "2022-06-30", "2.0", "3.0"),
	})
	require.NoError(t, err)

	periods := s.Periods()
	require.Len(t, periods, 2)
	assert.Equal(t, "2022-01-01", periods[0].Start.String())
	assert.Equal(t, "2022-07-01", periods[1].Start.String())
}

func TestNewSchedule_RejectsMalformedTables(t *testing.T) {
	tests := []struct {
		name    string
		periods []engine.RatePeriod
	}{
		{
			name: "overlapping periods",
			periods: []engine.RatePeriod{
				period("2022-01-01", "2022-07-01", "2.0", "3.0"),
				period("2022-07-01", "2022-12-31", "2.5", "3.5"),
			},
		},
		{
			name:    "end before start",
			periods: []engine.RatePeriod{period("2022-06-30", "2022-01-01", "2.0", "3.0")},
		},
		{
			name:    "negative rate",
			periods: []engine.RatePeriod{period("2022-01-01", "2022-06-30", "-1", "3.0")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.NewSchedule(tt.periods)
			assert.ErrorIs(t, err, engine.ErrInvalidRateTable)
			assert.True(t, engine.IsClientError(err))
		})
	}
}

func TestNewSchedule_CopiesInput(t *testing.T) {
	input := []engine.RatePeriod{period("2022-01-01", "2022-06-30", "2.0", "3.0")}
	s, err := engine.NewSchedule(input)
	require.NoError(t, err)

	input[0].Prejudgment = engine.MustParseDecimal("99")
	rate, err := s.RateOn(engine.Prejudgment, date("2022-03-01"))
	require.NoError(t, err)
	assert.Equal(t, "2", rate.String())
}

// =============================================================================
// LOOKUPS
// =============================================================================

func TestPeriodsOverlapping(t *testing.T) {
	s := bc2022()

	tests := []struct {
		name       string
		start, end string
		wantStarts []string
	}{
		{name: "inside first", start: "2022-02-01", end: "2022-03-01", wantStarts: []string{"2022-01-01"}},
		{name: "spanning boundary", start: "2022-06-25", end: "2022-07-05", wantStarts: []string{"2022-01-01", "2022-07-01"}},
		{name: "touching last day", start: "2022-06-30", end: "2022-06-30", wantStarts: []string{"2022-01-01"}},
		{name: "touching first day", start: "2022-07-01", end: "2022-07-01", wantStarts: []string{"2022-07-01"}},
		{name: "before table", start: "2021-01-01", end: "2021-12-31", wantStarts: nil},
		{name: "after table", start: "2023-01-01", end: "2023-02-01", wantStarts: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.PeriodsOverlapping(date(tt.start), date(tt.end))
			var starts []string
			for _, p := range got {
				starts = append(starts, p.Start.String())
			}
			assert.Equal(t, tt.wantStarts, starts)
		})
	}
}

func TestRateOn_SelectsRegimeColumn(t *testing.T) {
	s := bc2022()

	pre, err := s.RateOn(engine.Prejudgment, date("2022-07-01"))
	require.NoError(t, err)
	assert.Equal(t, "2.5", pre.String())

	post, err := s.RateOn(engine.Postjudgment, date("2022-06-30"))
	require.NoError(t, err)
	assert.Equal(t, "3", post.String())
}

func TestRateOn_NotFound(t *testing.T) {
	_, err := bc2022().RateOn(engine.Prejudgment, date("2023-01-01"))

	assert.ErrorIs(t, err, engine.ErrRateNotFound)
	var notFound *engine.RateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "2023-01-01", notFound.Date.String())
	assert.True(t, engine.IsRateCoverage(err))
}

func TestRateTable_Lookups(t *testing.T) {
	table := engine.NewRateTable(map[engine.Jurisdiction]engine.Schedule{"BC": bc2022()})

	rate, err := table.RateOn("BC", engine.Postjudgment, date("2022-08-15"))
	require.NoError(t, err)
	assert.Equal(t, "3.5", rate.String())

	_, err = table.RateOn("ON", engine.Prejudgment, date("2022-08-15"))
	assert.ErrorIs(t, err, engine.ErrUnknownJurisdiction)
	assert.True(t, engine.IsNotFound(err))

	periods, err := table.PeriodsOverlapping("BC", date("2022-06-25"), date("2022-07-05"))
	require.NoError(t, err)
	assert.Len(t, periods, 2)

	_, err = table.PeriodsOverlapping("BC", date("2022-12-25"), date("2023-01-05"))
	assert.ErrorIs(t, err, engine.ErrRateTableGap)
}

func TestRateTable_WithLeavesSnapshotUntouched(t *testing.T) {
	before := engine.NewRateTable(map[engine.Jurisdiction]engine.Schedule{"BC": bc2022()})
	after := before.With("ON", bc2022())

	assert.Equal(t, []engine.Jurisdiction{"BC"}, before.Jurisdictions())
	assert.Equal(t, []engine.Jurisdiction{"BC", "ON"}, after.Jurisdictions())
}

func TestParseRegime(t *testing.T) {
	r, err := engine.ParseRegime("Postjudgment")
	require.NoError(t, err)
	assert.Equal(t, engine.Postjudgment, r)

	_, err = engine.ParseRegime("penalty")
	assert.ErrorIs(t, err, engine.ErrUnknownRegime)
}
