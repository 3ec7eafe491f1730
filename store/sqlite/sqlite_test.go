package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/judgment-interest/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func period(start, end, pre, post string) engine.RatePeriod {
	return engine.RatePeriod{
		Start:        engine.MustParseDate(start),
		End:          engine.MustParseDate(end),
		Prejudgment:  engine.MustParseDecimal(pre),
		Postjudgment: engine.MustParseDecimal(post),
	}
}

func bc2022() engine.Schedule {
	return engine.MustSchedule(
		period("2022-01-01", "2022-06-30", "2.0", "3.0"),
		period("2022-07-01", "2022-12-31", "2.5", "3.5"),
	)
}

func TestStore_SaveAndLoadSchedule(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.SaveSchedule(ctx, "BC", bc2022(), "rates.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 2, rec.Periods)

	sched, err := s.LoadSchedule(ctx, "BC")
	require.NoError(t, err)
	periods := sched.Periods()
	require.Len(t, periods, 2)
	assert.Equal(t, "2022-07-01", periods[1].Start.String())
	assert.Equal(t, "2.5", periods[1].Prejudgment.String())
	assert.Equal(t, "3", periods[0].Postjudgment.String())
}

func TestStore_LoadSchedule_Unknown(t *testing.T) {
	_, err := newTestStore(t).LoadSchedule(context.Background(), "AB")
	assert.ErrorIs(t, err, engine.ErrUnknownJurisdiction)
}

func TestStore_SaveSchedule_Replaces(t *testing.T) {
	// GIVEN: BC saved, then a table is taken
	// WHEN: BC is replaced by a single-period schedule
	// THEN: The earlier snapshot is untouched; a fresh load sees one period
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SaveSchedule(ctx, "BC", bc2022(), "first")
	require.NoError(t, err)
	before, err := s.LoadTable(ctx)
	require.NoError(t, err)

	_, err = s.SaveSchedule(ctx, "BC", engine.MustSchedule(period("2023-01-01", "2023-12-31", "4", "5")), "second")
	require.NoError(t, err)

	old, err := before.Schedule("BC")
	require.NoError(t, err)
	assert.Equal(t, 2, old.Len())

	after, err := s.LoadSchedule(ctx, "BC")
	require.NoError(t, err)
	require.Equal(t, 1, after.Len())
	assert.Equal(t, "4", after.Periods()[0].Prejudgment.String())
}

func TestStore_LoadTable_AllJurisdictions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SaveSchedule(ctx, "ON", engine.MustSchedule(period("2022-01-01", "2022-12-31", "1.3", "2")), "")
	require.NoError(t, err)
	_, err = s.SaveSchedule(ctx, "BC", bc2022(), "")
	require.NoError(t, err)

	table, err := s.LoadTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []engine.Jurisdiction{"BC", "ON"}, table.Jurisdictions())

	rate, err := table.RateOn("ON", engine.Prejudgment, engine.MustParseDate("2022-05-05"))
	require.NoError(t, err)
	assert.Equal(t, "1.3", rate.String())

	names, err := s.ListJurisdictions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []engine.Jurisdiction{"BC", "ON"}, names)
}

func TestStore_ListImports_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	_, err := s.SaveSchedule(ctx, "BC", bc2022(), "a.yaml")
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, err = s.SaveSchedule(ctx, "ON", bc2022(), "b.yaml")
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, err = s.SaveSchedule(ctx, "BC", bc2022(), "")
	require.NoError(t, err)

	all, err := s.ListImports(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "", all[0].Source)
	assert.Equal(t, "b.yaml", all[1].Source)
	assert.Equal(t, "a.yaml", all[2].Source)
	assert.True(t, all[2].ImportedAt.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))

	bc, err := s.ListImports(ctx, "BC")
	require.NoError(t, err)
	require.Len(t, bc, 2)
	for _, rec := range bc {
		assert.Equal(t, engine.Jurisdiction("BC"), rec.Jurisdiction)
	}
}

func TestStore_RejectsCorruptRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_periods (jurisdiction, start_date, end_date, prejudgment, postjudgment, import_id)
		VALUES ('BC', '2022-01-01', '2022-06-30', 'two', '3', 'manual')
	`)
	require.NoError(t, err)

	_, err = s.LoadTable(ctx)
	assert.ErrorIs(t, err, engine.ErrInvalidRateTable)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SaveSchedule(ctx, "BC", bc2022(), "")
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))

	names, err := s.ListJurisdictions(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
	imports, err := s.ListImports(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, imports)
}
