package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/warp/judgment-interest/engine"
)

func TestRateRefresher_ReloadsAfterExternalImport(t *testing.T) {
	// GIVEN: A server handler loaded from the store
	// WHEN: Another process imports ON into the same store
	// THEN: The next check swaps in a table that includes ON
	ctx := context.Background()
	_, h, mem := newTestServer(t)

	rr := NewRateRefresher(h, time.Minute, zerolog.Nop())
	rr.lastSeen, _ = rr.newestImport(ctx)
	assert.False(t, rr.CheckNow(ctx), "nothing new yet")

	_, err := mem.SaveSchedule(ctx, "ON", engine.MustSchedule(period("2022-01-01", "2022-12-31", "1.3", "2")), "cli")
	require.NoError(t, err)

	assert.True(t, rr.CheckNow(ctx))
	assert.Equal(t, []engine.Jurisdiction{"BC", "ON"}, h.Rates().Jurisdictions())
	assert.False(t, rr.CheckNow(ctx), "already seen")
}

func TestRateRefresher_KeepsTableOnFailure(t *testing.T) {
	ctx := context.Background()
	ms := new(mockRateStore)
	ms.On("ListImports", mock.Anything, engine.Jurisdiction("")).
		Return([]engine.ImportRecord{{ID: "new"}}, nil)
	ms.On("LoadTable", mock.Anything).Return(nil, errors.New("database is locked"))

	h := NewHandler(ms)
	before := h.Rates()

	rr := NewRateRefresher(h, time.Minute, zerolog.Nop())
	assert.False(t, rr.CheckNow(ctx))
	assert.Same(t, before, h.Rates())
	ms.AssertExpectations(t)
}

func TestRateRefresher_StartStop(t *testing.T) {
	ctx := context.Background()
	_, h, mem := newTestServer(t)

	rr := NewRateRefresher(h, 10*time.Millisecond, zerolog.Nop())
	rr.Start(ctx)
	defer rr.Stop()

	_, err := mem.SaveSchedule(ctx, "ON", engine.MustSchedule(period("2022-01-01", "2022-12-31", "1.3", "2")), "cli")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := h.Rates().Schedule("ON")
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestRateRefresher_Disabled(t *testing.T) {
	_, h, _ := newTestServer(t)

	rr := NewRateRefresher(h, 0, zerolog.Nop())
	rr.Start(context.Background())
	assert.Nil(t, rr.ticker)
	rr.Stop()
}
