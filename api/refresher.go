/*
refresher.go - Periodic rate-table reload

PURPOSE:
  The CLI can import rates into the same SQLite file the server reads.
  The refresher notices new imports and swaps a fresh snapshot into the
  Handler, so the server picks up published rates without a restart.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Compares the newest import ID with the last one seen
  - Reloads the whole table only when it changed
  - A failed reload keeps the current snapshot and is retried next tick

USAGE:
  refresher := NewRateRefresher(handler, time.Minute, logger)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - handlers.go: LoadRates and the snapshot lock
  - engine/store.go: ListImports
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RateRefresher reloads the Handler's rate table after external imports.
type RateRefresher struct {
	Handler       *Handler
	CheckInterval time.Duration

	logger   zerolog.Logger
	lastSeen string

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRateRefresher creates a refresher. An interval of 0 disables it.
func NewRateRefresher(h *Handler, interval time.Duration, logger zerolog.Logger) *RateRefresher {
	return &RateRefresher{
		Handler:       h,
		CheckInterval: interval,
		logger:        logger.With().Str("component", "rate_refresher").Logger(),
	}
}

// Start begins polling. It records the current newest import first so
// the table loaded at startup is not loaded twice.
func (rr *RateRefresher) Start(ctx context.Context) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.CheckInterval <= 0 {
		rr.logger.Info().Msg("disabled, not starting")
		return
	}
	if rr.ticker != nil {
		return
	}

	rr.lastSeen, _ = rr.newestImport(ctx)
	rr.ticker = time.NewTicker(rr.CheckInterval)
	rr.stop = make(chan struct{})
	rr.wg.Add(1)

	go rr.run(ctx)

	rr.logger.Info().Dur("interval", rr.CheckInterval).Msg("started")
}

// Stop stops polling and waits for an in-flight check.
func (rr *RateRefresher) Stop() {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.ticker != nil {
		rr.ticker.Stop()
		close(rr.stop)
		rr.wg.Wait()
		rr.ticker = nil
		rr.logger.Info().Msg("stopped")
	}
}

func (rr *RateRefresher) run(ctx context.Context) {
	defer rr.wg.Done()

	for {
		select {
		case <-rr.ticker.C:
			rr.CheckNow(ctx)
		case <-rr.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// CheckNow reloads the table if a new import appeared. It reports whether
// a reload happened.
func (rr *RateRefresher) CheckNow(ctx context.Context) bool {
	newest, err := rr.newestImport(ctx)
	if err != nil {
		rr.logger.Error().Err(err).Msg("failed to list imports")
		return false
	}
	if newest == rr.lastSeen {
		return false
	}

	if err := rr.Handler.LoadRates(ctx); err != nil {
		rr.logger.Error().Err(err).Msg("reload failed, keeping current table")
		return false
	}
	rr.lastSeen = newest

	rr.logger.Info().
		Str("import_id", newest).
		Int("jurisdictions", len(rr.Handler.Rates().Jurisdictions())).
		Msg("rate table reloaded")
	return true
}

func (rr *RateRefresher) newestImport(ctx context.Context) (string, error) {
	recs, err := rr.Handler.Store.ListImports(ctx, "")
	if err != nil || len(recs) == 0 {
		return "", err
	}
	return recs[0].ID, nil
}
