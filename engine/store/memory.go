// Package store provides RateStore implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/judgment-interest/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	schedules map[engine.Jurisdiction]engine.Schedule
	imports   []engine.ImportRecord

	// now is swapped in tests.
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		schedules: make(map[engine.Jurisdiction]engine.Schedule),
		now:       time.Now,
	}
}

// SaveSchedule replaces j's schedule. Schedules are values with private
// slices, so snapshots taken earlier keep the old periods.
func (m *Memory) SaveSchedule(_ context.Context, j engine.Jurisdiction, s engine.Schedule, source string) (engine.ImportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.schedules[j] = s
	rec := engine.ImportRecord{
		ID:           uuid.NewString(),
		Jurisdiction: j,
		Periods:      s.Len(),
		Source:       source,
		ImportedAt:   m.now().UTC(),
	}
	m.imports = append(m.imports, rec)
	return rec, nil
}

func (m *Memory) LoadSchedule(_ context.Context, j engine.Jurisdiction) (engine.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.schedules[j]
	if !ok {
		return engine.Schedule{}, fmt.Errorf("%w: %q", engine.ErrUnknownJurisdiction, j)
	}
	return s, nil
}

func (m *Memory) LoadTable(_ context.Context) (*engine.RateTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return engine.NewRateTable(m.schedules), nil
}

func (m *Memory) ListJurisdictions(ctx context.Context) ([]engine.Jurisdiction, error) {
	t, _ := m.LoadTable(ctx)
	return t.Jurisdictions(), nil
}

func (m *Memory) ListImports(_ context.Context, j engine.Jurisdiction) ([]engine.ImportRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.ImportRecord
	for i := len(m.imports) - 1; i >= 0; i-- {
		if rec := m.imports[i]; j == "" || rec.Jurisdiction == j {
			result = append(result, rec)
		}
	}
	sort.SliceStable(result, func(a, b int) bool {
		return result[a].ImportedAt.After(result[b].ImportedAt)
	})
	return result, nil
}
