/*
store.go - Persistence interface for published rate tables

PURPOSE:
  Rate tables come from outside the engine. A RateStore is where the
  surrounding application keeps them; the engine itself only ever sees
  the immutable *RateTable snapshot a store hands out.

REPLACE, NEVER EDIT:
  SaveSchedule replaces a jurisdiction's whole schedule atomically.
  A table already returned by LoadTable is not affected by later saves,
  so a calculation in flight always reads one consistent snapshot.

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory for tests and the CLI
  - store/sqlite/sqlite.go: SQLite for the server

SEE ALSO:
  - rates.go: Schedule and RateTable
  - factory/ratetable.go: Documents loaded into a store
*/
package engine

import (
	"context"
	"time"
)

// =============================================================================
// RATE STORE
// =============================================================================

type RateStore interface {
	// SaveSchedule replaces j's schedule and records an import.
	SaveSchedule(ctx context.Context, j Jurisdiction, s Schedule, source string) (ImportRecord, error)

	// LoadSchedule returns j's schedule or ErrUnknownJurisdiction.
	LoadSchedule(ctx context.Context, j Jurisdiction) (Schedule, error)

	// LoadTable returns a snapshot of every schedule.
	LoadTable(ctx context.Context) (*RateTable, error)

	// ListJurisdictions returns jurisdictions with a schedule, sorted.
	ListJurisdictions(ctx context.Context) ([]Jurisdiction, error)

	// ListImports returns imports for j, newest first. Empty j lists all.
	ListImports(ctx context.Context, j Jurisdiction) ([]ImportRecord, error)
}

// ImportRecord describes one SaveSchedule call.
type ImportRecord struct {
	ID           string
	Jurisdiction Jurisdiction
	Periods      int
	Source       string // file name, "api", ...
	ImportedAt   time.Time
}
