/*
Package sqlite provides a SQLite-backed engine.RateStore.

PURPOSE:
  Keeps published rate tables and their import history between runs
  of the server and the CLI. The engine never reads SQL; it receives the
  *engine.RateTable snapshot built by LoadTable.

KEY TABLES:
  rate_periods: One row per published period, keyed by jurisdiction
  rate_imports: One row per SaveSchedule call

STORAGE FORMAT:
  Dates are stored as YYYY-MM-DD text, rates as decimal text. Both sort
  and compare correctly as strings and never pass through float64.

REPLACE SEMANTICS:
  SaveSchedule deletes a jurisdiction's periods and inserts the new ones
  in a single transaction, together with the import record. A reader
  sees the old schedule or the new one, never a mix.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single open connection, so
  ":memory:" databases behave the same as files.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the writer.

USAGE:
  store, err := sqlite.New("./data/rates.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  table, err := store.LoadTable(ctx)

SEE ALSO:
  - engine/store.go: RateStore interface
  - engine/store/memory.go: In-memory implementation for testing
  - factory/ratetable.go: Documents that feed SaveSchedule
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/judgment-interest/engine"
)

// Store implements engine.RateStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// now is swapped in tests.
	now func() time.Time
}

var _ engine.RateStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Published rate periods (replaced per jurisdiction)
	CREATE TABLE IF NOT EXISTS rate_periods (
		jurisdiction TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		prejudgment TEXT NOT NULL,
		postjudgment TEXT NOT NULL,
		import_id TEXT NOT NULL,
		PRIMARY KEY (jurisdiction, start_date)
	);

	-- Range lookups walk periods in start order
	CREATE INDEX IF NOT EXISTS idx_rate_periods_jurisdiction_end
		ON rate_periods(jurisdiction, end_date);

	-- Import history (append-only)
	CREATE TABLE IF NOT EXISTS rate_imports (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		period_count INTEGER NOT NULL,
		source TEXT,
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_imports_jurisdiction
		ON rate_imports(jurisdiction, imported_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RATE STORE (engine.RateStore interface)
// =============================================================================

// SaveSchedule replaces j's periods and records the import.
func (s *Store) SaveSchedule(ctx context.Context, j engine.Jurisdiction, sched engine.Schedule, source string) (engine.ImportRecord, error) {
	if j == "" {
		return engine.ImportRecord{}, fmt.Errorf("%w: empty jurisdiction name", engine.ErrInvalidRateTable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := engine.ImportRecord{
		ID:           uuid.NewString(),
		Jurisdiction: j,
		Periods:      sched.Len(),
		Source:       source,
		ImportedAt:   s.now().UTC().Truncate(time.Second),
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.ImportRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM rate_periods WHERE jurisdiction = ?`, j); err != nil {
		return engine.ImportRecord{}, fmt.Errorf("failed to clear schedule: %w", err)
	}

	insert := `
		INSERT INTO rate_periods
		(jurisdiction, start_date, end_date, prejudgment, postjudgment, import_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, p := range sched.Periods() {
		_, err := sqlTx.ExecContext(ctx, insert,
			j,
			p.Start.String(),
			p.End.String(),
			p.Prejudgment.String(),
			p.Postjudgment.String(),
			rec.ID,
		)
		if err != nil {
			return engine.ImportRecord{}, fmt.Errorf("failed to insert period %s: %w", p, err)
		}
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO rate_imports (id, jurisdiction, period_count, source, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, j, rec.Periods, nullString(source), rec.ImportedAt.Format(time.RFC3339))
	if err != nil {
		return engine.ImportRecord{}, fmt.Errorf("failed to record import: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return engine.ImportRecord{}, fmt.Errorf("failed to commit schedule: %w", err)
	}
	return rec, nil
}

// LoadSchedule returns j's schedule or engine.ErrUnknownJurisdiction.
func (s *Store) LoadSchedule(ctx context.Context, j engine.Jurisdiction) (engine.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules, err := s.loadSchedules(ctx, `WHERE jurisdiction = ?`, j)
	if err != nil {
		return engine.Schedule{}, err
	}
	sched, ok := schedules[j]
	if !ok {
		return engine.Schedule{}, fmt.Errorf("%w: %q", engine.ErrUnknownJurisdiction, j)
	}
	return sched, nil
}

// LoadTable reads every jurisdiction into one snapshot.
func (s *Store) LoadTable(ctx context.Context) (*engine.RateTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules, err := s.loadSchedules(ctx, "")
	if err != nil {
		return nil, err
	}
	return engine.NewRateTable(schedules), nil
}

func (s *Store) ListJurisdictions(ctx context.Context) ([]engine.Jurisdiction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT jurisdiction FROM rate_periods ORDER BY jurisdiction`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jurisdictions: %w", err)
	}
	defer rows.Close()

	var result []engine.Jurisdiction
	for rows.Next() {
		var j string
		if err := rows.Scan(&j); err != nil {
			return nil, err
		}
		result = append(result, engine.Jurisdiction(j))
	}
	return result, rows.Err()
}

// ListImports returns import records newest first. Empty j lists all.
func (s *Store) ListImports(ctx context.Context, j engine.Jurisdiction) ([]engine.ImportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, jurisdiction, period_count, source, imported_at FROM rate_imports`
	var args []any
	if j != "" {
		query += ` WHERE jurisdiction = ?`
		args = append(args, j)
	}
	query += ` ORDER BY imported_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var result []engine.ImportRecord
	for rows.Next() {
		var (
			rec        engine.ImportRecord
			juris      string
			source     sql.NullString
			importedAt string
		)
		if err := rows.Scan(&rec.ID, &juris, &rec.Periods, &source, &importedAt); err != nil {
			return nil, err
		}
		rec.Jurisdiction = engine.Jurisdiction(juris)
		rec.Source = source.String
		rec.ImportedAt, err = time.Parse(time.RFC3339, importedAt)
		if err != nil {
			return nil, fmt.Errorf("import %s: bad timestamp %q: %w", rec.ID, importedAt, err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// loadSchedules groups rows by jurisdiction and validates each schedule
// again, so a hand-edited database cannot hand the engine an overlap.
func (s *Store) loadSchedules(ctx context.Context, where string, args ...any) (map[engine.Jurisdiction]engine.Schedule, error) {
	query := `
		SELECT jurisdiction, start_date, end_date, prejudgment, postjudgment
		FROM rate_periods ` + where + `
		ORDER BY jurisdiction, start_date
	`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate periods: %w", err)
	}
	defer rows.Close()

	grouped := make(map[engine.Jurisdiction][]engine.RatePeriod)
	for rows.Next() {
		j, p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		grouped[j] = append(grouped[j], p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make(map[engine.Jurisdiction]engine.Schedule, len(grouped))
	for j, periods := range grouped {
		sched, err := engine.NewSchedule(periods)
		if err != nil {
			return nil, fmt.Errorf("jurisdiction %s: %w", j, err)
		}
		result[j] = sched
	}
	return result, nil
}

func scanPeriod(rows *sql.Rows) (engine.Jurisdiction, engine.RatePeriod, error) {
	var juris, start, end, pre, post string
	if err := rows.Scan(&juris, &start, &end, &pre, &post); err != nil {
		return "", engine.RatePeriod{}, err
	}

	var (
		p    engine.RatePeriod
		errs []error
		err  error
	)
	if p.Start, err = engine.ParseDate(start); err != nil {
		errs = append(errs, err)
	}
	if p.End, err = engine.ParseDate(end); err != nil {
		errs = append(errs, err)
	}
	if p.Prejudgment, err = decimal.NewFromString(pre); err != nil {
		errs = append(errs, fmt.Errorf("prejudgment %q: %w", pre, err))
	}
	if p.Postjudgment, err = decimal.NewFromString(post); err != nil {
		errs = append(errs, fmt.Errorf("postjudgment %q: %w", post, err))
	}
	if len(errs) > 0 {
		return "", engine.RatePeriod{}, fmt.Errorf("%w: %s row %s: %w", engine.ErrInvalidRateTable, juris, start, errors.Join(errs...))
	}
	return engine.Jurisdiction(juris), p, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"rate_periods", "rate_imports"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
