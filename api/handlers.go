/*
handlers.go - HTTP API handlers for the judgment interest calculator

PURPOSE:
  Exposes the interest engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine.

ENDPOINTS:
  Calculations:
    POST   /api/calculations                              Compute interest

  Rates:
    GET    /api/jurisdictions                             List jurisdictions
    GET    /api/jurisdictions/{jurisdiction}/rates        Published periods
    GET    /api/jurisdictions/{jurisdiction}/rates/{date} Rate on a date (?regime=)
    PUT    /api/jurisdictions/{jurisdiction}/rates        Replace a schedule
    GET    /api/jurisdictions/{jurisdiction}/imports      Import history
    GET    /api/imports                                   All imports

  Health:
    GET    /healthz

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Where rate tables are persisted
  - Factory: Document to Schedule conversion
  - table: The current immutable *engine.RateTable snapshot

  Calculations read the snapshot under a read lock and never touch the
  store. A replace writes the store first, then swaps in a new snapshot.
  Calculations already running keep the table they started with.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, invalid date, inverted range, unknown regime,
         negative amount, malformed rate table
  - 404: Unknown jurisdiction, no rate on the requested date
  - 422: Rate table does not cover the requested range
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/errors.go: Error classification helpers
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/judgment-interest/engine"
	"github.com/warp/judgment-interest/factory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   engine.RateStore
	Factory *factory.RateTableFactory

	mu    sync.RWMutex
	table *engine.RateTable
}

// NewHandler creates a handler with an empty rate table. Call LoadRates
// before serving.
func NewHandler(store engine.RateStore) *Handler {
	return &Handler{
		Store:   store,
		Factory: factory.NewRateTableFactory(),
		table:   engine.NewRateTable(nil),
	}
}

// LoadRates replaces the snapshot with everything in the store.
func (h *Handler) LoadRates(ctx context.Context) error {
	table, err := h.Store.LoadTable(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rate table: %w", err)
	}

	h.mu.Lock()
	h.table = table
	h.mu.Unlock()
	return nil
}

// Rates returns the current snapshot.
func (h *Handler) Rates() *engine.RateTable {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.table
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate prices a request against the current rate table.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	body, err := ParseJSON[CalculateRequest](r)
	if err != nil {
		writeEngineError(w, r, "Invalid request body", err)
		return
	}

	req, err := body.ToRequest()
	if err != nil {
		writeEngineError(w, r, "Invalid request", err)
		return
	}

	result, err := engine.NewCalculator(h.Rates()).Calculate(req)
	if err != nil {
		writeEngineError(w, r, "Calculation failed", err)
		return
	}

	zerolog.Ctx(r.Context()).Debug().
		Str("jurisdiction", string(req.Jurisdiction)).
		Str("regime", string(req.Regime)).
		Int("rows", len(result.Details)).
		Str("total", result.Total.StringFixed(engine.CurrencyPlaces)).
		Msg("calculated")

	writeJSON(w, http.StatusOK, factory.NewResultJSON(result))
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// ListJurisdictions returns every jurisdiction in the snapshot, sorted.
func (h *Handler) ListJurisdictions(w http.ResponseWriter, r *http.Request) {
	table := h.Rates()
	names := table.Jurisdictions()

	dtos := make([]JurisdictionDTO, 0, len(names))
	for _, j := range names {
		s, err := table.Schedule(j)
		if err != nil {
			continue
		}
		dtos = append(dtos, toJurisdictionDTO(j, s))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetRates returns a jurisdiction's published periods in start order.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	j := jurisdictionParam(r)

	s, err := h.Rates().Schedule(j)
	if err != nil {
		writeEngineError(w, r, "Jurisdiction not found", err)
		return
	}

	writeJSON(w, http.StatusOK, factory.SchedulePeriods(s))
}

// GetRateOn returns the rate in force on {date}. ?regime= narrows the
// response to one column.
func (h *Handler) GetRateOn(w http.ResponseWriter, r *http.Request) {
	j := jurisdictionParam(r)

	on, err := engine.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeEngineError(w, r, "Invalid date", err)
		return
	}

	var regime engine.Regime
	if q := r.URL.Query().Get("regime"); q != "" {
		if regime, err = engine.ParseRegime(q); err != nil {
			writeEngineError(w, r, "Invalid regime", err)
			return
		}
	}

	s, err := h.Rates().Schedule(j)
	if err != nil {
		writeEngineError(w, r, "Jurisdiction not found", err)
		return
	}

	period, ok := s.PeriodOn(on)
	if !ok {
		writeError(w, http.StatusNotFound, "No rate published for date",
			&engine.RateNotFoundError{Regime: regime, Date: on})
		return
	}

	dto := RateOnDTO{
		Jurisdiction: string(j),
		Date:         on.String(),
		PeriodStart:  period.Start.String(),
		PeriodEnd:    period.End.String(),
	}
	if regime == "" || regime == engine.Prejudgment {
		dto.Prejudgment = period.Prejudgment.String()
	}
	if regime == "" || regime == engine.Postjudgment {
		dto.Postjudgment = period.Postjudgment.String()
	}

	writeJSON(w, http.StatusOK, dto)
}

// ReplaceRates validates and stores a new schedule for a jurisdiction,
// then swaps it into the snapshot.
func (h *Handler) ReplaceRates(w http.ResponseWriter, r *http.Request) {
	j := jurisdictionParam(r)
	if j == "" {
		writeError(w, http.StatusBadRequest, "Jurisdiction is required", nil)
		return
	}

	body, err := ParseJSON[ReplaceRatesRequest](r)
	if err != nil {
		writeEngineError(w, r, "Invalid request body", err)
		return
	}

	s, err := h.Factory.Schedule(body.Periods)
	if err != nil {
		writeEngineError(w, r, "Invalid rate table", err)
		return
	}

	source := body.Source
	if source == "" {
		source = "api"
	}
	rec, err := h.Store.SaveSchedule(r.Context(), j, s, source)
	if err != nil {
		writeEngineError(w, r, "Failed to save rate table", err)
		return
	}

	h.mu.Lock()
	h.table = h.table.With(j, s)
	h.mu.Unlock()

	zerolog.Ctx(r.Context()).Info().
		Str("jurisdiction", string(j)).
		Int("periods", rec.Periods).
		Str("import_id", rec.ID).
		Msg("rate table replaced")

	writeJSON(w, http.StatusOK, toImportDTO(rec))
}

// =============================================================================
// IMPORT HISTORY
// =============================================================================

// ListImports returns import history, newest first. Under
// /jurisdictions/{jurisdiction} it is filtered to that jurisdiction.
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListImports(r.Context(), jurisdictionParam(r))
	if err != nil {
		writeEngineError(w, r, "Failed to list imports", err)
		return
	}

	writeJSON(w, http.StatusOK, toImportDTOs(recs))
}

// Health reports liveness and how many jurisdictions are loaded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"jurisdictions": len(h.Rates().Jurisdictions()),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func jurisdictionParam(r *http.Request) engine.Jurisdiction {
	return engine.Jurisdiction(strings.TrimSpace(chi.URLParam(r, "jurisdiction")))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: errorCode(status)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError classifies err and logs server-side failures.
func writeEngineError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
	}
	writeError(w, status, message, err)
}

func errorStatus(err error) int {
	var bindErr *BindError
	switch {
	case errors.As(err, &bindErr):
		return http.StatusBadRequest
	case engine.IsNotFound(err):
		return http.StatusNotFound
	case engine.IsRateCoverage(err):
		return http.StatusUnprocessableEntity
	case engine.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "rate_coverage"
	default:
		return "internal"
	}
}
