/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: zerolog request-scoped logger and access log
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for frontends

ROUTE GROUPS:
  /api/calculations        Interest calculations
  /api/jurisdictions/*     Rate tables and lookups
  /api/imports             Import history
  /healthz                 Liveness

SECURITY NOTE:
  No authentication middleware currently. PUT on rates is open to anyone
  who can reach the server; deploy behind an authenticating proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/interest/main.go: Server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type RouterOptions struct {
	Logger         zerolog.Logger
	AllowedOrigins []string

	// SlowRequest marks requests at or above it as warnings. 0 disables.
	SlowRequest time.Duration
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(opts.Logger, opts.SlowRequest))
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{requestIDHeader},
		}))
	}

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/calculations", h.Calculate)

		r.Route("/jurisdictions", func(r chi.Router) {
			r.Get("/", h.ListJurisdictions)
			r.Route("/{jurisdiction}", func(r chi.Router) {
				r.Get("/rates", h.GetRates)
				r.Put("/rates", h.ReplaceRates)
				r.Get("/rates/{date}", h.GetRateOn)
				r.Get("/imports", h.ListImports)
			})
		})

		r.Get("/imports", h.ListImports)
	})

	return r
}
