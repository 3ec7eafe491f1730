package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warp/judgment-interest/api"
	"github.com/warp/judgment-interest/engine"
	"github.com/warp/judgment-interest/factory"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.Close()

			if addr != "" {
				rt.cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), rt)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, rt *app) error {
	logger := rt.logger
	cfg := rt.cfg

	rates, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := seed(ctx, rt, rates); err != nil {
		return err
	}

	handler := api.NewHandler(rates)
	if err := handler.LoadRates(ctx); err != nil {
		return err
	}
	logger.Info().
		Int("jurisdictions", len(handler.Rates().Jurisdictions())).
		Str("store", cfg.Store.Driver).
		Msg("rate table loaded")

	refresher := api.NewRateRefresher(handler, cfg.Server.RefreshInterval, logger)
	refresher.Start(ctx)
	defer refresher.Stop()

	router := api.NewRouter(handler, api.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SlowRequest:    cfg.Server.WriteTimeout / 2,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting server")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-shutdown:
		logger.Info().Msg("shutdown initiated")
	case <-ctx.Done():
		logger.Info().Msg("context cancelled, shutting down")
	}

	// Give outstanding requests a deadline for completion.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return server.Close()
	}

	logger.Info().Msg("server stopped")
	return nil
}

// seed imports cfg.Seed.RatesFile when the store has no schedules yet.
func seed(ctx context.Context, rt *app, rates engine.RateStore) error {
	path := rt.cfg.Seed.RatesFile
	if path == "" {
		return nil
	}

	existing, err := rates.ListJurisdictions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		rt.logger.Debug().Int("jurisdictions", len(existing)).Msg("store already has rates, skipping seed")
		return nil
	}

	records, err := factory.NewRateTableFactory().ImportFile(ctx, rates, path)
	if err != nil {
		return err
	}
	for _, rec := range records {
		rt.logger.Info().
			Str("jurisdiction", string(rec.Jurisdiction)).
			Int("periods", rec.Periods).
			Str("file", path).
			Msg("seeded rate table")
	}
	return nil
}
