/*
main.go - Application entry point

PURPOSE:
  The interest command runs the HTTP server, computes one calculation
  from files, or imports a rate-table document into the store.

COMMANDS:
  serve   Start the HTTP API
  calc    Compute interest for a request file and print the result
  import  Load a rate-table document into the configured store

GLOBAL FLAGS:
  -c, --config    Config file (default: ./interest.yaml if present)
      --env-file  .env file loaded before reading the environment

EXAMPLES:
  # Serve with an in-memory store seeded from a document
  INTEREST_STORE_DRIVER=memory INTEREST_SEED_RATES_FILE=rates/example.yaml interest serve

  # Import rates into the SQLite database, then serve from it
  interest import --rates rates/example.yaml
  interest serve --addr :3000

  # One-off calculation without a database
  interest calc --rates rates/example.yaml --request request.json

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/judgment-interest/config"
	"github.com/warp/judgment-interest/engine"
	"github.com/warp/judgment-interest/engine/store"
	"github.com/warp/judgment-interest/logging"
	"github.com/warp/judgment-interest/store/sqlite"
)

var (
	cfgPath string
	envFile string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "interest",
		Short:         "Court-ordered interest calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file")

	rootCmd.AddCommand(newServeCmd(), newCalcCmd(), newImportCmd())
	return rootCmd
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// app is what every command needs after configuration is read.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
	closer io.Closer
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgPath, envFile)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &app{cfg: cfg, logger: logger, closer: closer}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

type closeFunc func() error

// openStore builds the RateStore named by the config.
func openStore(cfg config.StoreConfig) (engine.RateStore, closeFunc, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemory(), func() error { return nil }, nil
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
