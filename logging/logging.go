/*
Package logging builds the application's zerolog logger.

PURPOSE:
  One place decides level, output format and destination, so the server
  and the CLI log the same way. The engine package never logs; callers
  log around it.

OUTPUTS:
  console: Human-readable, for local runs
  json:    One JSON object per line, for log shippers

  When File is set, output also goes to a size-rotated file managed by
  lumberjack. Rotation settings are in megabytes and days.

USAGE:
  logger, closer, err := logging.New(cfg.Log, os.Stderr)
  if err != nil {
      return err
  }
  defer closer.Close()

SEE ALSO:
  - config/config.go: Where Config is loaded from
  - api/middleware.go: Request-scoped loggers
*/
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// =============================================================================
// CONFIG
// =============================================================================

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`

	// File enables rotated file output in addition to the writer passed to New.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     FormatConsole,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to out (and to cfg.File when set). The
// closer releases the rotated file; it is a no-op otherwise.
func New(cfg Config, out io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var w io.Writer
	switch strings.ToLower(cfg.Format) {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case FormatJSON:
		w = out
	default:
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		// Files always get JSON, whatever the terminal format.
		w = zerolog.MultiLevelWriter(w, rotated)
		closer = rotated
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
