/*
Package config loads runtime configuration for the server and the CLI.

SOURCES (later wins):
  1. Defaults (DefaultConfig)
  2. Config file (YAML/JSON/TOML, by extension) when a path is given,
     otherwise ./interest.yaml if present
  3. .env files, loaded into the process environment by godotenv
  4. Environment variables, prefixed INTEREST_ with dots as underscores:
     INTEREST_SERVER_ADDR, INTEREST_STORE_PATH, INTEREST_LOG_LEVEL, ...

EXAMPLE FILE:
  server:
    addr: ":8080"
    shutdown_timeout: 30s
    refresh_interval: 1m
  store:
    driver: sqlite
    path: ./data/rates.db
  log:
    level: info
    format: json
  seed:
    rates_file: ./rates/example.yaml

SEE ALSO:
  - logging/logging.go: Log section
  - cmd/interest/main.go: Flags that override the file
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/warp/judgment-interest/logging"
)

const EnvPrefix = "INTEREST"

// =============================================================================
// CONFIG TYPES
// =============================================================================

type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	Store  StoreConfig    `mapstructure:"store"`
	Log    logging.Config `mapstructure:"log"`
	Seed   SeedConfig     `mapstructure:"seed"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`

	// RefreshInterval is how often the server looks for rate imports made
	// by other processes. 0 disables it.
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite memory"`
	// Path is the SQLite file; ":memory:" keeps it in process.
	Path string `mapstructure:"path" validate:"required_if=Driver sqlite"`
}

// SeedConfig names a rate-table document imported at startup when the
// store has no schedules yet.
type SeedConfig struct {
	RatesFile string `mapstructure:"rates_file"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
			RefreshInterval: time.Minute,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "interest.db",
		},
		Log: logging.DefaultConfig(),
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration. path may be empty. envFiles default to ".env";
// missing env files are ignored, malformed ones are not.
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("interest")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can bind it during
// Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.refresh_interval", d.Server.RefreshInterval)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("seed.rates_file", d.Seed.RatesFile)
}
