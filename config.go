package signals

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds configuration for a signals engine and its CLI.
type Config struct {
	// Driver selects the store backend: "memory", "sqlite" or "postgres".
	Driver string `yaml:"driver" env:"SIGNALS_DRIVER"`

	// DSN is the data source name for the sqlite and postgres drivers.
	DSN string `yaml:"dsn" env:"SIGNALS_DSN"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"SIGNALS_LOG_LEVEL"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format" env:"SIGNALS_LOG_FORMAT"`

	// MaxDepth bounds nested Raise calls made from inside handlers.
	MaxDepth int `yaml:"max_depth" env:"SIGNALS_MAX_DEPTH"`

	// SlowHandlerThreshold makes the logging middleware warn about handlers
	// that run longer than this. Zero disables the warning.
	SlowHandlerThreshold time.Duration `yaml:"slow_handler_threshold" env:"SIGNALS_SLOW_HANDLER_THRESHOLD"`

	// RedisAddr enables the post-commit relay when non-empty.
	RedisAddr string `yaml:"redis_addr" env:"SIGNALS_REDIS_ADDR"`

	// RelayStream is the Redis stream the relay appends to.
	RelayStream string `yaml:"relay_stream" env:"SIGNALS_RELAY_STREAM"`

	// DemoDelay is how long the blocking demo handler sleeps.
	DemoDelay time.Duration `yaml:"demo_delay" env:"SIGNALS_DEMO_DELAY"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:               "sqlite",
		DSN:                  "file::memory:?cache=shared",
		LogLevel:             "info",
		LogFormat:            "text",
		MaxDepth:             16,
		SlowHandlerThreshold: time.Second,
		RelayStream:          "signals:events",
		DemoDelay:            3 * time.Second,
	}
}

// LoadConfig starts from DefaultConfig, applies the YAML file at path when
// path is non-empty, overlays SIGNALS_* environment variables and validates
// the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("signals: read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("signals: parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("signals: parse environment: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate reports configuration values that cannot work.
func (c Config) Validate() error {
	var errs []error

	switch c.Driver {
	case "memory", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", c.Driver))
	}
	if c.Driver != "memory" && c.DSN == "" {
		errs = append(errs, fmt.Errorf("driver %q requires a dsn", c.Driver))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max depth must be positive, got %d", c.MaxDepth))
	}
	if c.SlowHandlerThreshold < 0 {
		errs = append(errs, fmt.Errorf("slow handler threshold must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
