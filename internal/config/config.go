// Package config loads fsmctl settings from the environment and .env files.
package config

import (
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

// Store names accepted in STATE_STORE.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Config holds the settings shared by every command. Backend settings are
// loaded separately, only for the selected store.
type Config struct {
	Env       string `env:"APP_ENV" envDefault:"development"` // Env is the deployment environment reported in logs.
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`      // LogLevel is one of debug, info, warn, error.
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`     // LogFormat is text or json.
	Store     string `env:"STATE_STORE" envDefault:"memory"`  // Store selects the state backend.
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis, StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: invalid LOG_LEVEL %q", ErrParsingConfig, c.LogLevel)
	}
	switch logger.Format(c.LogFormat) {
	case logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("%w: invalid LOG_FORMAT %q", ErrParsingConfig, c.LogFormat)
	}
	return nil
}

// Logger builds the process logger from the config.
func (c Config) Logger() *slog.Logger {
	return logger.New(
		logger.WithEnvironment(c.Env, "fsmctl"),
		logger.WithLevelName(c.LogLevel),
		logger.WithFormat(logger.Format(c.LogFormat)),
		logger.WithMachineContext(),
	)
}
