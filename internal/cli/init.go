// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/tally and cmd/tally-worker.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/log"
	"tally/internal/store"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	logger := log.New(cfg).WithComponent(component)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore constructs the configured storage backend.
// Returns the store or exits the process on failure.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) store.Store {
	st, err := backend.Open(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return st
}
