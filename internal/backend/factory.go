// Package backend selects and constructs the storage backend from
// configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/config"
	"tally/internal/store"
	"tally/internal/store/postgres"
	"tally/internal/store/sqlite"
)

// Type selects the storage backend.
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	return string(t)
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLiteBackend, PostgresBackend}
}

// Open creates the backend named by the application config. The caller
// owns Close on the returned store.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	switch t {
	case SQLiteBackend:
		if cfg.SQLiteDBPath == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		s, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite store", "db_path", cfg.SQLiteDBPath)
		return s, nil
	case PostgresBackend:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend requires a connection URL")
		}
		s, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		logger.Info("Initialized postgres store")
		return s, nil
	default:
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}
}
