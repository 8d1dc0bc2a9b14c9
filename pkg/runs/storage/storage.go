// Package storage provides run ledger backends.
//
// MemoryStorage keeps records in a map and is meant for tests and the
// memory engine. SQLiteStorage persists records with WAL mode, a busy
// timeout and indexes on start time, status, token and request id.
//
// Both backends order query results by start time (newest first unless the
// query asks for "asc"), apply Count and Delete without pagination, and
// return runs.ErrNotFound from Get for an unknown id.
package storage

import (
	"fmt"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/runs"
)

// New opens the backend selected by cfg.Backend.
func New(cfg config.RunsConfig) (runs.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLite)
	case "memory":
		return NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unknown runs backend %q", cfg.Backend)
}
