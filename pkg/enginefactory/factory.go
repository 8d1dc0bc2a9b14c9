// Package enginefactory builds the configured engine adapter.
package enginefactory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"google.golang.org/api/option"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/engine"
	"mercator-hq/quotegate/pkg/engine/memory"
	"mercator-hq/quotegate/pkg/engine/sheets"
	"mercator-hq/quotegate/pkg/engine/sqlite"
)

// New creates the engine selected by cfg.Backend.
//
// Supported backends:
//   - "sheets": Google Sheets spreadsheet
//   - "sqlite": shared SQLite file
//   - "memory": in-process engine running memory.DemoCompute
//
// Extra client options are passed to the Sheets adapter only.
func New(ctx context.Context, cfg config.EngineConfig, opts ...option.ClientOption) (engine.Engine, error) {
	slog.Debug("creating engine", "backend", cfg.Backend)

	switch cfg.Backend {
	case "sheets":
		e, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			CredentialsJSON: cfg.Sheets.CredentialsJSON,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			InputCells:      cfg.Sheets.InputCells,
			TokenCell:       cfg.Sheets.TokenCell,
			OutputRange:     cfg.Sheets.OutputRange,
			Timeout:         cfg.Sheets.Timeout,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets engine: %w", err)
		}
		return e, nil

	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create engine directory: %w", err)
			}
		}
		e, err := sqlite.New(sqlite.Config{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite engine: %w", err)
		}
		return e, nil

	case "memory":
		return memory.New(memory.DemoCompute, cfg.Memory.Latency), nil

	default:
		return nil, fmt.Errorf("unsupported engine backend: %q (supported: sheets, sqlite, memory)", cfg.Backend)
	}
}
