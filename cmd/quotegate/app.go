package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/cli"
	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/engine"
	"mercator-hq/quotegate/pkg/enginefactory"
	"mercator-hq/quotegate/pkg/runs"
	"mercator-hq/quotegate/pkg/runs/recorder"
	"mercator-hq/quotegate/pkg/runs/storage"
	"mercator-hq/quotegate/pkg/security/secrets"
	"mercator-hq/quotegate/pkg/telemetry/logging"
)

// loadConfig loads the configuration named by --config and installs the
// configured logger as the slog default.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if _, err := setupLogging(cfg.Telemetry.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(lc config.LoggingConfig) (*slog.Logger, error) {
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.Setup(logging.ConfigFromSettings(lc))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

// openEngine resolves secret references in the engine settings and opens
// the configured engine. cfg is not modified.
func openEngine(ctx context.Context, cfg *config.Config) (engine.Engine, error) {
	ec := cfg.Engine
	if ec.Backend == "sheets" {
		resolver, err := secrets.NewFromConfig(cfg.Security.Secrets)
		if err != nil {
			return nil, cli.NewConfigError("security.secrets.dir", err.Error())
		}
		if err := resolver.ResolveSheets(ctx, &ec.Sheets); err != nil {
			return nil, cli.NewConfigError("engine.sheets", err.Error())
		}
	}
	return enginefactory.New(ctx, ec)
}

// openLedger opens the run ledger, or returns nil storage when recording is
// disabled.
func openLedger(cfg *config.Config) (runs.Storage, error) {
	if !cfg.Runs.Enabled {
		return nil, nil
	}
	store, err := storage.New(cfg.Runs)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return store, nil
}

// components are the pieces a submitting command runs against. Close
// releases them in reverse order of creation.
type components struct {
	engine   engine.Engine
	store    runs.Storage
	recorder *recorder.Recorder
	bridge   *bridge.Bridge
}

// newComponents opens the engine and the ledger and builds a bridge that
// records to it.
func newComponents(ctx context.Context, cfg *config.Config, opts ...bridge.Option) (*components, error) {
	eng, err := openEngine(ctx, cfg)
	if err != nil {
		var cfgErr *cli.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, cli.NewCommandError("engine", err)
	}
	c := &components{engine: eng}

	store, err := openLedger(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	if store != nil {
		c.store = store
		c.recorder = recorder.NewRecorder(store, cfg.Runs.Recorder)
		opts = append(opts, bridge.WithSink(c.recorder))
	}

	c.bridge = bridge.New(eng, bridge.SettingsFromConfig(cfg), opts...)
	return c, nil
}

// Close flushes the recorder and closes the ledger and the engine.
func (c *components) Close() {
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			slog.Warn("failed to flush run ledger", "error", err)
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			slog.Warn("failed to close run ledger", "error", err)
		}
	}
	if err := engine.Close(c.engine); err != nil {
		slog.Warn("failed to close engine", "error", err)
	}
}
