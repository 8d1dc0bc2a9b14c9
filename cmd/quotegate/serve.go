package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/cli"
	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/runs/retention"
	"mercator-hq/quotegate/pkg/server"
	"mercator-hq/quotegate/pkg/telemetry/health"
	"mercator-hq/quotegate/pkg/telemetry/metrics"
	"mercator-hq/quotegate/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	noWatch       bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the preview API",
	Long: `Serve the preview API over HTTP.

POST /v1/preview submits one pricing request and answers with the engine's
result. /health, /ready, /version and the metrics path are served alongside.

When --config names a file, it is watched: bridge timing, output keys and
retention settings are applied to new submissions without a restart.

Examples:
  # Serve with defaults (in-memory demo engine)
  quotegate serve

  # Serve against a spreadsheet
  quotegate serve --config /etc/quotegate/config.yaml

  # Override listen address
  quotegate serve --listen 0.0.0.0:8080

  # Validate config without serving
  quotegate serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without serving")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}

	logger, err := setupLogging(cfg.Telemetry.Logging)
	if err != nil {
		return err
	}

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	tracer, err := tracing.New(cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)

	logger.Info("initializing engine", "backend", cfg.Engine.Backend)
	c, err := newComponents(ctx, cfg,
		bridge.WithObserver(collector),
		bridge.WithTracer(tracer),
		bridge.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	var scheduler *retention.Scheduler
	var pruner *retention.Pruner
	if c.store != nil {
		pruner = retention.NewPruner(c.store, cfg.Runs.Retention)
		scheduler = retention.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			logger.Warn("failed to start retention scheduler", "error", err)
		}
		defer scheduler.Stop()
	}

	checker := health.New(0)
	checker.Register("engine", health.EngineCheck(c.engine))

	srv := server.NewServer(&cfg.Server, &cfg.Security, server.Dependencies{
		Submitter:   c.bridge,
		Health:      checker,
		Metrics:     collector,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Tracer:      tracer,
		Build:       server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
	})

	if cfgFile != "" && !serveFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, 0, logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		go func() {
			if err := watcher.Watch(ctx, func(next *config.Config) {
				applyReload(ctx, c.bridge, pruner, scheduler, next)
			}); err != nil {
				logger.Error("config watcher stopped", "error", err)
			}
		}()
		defer func() { _ = watcher.Stop() }()
	}

	printBanner(cmd, cfg)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

// applyReload hands a reloaded configuration to the running components.
// Listener, engine and ledger backend settings need a restart.
func applyReload(ctx context.Context, b *bridge.Bridge, pruner *retention.Pruner, scheduler *retention.Scheduler, next *config.Config) {
	b.Reconfigure(bridge.SettingsFromConfig(next))

	if pruner == nil {
		return
	}
	if pruner.Config() == next.Runs.Retention {
		return
	}
	pruner.SetConfig(next.Runs.Retention)
	scheduler.Stop()
	if err := scheduler.Start(ctx); err != nil {
		slog.Warn("failed to restart retention scheduler", "error", err)
	}
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "quotegate v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(out, "✓ Configuration loaded from %s\n", cfgFile)
	} else {
		fmt.Fprintln(out, "✓ Using built-in configuration")
	}
	fmt.Fprintf(out, "✓ Engine: %s\n", cfg.Engine.Backend)
	if cfg.Runs.Enabled {
		fmt.Fprintf(out, "✓ Run ledger: %s\n", cfg.Runs.Backend)
	}
	fmt.Fprintf(out, "✓ Listening on %s (preview: %s)\n", cfg.Server.ListenAddress, server.PreviewPath)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
