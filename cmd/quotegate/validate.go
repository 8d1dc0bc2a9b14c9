package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/cli"
	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/engine"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/telemetry/health"
)

var validateFlags struct {
	request string
	ping    bool
	timeout time.Duration
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and requests without submitting",
	Long: `Validate the configuration, and optionally requests and engine access.

With --request, each request is normalized and the fields that would be
written to the engine are printed, including substituted standard hours.
Nothing is written. With --ping, the engine's output table is read once.

Examples:
  # Check a configuration file
  quotegate validate --config config.yaml

  # Show what a request would write
  quotegate validate --request request.json

  # Check that the spreadsheet is reachable with the configured credentials
  quotegate validate --config config.yaml --ping`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.request, "request", "r", "", "JSON file with a request object or array (- for stdin)")
	validateCmd.Flags().BoolVar(&validateFlags.ping, "ping", false, "read the engine output table once")
	validateCmd.Flags().DurationVar(&validateFlags.timeout, "timeout", 10*time.Second, "ping timeout")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printConfigSummary(out, cfg)

	if validateFlags.request != "" {
		reqs, err := readRequestFile(cmd.InOrStdin(), validateFlags.request)
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		n := normalize.New(bridge.SettingsFromConfig(cfg).Hours)
		if err := validateRequests(out, n, reqs); err != nil {
			return err
		}
	}

	if validateFlags.ping {
		ctx, cancel := context.WithTimeout(cmd.Context(), validateFlags.timeout)
		defer cancel()
		if err := pingEngine(ctx, cfg); err != nil {
			return cli.NewCommandError("validate", err)
		}
		fmt.Fprintf(out, "✓ Engine %s reachable\n", cfg.Engine.Backend)
	}
	return nil
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	if cfgFile != "" {
		fmt.Fprintf(w, "✓ Configuration valid: %s\n", cfgFile)
	} else {
		fmt.Fprintln(w, "✓ Built-in configuration valid")
	}
	fmt.Fprintf(w, "  engine: %s\n", cfg.Engine.Backend)
	fmt.Fprintf(w, "  bridge: poll %s, deadline %s, queue %s\n",
		cfg.Bridge.PollInterval, cfg.Bridge.Deadline, cfg.Bridge.QueueTimeout)
	if cfg.Runs.Enabled {
		fmt.Fprintf(w, "  runs: %s, keep %d days\n", cfg.Runs.Backend, cfg.Runs.Retention.Days)
	} else {
		fmt.Fprintln(w, "  runs: disabled")
	}
}

// validateRequests normalizes each request and prints its engine fields or
// its field errors. It fails if any request is invalid.
func validateRequests(w io.Writer, n *normalize.Normalizer, reqs []normalize.Request) error {
	invalid := 0
	for i, req := range reqs {
		in, err := n.Normalize(req)
		if err != nil {
			invalid++
			fmt.Fprintf(w, "✗ Request %d invalid\n", i+1)
			var verr *normalize.ValidationError
			if errors.As(err, &verr) {
				for _, fe := range verr.Errors {
					fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
				}
			}
			continue
		}

		fmt.Fprintf(w, "✓ Request %d valid\n", i+1)
		var kv cli.KeyValues
		for _, f := range bridge.Fields(in) {
			value := "(empty)"
			if f.Value != nil {
				value = fmt.Sprint(f.Value)
			}
			if f.Key == engine.KeyHours && in.WasDefaulted(normalize.FieldHours) {
				value += " (standard)"
			}
			kv.Add("  "+f.Key, value)
		}
		if err := (&cli.TextFormatter{}).FormatTo(w, kv); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return &normalize.ValidationError{Errors: []normalize.FieldError{{
			Field:   "request",
			Code:    normalize.CodeInvalid,
			Message: fmt.Sprintf("%d of %d requests invalid", invalid, len(reqs)),
		}}}
	}
	return nil
}

// pingEngine opens the configured engine and reads its output table once.
func pingEngine(ctx context.Context, cfg *config.Config) error {
	eng, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close(eng) }()

	return health.EngineCheck(eng)(ctx)
}
