package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/quotegate/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "quotegate",
	Short: "quotegate - synchronous bridge to a spreadsheet pricing engine",
	Long: `quotegate turns a pricing engine that only offers an input slot and an
output table into a synchronous request/response service.

Every submission is normalized, tagged with a fresh correlation token,
written under a single input slot lock, and answered only when the engine's
output table carries that token. Submissions are recorded in a run ledger.

Without --config the built-in defaults are used, with the in-memory demo
engine. QUOTEGATE_* environment variables override both.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
