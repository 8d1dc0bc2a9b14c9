package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/quotegate/pkg/cli"
	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/runs"
	"mercator-hq/quotegate/pkg/runs/export"
	"mercator-hq/quotegate/pkg/runs/query"
	"mercator-hq/quotegate/pkg/runs/retention"
)

var runsFlags struct {
	status     string
	token      string
	requestID  string
	since      string
	until      string
	limit      int
	offset     int
	order      string
	output     string
	format     string
	file       string
	days       int
	maxRecords int64
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run ledger",
	Long: `Inspect, export and prune the run ledger.

Every submission is recorded with its token, status, timings and inputs,
whatever its outcome. Timed-out runs keep the last output table seen.

Examples:
  # Timeouts of the last day
  quotegate runs list --status timeout --since 24h

  # One run by id or token
  quotegate runs show qg-2f1c...

  # Export a week as CSV
  quotegate runs export --since 168h --format csv --file week.csv

  # Apply the configured retention now
  quotegate runs prune`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE:  listRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id|token>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE:  showRun,
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs as JSON or CSV",
	RunE:  exportRuns,
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs beyond the retention policy",
	Long: `Delete runs older than the retention age, then the oldest runs beyond the
record cap. Flags override the configured policy for this run only.`,
	RunE: pruneRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsExportCmd, runsPruneCmd)

	for _, c := range []*cobra.Command{runsListCmd, runsExportCmd} {
		c.Flags().StringVar(&runsFlags.status, "status", "", "filter by status (ready, invalid, busy, timeout, transport, contract, canceled, error)")
		c.Flags().StringVar(&runsFlags.token, "token", "", "filter by correlation token")
		c.Flags().StringVar(&runsFlags.requestID, "request-id", "", "filter by request id")
		c.Flags().StringVar(&runsFlags.since, "since", "", "start time (RFC3339) or age (e.g. 24h)")
		c.Flags().StringVar(&runsFlags.until, "until", "", "end time (RFC3339) or age")
		c.Flags().IntVar(&runsFlags.limit, "limit", query.DefaultLimit, "max results")
		c.Flags().IntVar(&runsFlags.offset, "offset", 0, "pagination offset")
		c.Flags().StringVar(&runsFlags.order, "order", "desc", "sort order on start time: asc, desc")
	}
	runsListCmd.Flags().StringVarP(&runsFlags.output, "output", "o", "text", "output format: text, json")
	runsShowCmd.Flags().StringVarP(&runsFlags.output, "output", "o", "text", "output format: text, json")
	runsExportCmd.Flags().StringVar(&runsFlags.format, "format", "json", "export format: "+strings.Join(export.Formats, ", "))
	runsExportCmd.Flags().StringVar(&runsFlags.file, "file", "", "output file (default: stdout)")
	runsPruneCmd.Flags().IntVar(&runsFlags.days, "days", -1, "retention age in days (default: configured)")
	runsPruneCmd.Flags().Int64Var(&runsFlags.maxRecords, "max-records", -1, "record cap (default: configured)")
}

// openRunStore loads the configuration and opens the ledger for the runs
// commands.
func openRunStore() (runs.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openSharedLedger(cfg)
}

func openSharedLedger(cfg *config.Config) (runs.Storage, error) {
	if !cfg.Runs.Enabled {
		return nil, cli.NewConfigError("runs.enabled", "the run ledger is disabled")
	}
	if cfg.Runs.Backend == "memory" {
		return nil, cli.NewConfigError("runs.backend", "the memory ledger is not shared between processes")
	}
	return openLedger(cfg)
}

// buildRunQuery turns the filter flags into a validated query.
func buildRunQuery(now time.Time) (*runs.Query, error) {
	q := &runs.Query{
		Status:    runsFlags.status,
		Token:     runsFlags.token,
		RequestID: runsFlags.requestID,
		Limit:     runsFlags.limit,
		Offset:    runsFlags.offset,
		SortOrder: runsFlags.order,
	}

	if runsFlags.since != "" {
		t, err := parseTimeFlag(runsFlags.since, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
		q.StartTime = &t
	}
	if runsFlags.until != "" {
		t, err := parseTimeFlag(runsFlags.until, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --until: %w", err)
		}
		q.EndTime = &t
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return nil, err
	}
	return q, nil
}

// parseTimeFlag accepts an RFC3339 time or a duration counted back from now.
func parseTimeFlag(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC3339 nor a duration", s)
	}
	if d < 0 {
		return time.Time{}, fmt.Errorf("duration %q must not be negative", s)
	}
	return now.Add(-d), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(runsFlags.output)
	if err != nil {
		return err
	}
	q, err := buildRunQuery(time.Now())
	if err != nil {
		return cli.NewCommandError("runs list", err)
	}

	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("runs list", err)
	}
	return writeRunList(cmd.OutOrStdout(), format, records)
}

func writeRunList(w io.Writer, format cli.OutputFormat, records []*runs.Record) error {
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(w, map[string]any{
			"total_records": len(records),
			"records":       records,
		})
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	return cli.NewFormatter(format).FormatTo(w, runTable(records))
}

// runTable lists records one per line.
type runTable []*runs.Record

func (runTable) Headers() []string {
	return []string{"STARTED", "STATUS", "DURATION", "ATTEMPTS", "DECISION", "TOKEN", "ID"}
}

func (t runTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		decision := r.Decision
		if decision == "" {
			decision = "-"
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.Duration.Round(time.Millisecond).String(),
			strconv.Itoa(r.Attempts),
			decision,
			r.Token,
			r.ID,
		})
	}
	return rows
}

func showRun(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(runsFlags.output)
	if err != nil {
		return err
	}

	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := findRun(cmd.Context(), store, args[0])
	if err != nil {
		return cli.NewCommandError("runs show", err)
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), record)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), recordView(record))
}

// findRun looks key up as a record id, then as a token.
func findRun(ctx context.Context, store runs.Storage, key string) (*runs.Record, error) {
	record, err := store.Get(ctx, key)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, runs.ErrNotFound) {
		return nil, err
	}

	matches, err := store.Query(ctx, &runs.Query{Token: key, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no run with id or token %q", key)
	}
	return matches[0], nil
}

func recordView(r *runs.Record) cli.KeyValues {
	var kv cli.KeyValues
	kv.Add("ID", r.ID)
	kv.Add("Token", r.Token)
	if r.RequestID != "" {
		kv.Add("Request ID", r.RequestID)
	}
	kv.Add("Status", r.Status)
	if r.Error != "" {
		kv.Add("Error", r.Error)
	}
	kv.Add("Started", r.StartedAt.Local().Format(time.RFC3339))
	kv.Add("Duration", r.Duration.Round(time.Millisecond).String())
	kv.Add("Gate wait", r.GateWait.Round(time.Millisecond).String())
	kv.Add("Attempts", fmt.Sprintf("%d (%d stale)", r.Attempts, r.StaleReads))
	if len(r.InvalidFields) > 0 {
		kv.Add("Invalid fields", strings.Join(r.InvalidFields, ", "))
	}
	if len(r.Defaulted) > 0 {
		kv.Add("Defaulted", strings.Join(r.Defaulted, ", "))
	}
	if r.Decision != "" {
		kv.Add("Decision", r.Decision)
		kv.Add("Risk class", r.RiskClass)
		kv.Add("Actual margin", strconv.FormatFloat(r.ActualMargin, 'f', 2, 64))
		kv.Add("Locked", strconv.FormatBool(r.Locked))
	}
	if r.ContactEmail != "" {
		kv.Add("Contact", r.ContactEmail)
	}
	kv.Add("Input hash", r.InputHash)
	for _, key := range slices.Sorted(maps.Keys(r.LastSnapshot)) {
		kv.Add("Last output "+key, r.LastSnapshot[key])
	}
	return kv
}

func exportRuns(cmd *cobra.Command, args []string) error {
	exporter, err := export.ForFormat(runsFlags.format)
	if err != nil {
		return cli.NewCommandError("runs export", err)
	}
	q, err := buildRunQuery(time.Now())
	if err != nil {
		return cli.NewCommandError("runs export", err)
	}

	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("runs export", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if runsFlags.file != "" {
		f, err := os.Create(runsFlags.file)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := exporter.Export(cmd.Context(), records, out); err != nil {
		return cli.NewCommandError("runs export", err)
	}
	if runsFlags.file != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d runs to %s\n", len(records), runsFlags.file)
	}
	return nil
}

func pruneRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	policy := cfg.Runs.Retention
	if runsFlags.days >= 0 {
		policy.Days = runsFlags.days
	}
	if runsFlags.maxRecords >= 0 {
		policy.MaxRecords = runsFlags.maxRecords
	}
	if policy.Days == 0 && policy.MaxRecords == 0 {
		return cli.NewConfigError("runs.retention", "neither an age nor a record cap is set")
	}

	store, err := openSharedLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := retention.NewPruner(store, policy).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("runs prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d runs (days=%d, max_records=%d)\n", deleted, policy.Days, policy.MaxRecords)
	return nil
}
