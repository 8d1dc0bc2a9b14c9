package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/cli"
	"mercator-hq/quotegate/pkg/normalize"
)

var submitFlags struct {
	file   string
	output string
	quiet  bool
}

// requestFlags maps submit flags to request fields. Values are passed as
// typed on the command line; normalization parses them.
var requestFlags = []struct {
	flag  string
	field string
	usage string
}{
	{"job-type", normalize.FieldJobType, "job type, e.g. \"Renovering badrum\""},
	{"region", normalize.FieldRegion, "region: storstad, mellanstor, landsbygd (or urban, mid, rural)"},
	{"pricing", normalize.FieldPricingModel, "pricing model: LOPANDE (hourly) or FAST (fixed)"},
	{"fixed-price", normalize.FieldFixedPrice, "fixed price, required with FAST"},
	{"hours", normalize.FieldHours, "estimated hours"},
	{"hourly-rate", normalize.FieldHourlyRate, "hourly rate, required with LOPANDE"},
	{"material-cost", normalize.FieldMaterialCost, "material cost"},
	{"subcontractor-cost", normalize.FieldSubcontractorCost, "subcontractor cost"},
	{"employees", normalize.FieldEmployees, "number of employees on the job"},
	{"adjustment", normalize.FieldAdjustment, "adjustment step"},
	{"email", normalize.FieldEmail, "contact email (kept in the ledger, redacted)"},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit pricing requests to the engine",
	Long: `Submit one request built from flags, or every request in a JSON file.

The file holds a single request object or an array of them, with the same
fields as the preview API. Batches are submitted one at a time, since the
engine has a single input slot.

Exit codes: 3 invalid request, 4 engine busy, 5 engine timeout,
6 engine failure. A batch with any failure exits 1.

Examples:
  # Fixed price, standard hours
  quotegate submit --job-type "Renovering badrum" --region storstad \
      --pricing FAST --fixed-price 85000 --material-cost 12500 --rot

  # Batch from a file, JSON results
  quotegate submit --file requests.json --output json`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	flags := submitCmd.Flags()
	for _, rf := range requestFlags {
		flags.String(rf.flag, "", rf.usage)
	}
	flags.Bool("rot", false, "apply the ROT deduction")
	flags.StringVarP(&submitFlags.file, "file", "f", "", "JSON file with a request object or array (- for stdin)")
	flags.StringVarP(&submitFlags.output, "output", "o", "text", "output format: text, json")
	flags.BoolVarP(&submitFlags.quiet, "quiet", "q", false, "no progress for batches")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(submitFlags.output)
	if err != nil {
		return err
	}

	var reqs []normalize.Request
	if submitFlags.file != "" {
		reqs, err = readRequestFile(cmd.InOrStdin(), submitFlags.file)
		if err != nil {
			return cli.NewCommandError("submit", err)
		}
	} else {
		req := requestFromFlags(cmd.Flags())
		if len(req) == 0 {
			return cli.NewCommandError("submit", fmt.Errorf("no request fields given (use flags or --file)"))
		}
		reqs = []normalize.Request{req}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	c, err := newComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if len(reqs) == 1 {
		res, err := c.bridge.Submit(ctx, reqs[0])
		if err != nil {
			return err
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), resultView(res, format))
	}

	var progress cli.ProgressReporter
	if !submitFlags.quiet {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}
	outcomes := submitAll(ctx, c.bridge, reqs, progress)

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), outcomes); err != nil {
		return err
	}
	if failed := outcomes.Failed(); failed > 0 {
		return cli.NewCommandError("submit", fmt.Errorf("%d of %d submissions failed", failed, len(outcomes)))
	}
	return nil
}

// requestFromFlags builds a request from the flags that were set.
func requestFromFlags(flags *pflag.FlagSet) normalize.Request {
	req := normalize.Request{}
	for _, rf := range requestFlags {
		if f := flags.Lookup(rf.flag); f != nil && f.Changed {
			req[rf.field] = f.Value.String()
		}
	}
	if f := flags.Lookup("rot"); f != nil && f.Changed {
		rot, _ := strconv.ParseBool(f.Value.String())
		req[normalize.FieldROT] = rot
	}
	return req
}

// readRequestFile reads path, or stdin for "-".
func readRequestFile(stdin io.Reader, path string) ([]normalize.Request, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read requests: %w", err)
	}
	return parseRequests(data)
}

// parseRequests decodes a request object or an array of them.
func parseRequests(data []byte) ([]normalize.Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("request file is empty")
	}

	if data[0] == '[' {
		var reqs []normalize.Request
		if err := json.Unmarshal(data, &reqs); err != nil {
			return nil, fmt.Errorf("invalid request array: %w", err)
		}
		for i, req := range reqs {
			if req == nil {
				return nil, fmt.Errorf("request %d is not an object", i)
			}
		}
		if len(reqs) == 0 {
			return nil, fmt.Errorf("request array is empty")
		}
		return reqs, nil
	}

	var req normalize.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("request is not an object")
	}
	return []normalize.Request{req}, nil
}

// outcome is one entry of a batch submission.
type outcome struct {
	Index  int            `json:"index"`
	Status string         `json:"status"`
	Token  string         `json:"token,omitempty"`
	Result *bridge.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type outcomes []outcome

// Failed counts entries that did not produce a result.
func (o outcomes) Failed() int {
	n := 0
	for _, e := range o {
		if e.Result == nil {
			n++
		}
	}
	return n
}

// Headers implements cli.Table.
func (o outcomes) Headers() []string {
	return []string{"#", "STATUS", "DECISION", "RISK", "MARGIN", "TOKEN", "ERROR"}
}

// Rows implements cli.Table.
func (o outcomes) Rows() [][]string {
	rows := make([][]string, 0, len(o))
	for _, e := range o {
		decision, risk, margin := "-", "-", "-"
		if e.Result != nil {
			decision = e.Result.Decision
			risk = e.Result.RiskClass
			margin = strconv.FormatFloat(e.Result.ActualMargin, 'f', 2, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Index + 1), e.Status, decision, risk, margin, e.Token, e.Error,
		})
	}
	return rows
}

// submitAll submits reqs in order. A canceled context stops the batch;
// the remaining entries are reported as canceled.
func submitAll(ctx context.Context, b *bridge.Bridge, reqs []normalize.Request, progress cli.ProgressReporter) outcomes {
	if progress != nil {
		progress.Start(int64(len(reqs)))
		defer progress.Finish()
	}

	out := make(outcomes, 0, len(reqs))
	for i, req := range reqs {
		if ctx.Err() != nil {
			out = append(out, outcome{Index: i, Status: bridge.StatusCanceled, Error: ctx.Err().Error()})
			continue
		}

		res, err := b.Submit(ctx, req)
		entry := outcome{Index: i, Status: bridge.StatusOf(err), Result: res}
		if res != nil {
			entry.Token = string(res.Token)
		}
		if err != nil {
			entry.Token = string(bridge.TokenOf(err))
			entry.Error = err.Error()
		}
		out = append(out, entry)

		if progress != nil {
			progress.Advance(err)
		}
	}
	return out
}

// resultView returns what a single result prints as: the Result itself
// for JSON, labelled rows for text.
func resultView(res *bridge.Result, format cli.OutputFormat) any {
	if format == cli.FormatJSON {
		return res
	}

	var kv cli.KeyValues
	kv.Add("Decision", res.Decision)
	kv.Add("Risk class", res.RiskClass)
	kv.Add("Actual margin", strconv.FormatFloat(res.ActualMargin, 'f', 2, 64))
	kv.Add("Target margin", strconv.FormatFloat(res.TargetMargin, 'f', 2, 64))
	kv.Add("Required hourly rate", strconv.FormatFloat(res.RequiredHourlyRate, 'f', 2, 64))
	kv.Add("Hourly rate gap", strconv.FormatFloat(res.DiffHourlyRate, 'f', 2, 64))
	if res.ActionForGreen != "" {
		kv.Add("Action for green", res.ActionForGreen)
	}
	kv.Add("Locked", strconv.FormatBool(res.Locked))
	hours := res.HoursSource
	if res.HoursDefaulted {
		hours = fmt.Sprintf("%s (%.1f h)", res.HoursSource, res.StandardHours)
	}
	kv.Add("Hours", hours)
	kv.Add("Token", string(res.Token))
	return kv
}
