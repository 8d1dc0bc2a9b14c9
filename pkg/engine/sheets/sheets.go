// Package sheets implements the engine port on a Google Sheets spreadsheet.
//
// Each canonical input field is mapped to one A1 cell. Writes go through
// values.batchUpdate with USER_ENTERED so the sheet parses numbers and
// labels as if typed; reads fetch the output range with UNFORMATTED_VALUE so
// numbers arrive as numbers regardless of cell formatting.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"mercator-hq/quotegate/pkg/engine"
)

// Config configures the Sheets engine.
type Config struct {
	// SpreadsheetID is the id of the spreadsheet hosting the engine.
	SpreadsheetID string

	// CredentialsJSON is an inline service account key.
	CredentialsJSON string

	// CredentialsFile is a path to a service account key file.
	CredentialsFile string

	// InputCells maps canonical field names to A1 cells.
	InputCells map[string]string

	// TokenCell is the A1 cell receiving the correlation token.
	TokenCell string

	// OutputRange is the A1 range of the key/value output table.
	OutputRange string

	// Timeout bounds each API call. Zero leaves calls bounded only by the
	// caller's context.
	Timeout time.Duration
}

// Engine is an engine.Engine backed by a spreadsheet.
type Engine struct {
	svc    *sheetsapi.Service
	cfg    Config
	logger *slog.Logger
}

// New creates a Sheets engine. Credentials from cfg are added to opts when
// set; otherwise the client falls back to application default credentials or
// whatever opts supply.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Engine, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.TokenCell == "" {
		return nil, fmt.Errorf("token cell is required")
	}
	if cfg.OutputRange == "" {
		return nil, fmt.Errorf("output range is required")
	}

	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(sheetsapi.SpreadsheetsScope))

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return &Engine{
		svc:    svc,
		cfg:    cfg,
		logger: slog.Default().With("component", "engine.sheets"),
	}, nil
}

// WriteInputs implements engine.Engine. Fields are sent in one batchUpdate.
// Fields without a mapped cell are skipped, since a sheet need not model
// every canonical field.
func (e *Engine) WriteInputs(ctx context.Context, fields []engine.Field) error {
	data := make([]*sheetsapi.ValueRange, 0, len(fields))
	for _, f := range fields {
		cell := e.cellFor(f.Key)
		if cell == "" {
			e.logger.Debug("no cell mapped for input field, skipping", "field", f.Key)
			continue
		}
		data = append(data, &sheetsapi.ValueRange{
			Range:  cell,
			Values: [][]interface{}{{cellValue(f.Value)}},
		})
	}
	if len(data) == 0 {
		return nil
	}

	ctx, cancel := e.callContext(ctx)
	defer cancel()

	req := &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	if _, err := e.svc.Spreadsheets.Values.BatchUpdate(e.cfg.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets batchUpdate: %w", err)
	}
	return nil
}

// ReadOutputs implements engine.Engine.
func (e *Engine) ReadOutputs(ctx context.Context) ([]engine.Row, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	resp, err := e.svc.Spreadsheets.Values.Get(e.cfg.SpreadsheetID, e.cfg.OutputRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheets values.get: %w", err)
	}

	rows := make([]engine.Row, 0, len(resp.Values))
	for _, r := range resp.Values {
		rows = append(rows, engine.Row(r))
	}
	return rows, nil
}

func (e *Engine) cellFor(key string) string {
	if key == engine.KeyToken {
		return e.cfg.TokenCell
	}
	return e.cfg.InputCells[key]
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// cellValue maps an input value to what USER_ENTERED expects. Nil clears
// the cell. Strings the sheet would parse as a formula are stored as text.
func cellValue(v any) interface{} {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		if v != "" && strings.ContainsRune("=+-@", rune(v[0])) {
			return "'" + v
		}
		return v
	default:
		return v
	}
}
