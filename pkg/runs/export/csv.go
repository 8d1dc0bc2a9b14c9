package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"mercator-hq/quotegate/pkg/runs"
)

// CSVExporter writes records as CSV, one row per run. Nested values are
// JSON-encoded into a single cell.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header is the CSV column order.
var Header = []string{
	"id", "request_id", "token", "status", "error",
	"started_at", "recorded_at", "duration_ms", "gate_wait_ms",
	"attempts", "stale_reads",
	"input_hash", "inputs", "defaulted", "invalid_fields", "contact_email",
	"decision", "risk_class", "actual_margin", "locked", "hours_defaulted",
	"last_snapshot",
}

// Export writes records to w.
func (e *CSVExporter) Export(ctx context.Context, records []*runs.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return runs.NewExportError("csv", len(records), err)
		}
	}
	for i, record := range records {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := writer.Write(row(record)); err != nil {
			return runs.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return runs.NewExportError("csv", len(records), err)
	}
	return nil
}

func row(r *runs.Record) []string {
	return []string{
		r.ID,
		r.RequestID,
		r.Token,
		r.Status,
		r.Error,
		formatTime(r.StartedAt),
		formatTime(r.RecordedAt),
		strconv.FormatInt(r.Duration.Milliseconds(), 10),
		strconv.FormatInt(r.GateWait.Milliseconds(), 10),
		strconv.Itoa(r.Attempts),
		strconv.Itoa(r.StaleReads),
		r.InputHash,
		formatJSON(r.Inputs),
		strings.Join(r.Defaulted, ";"),
		strings.Join(r.InvalidFields, ";"),
		r.ContactEmail,
		r.Decision,
		r.RiskClass,
		strconv.FormatFloat(r.ActualMargin, 'f', -1, 64),
		strconv.FormatBool(r.Locked),
		strconv.FormatBool(r.HoursDefaulted),
		formatJSON(r.LastSnapshot),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatJSON[T any](v map[string]T) string {
	if len(v) == 0 {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
