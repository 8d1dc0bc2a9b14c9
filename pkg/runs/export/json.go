package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/quotegate/pkg/runs"
)

// JSONExporter writes records as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records to w. An empty input produces "[]".
func (e *JSONExporter) Export(ctx context.Context, records []*runs.Record, w io.Writer) error {
	if records == nil {
		records = []*runs.Record{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return runs.NewExportError("json", len(records), err)
	}
	return ctx.Err()
}
