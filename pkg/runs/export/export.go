// Package export writes run ledger records as JSON or CSV.
//
//	exp, err := export.ForFormat("csv")
//	if err != nil {
//		return err
//	}
//	return exp.Export(ctx, records, os.Stdout)
package export

import (
	"fmt"
	"strings"

	"mercator-hq/quotegate/pkg/runs"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "csv"}

// ForFormat returns the exporter for format ("json" or "csv"). JSON is
// pretty-printed and CSV carries a header row.
func ForFormat(format string) (runs.Exporter, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return NewJSONExporter(true), nil
	case "csv":
		return NewCSVExporter(true), nil
	}
	return nil, fmt.Errorf("unsupported export format %q (supported: %s)", format, strings.Join(Formats, ", "))
}
