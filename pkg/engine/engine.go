// Package engine defines the port to the external quote engine.
//
// The engine is a shared, mutable computation surface: an input slot that
// callers overwrite and an output table that the engine recomputes some time
// later. It knows nothing about requests or tokens beyond echoing the token
// field into its outputs. Adapters live in subpackages:
//
//   - sheets: a Google Sheets spreadsheet (the production engine)
//   - sqlite: a shared SQLite file maintained by an external recompute process
//   - memory: an in-process engine for local runs and tests
package engine

import (
	"context"
	"errors"
)

// Field is one named input cell. Value is a string, a float64, a bool or nil
// for an empty cell.
type Field struct {
	Key   string
	Value any
}

// Row is one row of the output table. The first cell is the key and the
// second the value; further cells are ignored.
type Row []any

// Engine reads and writes the shared state of the quote engine.
//
// WriteInputs overwrites the named cells of the input slot. Fields not named
// keep their previous value. ReadOutputs returns the current output table as
// last published by the engine. Neither call retries.
type Engine interface {
	WriteInputs(ctx context.Context, fields []Field) error
	ReadOutputs(ctx context.Context) ([]Row, error)
}

// Closer is implemented by engines that hold resources.
type Closer interface {
	Close() error
}

// Canonical input field names written to the input slot, in write order.
const (
	KeyJobType           = "job_type"
	KeyRegion            = "region"
	KeyROT               = "rot"
	KeyEmployees         = "employees"
	KeyPricingModel      = "pricing_model"
	KeyFixedPrice        = "fixed_price"
	KeyHours             = "hours"
	KeyHourlyRate        = "hourly_rate"
	KeySubcontractorCost = "subcontractor_cost"
	KeyMaterialCost      = "material_cost"
	KeyAdjustment        = "adjustment"
	KeyToken             = "token"
)

// InputKeys lists the input field names in the order they are written.
var InputKeys = []string{
	KeyJobType,
	KeyRegion,
	KeyROT,
	KeyEmployees,
	KeyPricingModel,
	KeyFixedPrice,
	KeyHours,
	KeyHourlyRate,
	KeySubcontractorCost,
	KeyMaterialCost,
	KeyAdjustment,
}

// ErrUnknownField is returned by adapters that cannot place a field.
var ErrUnknownField = errors.New("unknown input field")

// Close releases e's resources if it holds any.
func Close(e Engine) error {
	if c, ok := e.(Closer); ok {
		return c.Close()
	}
	return nil
}
