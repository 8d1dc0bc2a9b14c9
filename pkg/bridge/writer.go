package bridge

import (
	"context"

	"mercator-hq/quotegate/pkg/engine"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/token"
)

// Writer places a canonical input and its token into the engine's input
// slot.
type Writer struct {
	engine engine.Engine
}

// NewWriter creates a writer for e.
func NewWriter(e engine.Engine) *Writer {
	return &Writer{engine: e}
}

// Write makes two calls: the inputs in engine.InputKeys order, then the
// token alone. The engine only sees the new token once every input it
// belongs to is in place. Errors are returned as *TransportError and are
// not retried.
func (w *Writer) Write(ctx context.Context, in *normalize.CanonicalInput, tok token.Token) error {
	if err := w.engine.WriteInputs(ctx, Fields(in)); err != nil {
		return &TransportError{Op: "write", Token: tok, Cause: err}
	}
	if err := w.engine.WriteInputs(ctx, []engine.Field{{Key: engine.KeyToken, Value: string(tok)}}); err != nil {
		return &TransportError{Op: "write", Token: tok, Cause: err}
	}
	return nil
}

// Fields converts in to engine fields. Absent numbers become empty cells and
// enumerations use the engine's labels.
func Fields(in *normalize.CanonicalInput) []engine.Field {
	rot := "NEJ"
	if in.ROTDeduction {
		rot = "JA"
	}
	return []engine.Field{
		{Key: engine.KeyJobType, Value: in.JobType},
		{Key: engine.KeyRegion, Value: in.Region.EngineLabel()},
		{Key: engine.KeyROT, Value: rot},
		{Key: engine.KeyEmployees, Value: cell(in.Employees)},
		{Key: engine.KeyPricingModel, Value: in.PricingModel.EngineLabel()},
		{Key: engine.KeyFixedPrice, Value: cell(in.FixedPrice)},
		{Key: engine.KeyHours, Value: cell(in.Hours)},
		{Key: engine.KeyHourlyRate, Value: cell(in.HourlyRate)},
		{Key: engine.KeySubcontractorCost, Value: cell(in.SubcontractorCost)},
		{Key: engine.KeyMaterialCost, Value: cell(in.MaterialCost)},
		{Key: engine.KeyAdjustment, Value: float64(in.Adjustment)},
	}
}

func cell(n normalize.Number) any {
	if !n.Present {
		return nil
	}
	return n.Value
}
