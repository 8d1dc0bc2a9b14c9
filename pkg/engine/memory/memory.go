// Package memory provides an in-process quote engine.
//
// The engine keeps an input slot and an output table in memory and
// recomputes the outputs asynchronously after each write, the way a
// spreadsheet recalculates. Only the most recent write publishes: a
// recompute that is overtaken by a newer write is discarded.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"mercator-hq/quotegate/pkg/engine"
)

var errClosed = errors.New("memory engine closed")

// ComputeFunc derives the output table from a copy of the input slot.
type ComputeFunc func(inputs map[string]any) []engine.Row

// Engine is an in-memory engine.Engine.
type Engine struct {
	compute ComputeFunc
	latency time.Duration

	mu      sync.Mutex
	inputs  map[string]any
	outputs []engine.Row
	gen     uint64
	timer   *time.Timer
	writes  int
	closed  bool
}

// New creates an engine that runs compute latency after every write.
// A nil compute uses DemoCompute.
func New(compute ComputeFunc, latency time.Duration) *Engine {
	if compute == nil {
		compute = DemoCompute
	}
	return &Engine{
		compute: compute,
		latency: latency,
		inputs:  make(map[string]any),
	}
}

// WriteInputs implements engine.Engine.
func (e *Engine) WriteInputs(ctx context.Context, fields []engine.Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errClosed
	}

	for _, f := range fields {
		e.inputs[f.Key] = f.Value
	}
	e.writes++
	e.gen++
	gen := e.gen
	snapshot := maps.Clone(e.inputs)

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.latency, func() {
		rows := e.compute(snapshot)
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.gen == gen && !e.closed {
			e.outputs = rows
		}
	})
	return nil
}

// ReadOutputs implements engine.Engine.
func (e *Engine) ReadOutputs(ctx context.Context) ([]engine.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errClosed
	}
	out := make([]engine.Row, len(e.outputs))
	for i, r := range e.outputs {
		out[i] = append(engine.Row(nil), r...)
	}
	return out, nil
}

// Inputs returns a copy of the current input slot.
func (e *Engine) Inputs() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.inputs)
}

// Writes returns the number of WriteInputs calls accepted so far.
func (e *Engine) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}

// Close cancels any pending recompute.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
	}
	return nil
}
