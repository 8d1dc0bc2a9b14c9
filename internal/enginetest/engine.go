// Package enginetest provides a deterministic engine for tests.
//
// Engine records every write, answers reads through a Responder and can be
// told to fail or stall, so bridge behaviour can be checked without timing
// races against a real recompute.
package enginetest

import (
	"context"
	"maps"
	"sync"
	"time"

	"mercator-hq/quotegate/pkg/engine"
)

// Responder produces the output table for a read. inputs is a copy of the
// input slot and read counts reads since the last token write, starting at 1.
type Responder func(inputs map[string]any, read int) []engine.Row

// Engine is a scripted engine.Engine.
type Engine struct {
	mu        sync.Mutex
	respond   Responder
	inputs    map[string]any
	writes    [][]engine.Field
	reads     int
	sinceTok  int
	writeErr  error
	readErr   error
	readDelay time.Duration
	onWrite   func([]engine.Field)
}

// New creates an engine answering reads with respond. A nil respond returns
// an empty table.
func New(respond Responder) *Engine {
	if respond == nil {
		respond = func(map[string]any, int) []engine.Row { return nil }
	}
	return &Engine{respond: respond, inputs: make(map[string]any)}
}

// WriteInputs implements engine.Engine.
func (e *Engine) WriteInputs(ctx context.Context, fields []engine.Field) error {
	e.mu.Lock()
	hook := e.onWrite
	if e.writeErr != nil {
		err := e.writeErr
		e.mu.Unlock()
		return err
	}
	if err := ctx.Err(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.writes = append(e.writes, append([]engine.Field(nil), fields...))
	for _, f := range fields {
		e.inputs[f.Key] = f.Value
		if f.Key == engine.KeyToken {
			e.sinceTok = 0
		}
	}
	e.mu.Unlock()

	if hook != nil {
		hook(fields)
	}
	return nil
}

// ReadOutputs implements engine.Engine.
func (e *Engine) ReadOutputs(ctx context.Context) ([]engine.Row, error) {
	e.mu.Lock()
	delay := e.readDelay
	e.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.reads++
	e.sinceTok++
	if e.readErr != nil {
		return nil, e.readErr
	}
	return e.respond(maps.Clone(e.inputs), e.sinceTok), nil
}

// FailWrites makes every later write return err. Nil clears it.
func (e *Engine) FailWrites(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writeErr = err
}

// FailReads makes every later read return err. Nil clears it.
func (e *Engine) FailReads(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readErr = err
}

// SetReadDelay stalls every read by d or until its context ends.
func (e *Engine) SetReadDelay(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readDelay = d
}

// OnWrite registers a hook run after each accepted write, outside the lock.
func (e *Engine) OnWrite(fn func([]engine.Field)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onWrite = fn
}

// Writes returns a copy of every accepted write, in order.
func (e *Engine) Writes() [][]engine.Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]engine.Field, len(e.writes))
	copy(out, e.writes)
	return out
}

// Reads returns the total number of reads served.
func (e *Engine) Reads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reads
}

// Inputs returns a copy of the input slot.
func (e *Engine) Inputs() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.inputs)
}

// EchoAfter answers with an empty table for the first n-1 reads after a
// token write and from read n on echoes the current token under tokenKey
// followed by rows.
func EchoAfter(n int, tokenKey string, rows ...engine.Row) Responder {
	return func(inputs map[string]any, read int) []engine.Row {
		if read < n {
			return nil
		}
		out := []engine.Row{{tokenKey, inputs[engine.KeyToken]}}
		return append(out, rows...)
	}
}

// Script answers read i (1-based) with tables[i-1] and repeats the last
// table once the script is exhausted.
func Script(tables ...[]engine.Row) Responder {
	return func(_ map[string]any, read int) []engine.Row {
		if len(tables) == 0 {
			return nil
		}
		if read > len(tables) {
			read = len(tables)
		}
		return tables[read-1]
	}
}

// Table builds a two-column output table from alternating keys and values.
func Table(kv ...any) []engine.Row {
	rows := make([]engine.Row, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		rows = append(rows, engine.Row{kv[i], kv[i+1]})
	}
	return rows
}
