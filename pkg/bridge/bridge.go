package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/engine"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/telemetry/logging"
	"mercator-hq/quotegate/pkg/telemetry/tracing"
	"mercator-hq/quotegate/pkg/token"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Settings are the tunables of a Bridge. They can be replaced at runtime
// with Reconfigure.
type Settings struct {
	PollInterval time.Duration
	Deadline     time.Duration
	QueueTimeout time.Duration
	Output       config.OutputKeysConfig
	Hours        normalize.HoursTable
}

// SettingsFromConfig extracts bridge settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		PollInterval: cfg.Bridge.PollInterval,
		Deadline:     cfg.Bridge.Deadline,
		QueueTimeout: cfg.Bridge.QueueTimeout,
		Output:       cfg.Bridge.Output,
		Hours:        normalize.HoursTableFromConfig(cfg.Normalize.StandardHours, cfg.Normalize.RegionFactors),
	}
}

// DefaultSettings returns the settings of a default configuration.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.DefaultConfig())
}

// Observer receives measurements of each submission. It is satisfied by
// *metrics.Collector.
type Observer interface {
	RecordSubmission(status string, duration time.Duration, attempts, staleReads int)
	RecordGateWait(wait time.Duration, acquired bool)
	SetGateHeld(held bool)
	RecordEngineError(op string)
}

// Outcome describes a finished submission for the run ledger.
type Outcome struct {
	RequestID string
	Token     token.Token
	Status    string
	Started   time.Time
	Duration  time.Duration
	GateWait  time.Duration
	Poll      PollStats

	// Request is the raw submission.
	Request normalize.Request

	// Input is nil when normalization failed.
	Input *normalize.CanonicalInput

	// Result is nil unless Status is StatusReady.
	Result *Result

	Err error
}

// Sink stores outcomes. Record must not block for long; it runs on the
// submitting goroutine after the gate is released.
type Sink interface {
	Record(ctx context.Context, o *Outcome)
}

// state is the immutable view of Settings a submission runs against.
type state struct {
	settings   Settings
	normalizer *normalize.Normalizer
	decoder    *Decoder
}

// Bridge turns requests into engine results: it normalizes a request, mints
// a token, writes inputs then token under the gate, polls for the
// token-matched response and decodes it.
type Bridge struct {
	engine   engine.Engine
	writer   *Writer
	gate     *Gate
	tokens   token.Allocator
	observer Observer
	sink     Sink
	tracer   *tracing.Tracer
	logger   *slog.Logger
	state    atomic.Pointer[state]
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTokenAllocator replaces the default UUIDv4 allocator.
func WithTokenAllocator(a token.Allocator) Option {
	return func(b *Bridge) { b.tokens = a }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(b *Bridge) {
		if o != nil {
			b.observer = o
		}
	}
}

// WithSink sets the outcome sink.
func WithSink(s Sink) Option {
	return func(b *Bridge) { b.sink = s }
}

// WithTracer sets the tracer used for submit spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(b *Bridge) { b.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithGate shares a gate between bridges writing to the same engine.
func WithGate(g *Gate) Option {
	return func(b *Bridge) {
		if g != nil {
			b.gate = g
		}
	}
}

// New creates a bridge over e.
func New(e engine.Engine, s Settings, opts ...Option) *Bridge {
	b := &Bridge{
		engine:   e,
		writer:   NewWriter(e),
		gate:     NewGate(),
		observer: nopObserver{},
		logger:   slog.Default().With("component", "bridge"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.tokens == nil {
		b.tokens, _ = token.NewUUIDAllocator(token.FormatUUID4, "")
	}
	b.Reconfigure(s)
	return b
}

// Reconfigure swaps the settings. Submissions already past normalization
// finish with the settings they started with.
func (b *Bridge) Reconfigure(s Settings) {
	if s.Hours.Base == nil {
		s.Hours = normalize.DefaultHoursTable()
	}
	if s.PollInterval <= 0 {
		s.PollInterval = config.DefaultPollInterval
	}
	if s.Deadline <= 0 {
		s.Deadline = config.DefaultDeadline
	}
	b.state.Store(&state{
		settings:   s,
		normalizer: normalize.New(s.Hours),
		decoder:    NewDecoder(s.Output),
	})
	b.logger.Debug("bridge settings applied",
		"poll_interval", s.PollInterval,
		"deadline", s.Deadline,
		"queue_timeout", s.QueueTimeout,
	)
}

// Settings returns the current settings.
func (b *Bridge) Settings() Settings {
	return b.state.Load().settings
}

// Gate returns the serialization gate.
func (b *Bridge) Gate() *Gate {
	return b.gate
}

// Engine returns the engine the bridge writes to.
func (b *Bridge) Engine() engine.Engine {
	return b.engine
}

// Normalize validates req against the current settings without touching
// the engine.
func (b *Bridge) Normalize(req normalize.Request) (*normalize.CanonicalInput, error) {
	return b.state.Load().normalizer.Normalize(req)
}

// Submit runs one request through the engine and returns its result.
//
// Errors: *normalize.ValidationError (nothing written), ErrBusy (gate queue
// timeout, nothing written), *TransportError, *ContractError, *TimeoutError
// and *CanceledError. None of them is retried.
func (b *Bridge) Submit(ctx context.Context, req normalize.Request) (res *Result, err error) {
	st := b.state.Load()
	out := &Outcome{
		RequestID: logging.GetRequestID(ctx),
		Started:   time.Now(),
		Request:   req,
	}

	ctx, span := b.tracer.Start(ctx, "bridge.submit")
	defer func() {
		out.Result, out.Err = res, err
		b.finish(ctx, span, out)
	}()

	in, err := st.normalizer.Normalize(req)
	if err != nil {
		return nil, err
	}
	out.Input = in

	tok, err := b.tokens.New()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate token: %w", err)
	}
	out.Token = tok
	ctx = logging.WithToken(ctx, string(tok))
	span.SetAttributes(tracing.AttrToken.String(string(tok)))

	snap, err := b.exchange(ctx, st, in, tok, out)
	if err != nil {
		return nil, err
	}

	res = st.decoder.Decode(snap)
	res.annotate(in)
	return res, nil
}

// exchange holds the gate for the write and the poll.
func (b *Bridge) exchange(ctx context.Context, st *state, in *normalize.CanonicalInput, tok token.Token, out *Outcome) (Snapshot, error) {
	waitStart := time.Now()
	err := b.gate.Acquire(ctx, st.settings.QueueTimeout)
	out.GateWait = time.Since(waitStart)
	b.observer.RecordGateWait(out.GateWait, err == nil)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return nil, &busyError{token: tok}
		}
		return nil, &CanceledError{Token: tok, Cause: err}
	}
	b.observer.SetGateHeld(true)
	defer func() {
		b.gate.Release()
		b.observer.SetGateHeld(false)
	}()

	writeCtx, writeSpan := b.tracer.Start(ctx, "bridge.write")
	err = b.writer.Write(writeCtx, in, tok)
	writeSpan.SetAttributes(tracing.AttrFields.Int(len(engine.InputKeys) + 1))
	tracing.SetStatus(writeSpan, err)
	writeSpan.End()
	if err != nil {
		if ctx.Err() != nil {
			return nil, &CanceledError{Token: tok, Cause: ctx.Err()}
		}
		return nil, err
	}

	pollCtx, pollSpan := b.tracer.Start(ctx, "bridge.poll")
	poller := NewPoller(b.engine, st.settings.PollInterval, st.settings.Deadline, st.settings.Output)
	snap, stats, err := poller.Poll(pollCtx, tok)
	out.Poll = stats
	pollSpan.SetAttributes(
		tracing.AttrAttempts.Int(stats.Attempts),
		tracing.AttrStaleReads.Int(stats.StaleReads),
	)
	tracing.SetStatus(pollSpan, err)
	pollSpan.End()
	return snap, err
}

func (b *Bridge) finish(ctx context.Context, span trace.Span, out *Outcome) {
	out.Duration = time.Since(out.Started)
	out.Status = StatusOf(out.Err)
	if out.Token == "" {
		out.Token = TokenOf(out.Err)
	}

	var transportErr *TransportError
	if errors.As(out.Err, &transportErr) {
		b.observer.RecordEngineError(transportErr.Op)
	}
	b.observer.RecordSubmission(out.Status, out.Duration, out.Poll.Attempts, out.Poll.StaleReads)

	attrs := []attribute.KeyValue{tracing.AttrStatus.String(out.Status)}
	if out.Result != nil {
		attrs = append(attrs, tracing.AttrDecision.String(out.Result.Decision))
	}
	span.SetAttributes(attrs...)
	tracing.SetStatus(span, out.Err)
	span.End()

	logArgs := []any{
		"status", out.Status,
		"duration_ms", out.Duration.Milliseconds(),
		"gate_wait_ms", out.GateWait.Milliseconds(),
		"attempts", out.Poll.Attempts,
		"stale_reads", out.Poll.StaleReads,
	}
	switch out.Status {
	case StatusReady:
		b.logger.InfoContext(ctx, "submission ready", append(logArgs, "decision", out.Result.Decision)...)
	case StatusInvalid:
		b.logger.DebugContext(ctx, "submission rejected", append(logArgs, "error", out.Err)...)
	case StatusCanceled:
		b.logger.InfoContext(ctx, "submission canceled", logArgs...)
	default:
		b.logger.WarnContext(ctx, "submission failed", append(logArgs, "error", out.Err)...)
	}

	if b.sink != nil {
		b.sink.Record(ctx, out)
	}
}

type nopObserver struct{}

func (nopObserver) RecordSubmission(string, time.Duration, int, int) {}
func (nopObserver) RecordGateWait(time.Duration, bool)               {}
func (nopObserver) SetGateHeld(bool)                                 {}
func (nopObserver) RecordEngineError(string)                         {}
