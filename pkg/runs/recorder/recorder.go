package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/runs"
	"mercator-hq/quotegate/pkg/telemetry/logging"
)

var (
	// ErrClosed is returned when recording after Close.
	ErrClosed = errors.New("recorder closed")

	// ErrBufferFull is returned when the worker has fallen behind by more
	// than the async buffer.
	ErrBufferFull = errors.New("recorder buffer full")
)

// Recorder is a bridge.Sink that writes a runs.Record for every outcome.
// Records are built on the submitting goroutine and stored by a single
// background worker, so Submit never waits on the database.
type Recorder struct {
	storage    runs.Storage
	config     config.RecorderConfig
	recordChan chan *runs.Record
	done       chan struct{}
	mu         sync.RWMutex
	closed     bool
	closeOnce  sync.Once
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewRecorder starts a recorder writing to storage.
func NewRecorder(storage runs.Storage, cfg config.RecorderConfig) *Recorder {
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = config.DefaultRecorderAsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultRecorderWriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		recordChan: make(chan *runs.Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "runs.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("run recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)
	return r
}

// Record implements bridge.Sink. It never waits: a record that does not fit
// in the buffer is dropped and logged.
func (r *Recorder) Record(ctx context.Context, o *bridge.Outcome) {
	record := NewRecord(o)
	if err := r.Enqueue(record); err != nil {
		r.logger.ErrorContext(ctx, "run record dropped",
			"record_id", record.ID,
			"status", record.Status,
			"error", err,
		)
	}
}

// Enqueue hands record to the background worker without blocking.
func (r *Recorder) Enqueue(record *runs.Record) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return &runs.RecorderError{RecordID: record.ID, Cause: ErrClosed}
	}

	select {
	case r.recordChan <- record:
		return nil
	default:
		return &runs.RecorderError{RecordID: record.ID, Cause: ErrBufferFull}
	}
}

// Close stops accepting records, drains the queue and waits for the last
// write. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down run recorder")
		// No Enqueue is in flight once the write lock is held, so the
		// worker's drain sees every accepted record.
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.done)
		r.wg.Wait()
		r.logger.Info("run recorder shut down complete")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)
		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *runs.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store run record",
			"record_id", record.ID,
			"token", record.Token,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	r.logger.Debug("run recorded",
		"record_id", record.ID,
		"token", record.Token,
		"status", record.Status,
		"duration_ms", duration.Milliseconds(),
	)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow run write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// NewRecord builds the ledger entry for o. The contact email is masked and
// the inputs are keyed exactly as they were written to the engine.
func NewRecord(o *bridge.Outcome) *runs.Record {
	record := &runs.Record{
		ID:         uuid.New().String(),
		RequestID:  o.RequestID,
		Token:      string(o.Token),
		Status:     o.Status,
		StartedAt:  o.Started,
		RecordedAt: time.Now(),
		Duration:   o.Duration,
		GateWait:   o.GateWait,
		Attempts:   o.Poll.Attempts,
		StaleReads: o.Poll.StaleReads,
	}
	if o.Err != nil {
		record.Error = o.Err.Error()
	}

	if in := o.Input; in != nil {
		fields := bridge.Fields(in)
		inputs := make(map[string]any, len(fields))
		for _, f := range fields {
			inputs[f.Key] = f.Value
		}
		record.Inputs = inputs
		record.InputHash = HashInputs(inputs)
		record.Defaulted = append([]string(nil), in.Defaulted...)
		record.ContactEmail = logging.RedactEmail(in.ContactEmail)
	}

	var validationErr *normalize.ValidationError
	if errors.As(o.Err, &validationErr) {
		record.InvalidFields = validationErr.Fields()
	}

	if res := o.Result; res != nil {
		record.Decision = res.Decision
		record.RiskClass = res.RiskClass
		record.ActualMargin = res.ActualMargin
		record.Locked = res.Locked
		record.HoursDefaulted = res.HoursDefaulted
	}

	var timeoutErr *bridge.TimeoutError
	if errors.As(o.Err, &timeoutErr) && timeoutErr.LastSnapshot != nil {
		record.LastSnapshot = map[string]string(timeoutErr.LastSnapshot)
	}
	return record
}

// HashInputs returns the SHA-256 of the JSON encoding of inputs. Map keys
// are encoded in sorted order, so equal inputs hash equally.
func HashInputs(inputs map[string]any) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return ""
	}
	return HashContent(data)
}
