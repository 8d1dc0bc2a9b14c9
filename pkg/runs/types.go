package runs

import (
	"context"
	"io"
	"time"
)

// Record is the ledger entry for one submission, whatever its outcome.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // From the HTTP layer, empty for CLI runs
	Token     string `json:"token"`      // Correlation token, empty if never minted

	// Outcome
	Status string `json:"status"` // bridge status: ready, invalid, busy, timeout, ...
	Error  string `json:"error"`  // Error text for non-ready outcomes

	// Timestamps
	StartedAt  time.Time `json:"started_at"`  // When Submit was called
	RecordedAt time.Time `json:"recorded_at"` // When the record was built

	// Timings
	Duration time.Duration `json:"duration"`  // Whole submission
	GateWait time.Duration `json:"gate_wait"` // Time queued for the gate

	// Convergence
	Attempts   int `json:"attempts"`    // Reads started
	StaleReads int `json:"stale_reads"` // Reads carrying another token

	// Inputs
	InputHash     string         `json:"input_hash"`     // SHA-256 of the canonical inputs
	Inputs        map[string]any `json:"inputs"`         // Canonical inputs by engine key
	Defaulted     []string       `json:"defaulted"`      // Substituted fields
	InvalidFields []string       `json:"invalid_fields"` // Fields rejected by validation
	ContactEmail  string         `json:"contact_email"`  // Redacted

	// Result
	Decision       string  `json:"decision"`
	RiskClass      string  `json:"risk_class"`
	ActualMargin   float64 `json:"actual_margin"`
	Locked         bool    `json:"locked"`
	HoursDefaulted bool    `json:"hours_defaulted"`

	// LastSnapshot is the last output table seen by a poll that did not
	// converge. It is kept for timeout diagnosis.
	LastSnapshot map[string]string `json:"last_snapshot,omitempty"`
}

// Query defines filter parameters for ledger lookups.
type Query struct {
	// Time range on StartedAt
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive

	// Filters
	Status    string `json:"status,omitempty"`
	Token     string `json:"token,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "asc" or "desc" on StartedAt.
	SortOrder string `json:"sort_order,omitempty"`
}

// Storage defines the interface for run ledger backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Query returns records matching q. No match is an empty slice.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the number of records matching q, ignoring pagination.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes records matching q, ignoring pagination, and returns
	// how many were removed.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Close releases the backend.
	Close() error
}

// Exporter writes records in one output format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
