package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/token"
)

// ErrBusy is returned when a submission could not take the gate within the
// queue timeout. Nothing was written to the engine.
var ErrBusy = errors.New("engine busy: another submission holds the input slot")

// TransportError reports a failed engine call. The submission is abandoned;
// the only safe retry is a new Submit with a new token.
type TransportError struct {
	// Op is "write" or "read".
	Op string

	// Token is the correlation token of the abandoned submission.
	Token token.Token

	// Cause is the adapter error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("engine %s failed for token %s: %v", e.Op, e.Token, e.Cause)
}

// Unwrap returns the adapter error.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// TimeoutError reports that no token-matched ready snapshot was observed
// before the deadline.
type TimeoutError struct {
	Token    token.Token
	Deadline time.Duration

	// Attempts is the number of reads made.
	Attempts int

	// LastSnapshot is the last projected read, nil if no read completed.
	LastSnapshot Snapshot
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no engine response for token %s within %s (%d reads)", e.Token, e.Deadline, e.Attempts)
}

// ContractError reports an output table that cannot be projected.
type ContractError struct {
	Token token.Token

	// Row is the zero-based index of the offending row.
	Row int

	Reason string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	return fmt.Sprintf("malformed engine output at row %d for token %s: %s", e.Row, e.Token, e.Reason)
}

// CanceledError reports that the caller's context ended during a
// submission. Cause is context.Canceled or context.DeadlineExceeded.
type CanceledError struct {
	Token token.Token
	Cause error
}

// Error implements the error interface.
func (e *CanceledError) Error() string {
	return fmt.Sprintf("submission %s canceled: %v", e.Token, e.Cause)
}

// Unwrap returns the context error.
func (e *CanceledError) Unwrap() error {
	return e.Cause
}

// Terminal statuses of a submission, used as metric labels and in the run
// ledger.
const (
	StatusReady     = "ready"
	StatusInvalid   = "invalid"
	StatusBusy      = "busy"
	StatusTimeout   = "timeout"
	StatusTransport = "transport"
	StatusContract  = "contract"
	StatusCanceled  = "canceled"
	StatusError     = "error"
)

// StatusOf classifies the error returned by Submit.
func StatusOf(err error) string {
	var (
		validationErr *normalize.ValidationError
		transportErr  *TransportError
		timeoutErr    *TimeoutError
		contractErr   *ContractError
		canceledErr   *CanceledError
	)
	switch {
	case err == nil:
		return StatusReady
	case errors.As(err, &validationErr):
		return StatusInvalid
	case errors.Is(err, ErrBusy):
		return StatusBusy
	case errors.As(err, &timeoutErr):
		return StatusTimeout
	case errors.As(err, &contractErr):
		return StatusContract
	case errors.As(err, &transportErr):
		return StatusTransport
	case errors.As(err, &canceledErr),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusError
	}
}

// TokenOf returns the correlation token carried by err, or "" if err was
// produced before a token was minted.
func TokenOf(err error) token.Token {
	var (
		transportErr *TransportError
		timeoutErr   *TimeoutError
		contractErr  *ContractError
		canceledErr  *CanceledError
		busyErr      *busyError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return timeoutErr.Token
	case errors.As(err, &contractErr):
		return contractErr.Token
	case errors.As(err, &transportErr):
		return transportErr.Token
	case errors.As(err, &canceledErr):
		return canceledErr.Token
	case errors.As(err, &busyErr):
		return busyErr.token
	}
	return ""
}

// busyError ties ErrBusy to the token that was never written.
type busyError struct {
	token token.Token
}

func (e *busyError) Error() string { return ErrBusy.Error() }

func (e *busyError) Unwrap() error { return ErrBusy }
