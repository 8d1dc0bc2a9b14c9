package bridge

import (
	"context"
	"errors"
	"strings"
	"time"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/engine"
	"mercator-hq/quotegate/pkg/token"
)

// PollStats describes one convergence loop.
type PollStats struct {
	// Attempts is the number of reads started.
	Attempts int

	// StaleReads counts reads whose token was absent or belonged to
	// another submission.
	StaleReads int

	// LastSnapshot is the last successfully projected read.
	LastSnapshot Snapshot
}

// Poller reads the output table until it holds a ready response for a token.
type Poller struct {
	engine   engine.Engine
	interval time.Duration
	deadline time.Duration
	keys     config.OutputKeysConfig
}

// NewPoller creates a poller. interval and deadline must be positive.
func NewPoller(e engine.Engine, interval, deadline time.Duration, keys config.OutputKeysConfig) *Poller {
	return &Poller{engine: e, interval: interval, deadline: deadline, keys: keys}
}

// Ready reports whether snap is the completed response for tok: the token
// key echoes tok and either the decision is non-blank or the configured
// completion flag is set.
func (p *Poller) Ready(snap Snapshot, tok token.Token) bool {
	if strings.TrimSpace(snap[p.keys.TokenKey]) != string(tok) {
		return false
	}
	if strings.TrimSpace(snap[p.keys.DecisionKey]) != "" {
		return true
	}
	return p.keys.FinalKey != "" && truthy(snap[p.keys.FinalKey])
}

// Poll reads immediately and then once per interval until a ready snapshot
// for tok appears. Every read is bounded by the deadline, so Poll returns a
// *TimeoutError no earlier than the deadline and no later than one interval
// after it. A failed read ends the loop with a *TransportError, a malformed
// table with a *ContractError, and the end of ctx with a *CanceledError.
func (p *Poller) Poll(ctx context.Context, tok token.Token) (Snapshot, PollStats, error) {
	var stats PollStats

	pollCtx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		stats.Attempts++
		rows, err := p.engine.ReadOutputs(pollCtx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, &CanceledError{Token: tok, Cause: ctx.Err()}
			}
			if pollCtx.Err() != nil {
				return nil, stats, p.timeout(tok, stats)
			}
			return nil, stats, &TransportError{Op: "read", Token: tok, Cause: err}
		}

		snap, err := Project(rows)
		if err != nil {
			var contractErr *ContractError
			if errors.As(err, &contractErr) {
				contractErr.Token = tok
			}
			return nil, stats, err
		}
		stats.LastSnapshot = snap

		if p.Ready(snap, tok) {
			return snap, stats, nil
		}
		if strings.TrimSpace(snap[p.keys.TokenKey]) != string(tok) {
			stats.StaleReads++
		}

		select {
		case <-ticker.C:
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, stats, &CanceledError{Token: tok, Cause: ctx.Err()}
			}
			return nil, stats, p.timeout(tok, stats)
		}
	}
}

func (p *Poller) timeout(tok token.Token, stats PollStats) *TimeoutError {
	return &TimeoutError{
		Token:        tok,
		Deadline:     p.deadline,
		Attempts:     stats.Attempts,
		LastSnapshot: stats.LastSnapshot,
	}
}
