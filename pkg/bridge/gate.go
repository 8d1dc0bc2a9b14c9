package bridge

import (
	"context"
	"time"
)

// Gate serializes access to the engine's single input slot. At most one
// holder exists at a time; waiters queue in Acquire.
type Gate struct {
	slot chan struct{}
}

// NewGate creates an open gate.
func NewGate() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

// Acquire blocks until the gate is free, ctx ends or queueTimeout elapses.
// A zero queueTimeout waits as long as ctx allows. It returns ErrBusy on
// queue timeout and ctx.Err() on cancellation. On a nil return the caller
// must call Release exactly once.
func (g *Gate) Acquire(ctx context.Context, queueTimeout time.Duration) error {
	select {
	case g.slot <- struct{}{}:
		return nil
	default:
	}

	var expired <-chan time.Time
	if queueTimeout > 0 {
		timer := time.NewTimer(queueTimeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case g.slot <- struct{}{}:
		return nil
	case <-expired:
		return ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes the gate only if it is free.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the gate. Releasing a free gate panics.
func (g *Gate) Release() {
	select {
	case <-g.slot:
	default:
		panic("bridge: release of unheld gate")
	}
}

// Held reports whether a submission currently holds the gate.
func (g *Gate) Held() bool {
	return len(g.slot) == 1
}
