package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"mercator-hq/quotegate/pkg/proxy/types"
)

// timeoutWriter serializes writes between the handler goroutine and the
// middleware. Handler writes are dropped once ctx has passed its deadline,
// whether or not the middleware has answered yet.
type timeoutWriter struct {
	w        http.ResponseWriter
	ctx      context.Context
	mu       sync.Mutex
	header   http.Header
	timedOut bool
	wrote    bool
}

// expiredLocked reports whether the handler may no longer write.
func (tw *timeoutWriter) expiredLocked() bool {
	return tw.timedOut || tw.ctx.Err() != nil
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.writeHeaderLocked(code)
}

func (tw *timeoutWriter) writeHeaderLocked(code int) {
	if tw.expiredLocked() || tw.wrote {
		return
	}
	tw.wrote = true
	dst := tw.w.Header()
	for k, v := range tw.header {
		dst[k] = v
	}
	tw.w.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.expiredLocked() {
		return 0, http.ErrHandlerTimeout
	}
	tw.writeHeaderLocked(http.StatusOK)
	return tw.w.Write(b)
}

// TimeoutMiddleware bounds the time a handler may take. The handler runs
// with a context that ends after timeout; if it has not started its
// response by then, the client receives 504 and anything the handler
// writes afterwards is discarded. A zero timeout disables the middleware.
//
// The bridge observes the same context, so a submission cut off here
// releases the input slot and is recorded as canceled.
//
// Example usage:
//
//	handler = TimeoutMiddleware(60 * time.Second)(handler)
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{w: w, ctx: ctx, header: make(http.Header)}
			done := make(chan struct{})
			panicChan := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicChan <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicChan:
				panic(p)
			case <-done:
			case <-ctx.Done():
			}

			tw.mu.Lock()
			defer tw.mu.Unlock()
			if ctx.Err() != nil {
				tw.timedOut = true
			}
			if tw.wrote || ctx.Err() != context.DeadlineExceeded {
				return
			}

			slog.WarnContext(r.Context(), "request timeout",
				"method", r.Method,
				"path", r.URL.Path,
				"timeout", timeout.String(),
			)

			errResp := types.NewGatewayTimeoutError(
				"Request timeout: the request took too long to complete",
				types.CodeRequestTimeout,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGatewayTimeout)
			_ = json.NewEncoder(w).Encode(errResp)
		})
	}
}
