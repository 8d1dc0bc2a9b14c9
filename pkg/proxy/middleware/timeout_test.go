package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercator-hq/quotegate/pkg/proxy/types"
)

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("passes fast handlers through", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Build-Marker", "test")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("done"))
		})

		wrapped := TimeoutMiddleware(time.Second)(handler)

		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/preview", nil))

		if w.Code != http.StatusCreated {
			t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
		}
		if w.Body.String() != "done" {
			t.Errorf("Body = %q, want done", w.Body.String())
		}
		if w.Header().Get("X-Build-Marker") != "test" {
			t.Error("handler headers were not copied")
		}
	})

	t.Run("answers 504 and cancels the handler", func(t *testing.T) {
		canceled := make(chan error, 1)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			canceled <- r.Context().Err()
			_, _ = w.Write([]byte("late"))
		})

		wrapped := TimeoutMiddleware(20 * time.Millisecond)(handler)

		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/preview", nil))

		if w.Code != http.StatusGatewayTimeout {
			t.Errorf("Status code = %d, want %d", w.Code, http.StatusGatewayTimeout)
		}

		var errResp types.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
			t.Fatalf("Response is not valid JSON: %v", err)
		}
		if errResp.Error.Code != types.CodeRequestTimeout {
			t.Errorf("Code = %q, want %q", errResp.Error.Code, types.CodeRequestTimeout)
		}

		select {
		case err := <-canceled:
			if err != context.DeadlineExceeded {
				t.Errorf("handler ctx error = %v, want deadline exceeded", err)
			}
		case <-time.After(time.Second):
			t.Fatal("handler context was not canceled")
		}
	})

	t.Run("writes after the deadline never reach the client", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			_, _ = w.Write([]byte("late"))
		})
		wrapped := TimeoutMiddleware(time.Millisecond)(handler)

		codes := make(map[int]int)
		for range 200 {
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/preview", nil))
			codes[w.Code]++
		}
		if codes[http.StatusGatewayTimeout] != 200 {
			t.Errorf("status codes = %v, want only 504", codes)
		}
	})

	t.Run("handler returning after the deadline still gets 504", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		TimeoutMiddleware(time.Millisecond)(handler).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/preview", nil))
		if w.Code != http.StatusGatewayTimeout {
			t.Errorf("Status code = %d, want %d", w.Code, http.StatusGatewayTimeout)
		}
	})

	t.Run("client cancel discards later writes", func(t *testing.T) {
		writeErr := make(chan error, 1)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			_, err := w.Write([]byte("late"))
			writeErr <- err
		})

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodPost, "/v1/preview", nil).WithContext(ctx)
		w := httptest.NewRecorder()
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		TimeoutMiddleware(time.Second)(handler).ServeHTTP(w, req)

		select {
		case err := <-writeErr:
			if err != http.ErrHandlerTimeout {
				t.Errorf("late write error = %v, want %v", err, http.ErrHandlerTimeout)
			}
		case <-time.After(time.Second):
			t.Fatal("handler did not finish")
		}
		if w.Body.Len() != 0 || w.Code == http.StatusGatewayTimeout {
			t.Errorf("got status %d body %q, want nothing written", w.Code, w.Body.String())
		}
	})

	t.Run("zero timeout disables", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				t.Error("unexpected deadline")
			}
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		TimeoutMiddleware(0)(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Status code = %d", w.Code)
		}
	})

	t.Run("propagates panics", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		wrapped := RecoveryMiddleware(TimeoutMiddleware(time.Second)(handler))

		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/preview", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}
