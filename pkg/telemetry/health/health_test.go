package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercator-hq/quotegate/internal/enginetest"
	"mercator-hq/quotegate/pkg/engine"
)

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{
			name: "no checks",
			want: StatusReady,
		},
		{
			name: "all pass",
			checks: map[string]CheckFunc{
				"engine": func(context.Context) error { return nil },
				"runs":   func(context.Context) error { return nil },
			},
			want: StatusReady,
		},
		{
			name: "one fails",
			checks: map[string]CheckFunc{
				"engine": func(context.Context) error { return errors.New("forbidden") },
				"runs":   func(context.Context) error { return nil },
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.Register(name, check)
			}
			report := c.Readiness(context.Background())
			if report.Status != tt.want {
				t.Errorf("expected status %s, got %s", tt.want, report.Status)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(report.Checks))
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	report := c.Readiness(context.Background())
	result := report.Checks["slow"]
	if result.Status != StatusUnhealthy || result.Message != ErrCheckTimeout.Error() {
		t.Errorf("expected timeout result, got %+v", result)
	}
}

func TestEngineCheck(t *testing.T) {
	eng := enginetest.New(nil)
	check := EngineCheck(eng)

	if err := check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.Reads() != 1 {
		t.Errorf("expected exactly one read, got %d", eng.Reads())
	}
	if len(eng.Writes()) != 0 {
		t.Error("readiness check must not write")
	}

	eng.FailReads(errors.New("unreachable"))
	if err := check(context.Background()); err == nil {
		t.Error("expected read failure to surface")
	}
}

func TestReadinessHandler(t *testing.T) {
	eng := enginetest.New(func(map[string]any, int) []engine.Row { return nil })
	c := New(time.Second)
	c.Register("engine", EngineCheck(eng))

	rec := httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	eng.FailReads(errors.New("unreachable"))
	rec = httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if report.Checks["engine"].Message != "unreachable" {
		t.Errorf("unexpected engine result: %+v", report.Checks["engine"])
	}
}

func TestLivenessHandler_Methods(t *testing.T) {
	c := New(0)
	handler := c.LivenessHandler()

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodPost, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tt.method, "/health", nil))
		if rec.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.method, tt.want, rec.Code)
		}
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.0", "abc123", "2026-03-01").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if info.Version != "1.2.0" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected version info: %+v", info)
	}
}
