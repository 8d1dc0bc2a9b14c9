package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/cli"
	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/runs"
	"mercator-hq/quotegate/pkg/runs/recorder"
	"mercator-hq/quotegate/pkg/runs/storage"
)

func resetRunsFlags() {
	runsFlags.status = ""
	runsFlags.token = ""
	runsFlags.requestID = ""
	runsFlags.since = ""
	runsFlags.until = ""
	runsFlags.limit = 0
	runsFlags.offset = 0
	runsFlags.order = ""
}

func TestParseTimeFlag(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-03-01T08:00:00Z", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), false},
		{"24h", now.Add(-24 * time.Hour), false},
		{"90m", now.Add(-90 * time.Minute), false},
		{"-1h", time.Time{}, true},
		{"yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := parseTimeFlag(tt.in, now)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTimeFlag(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTimeFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildRunQuery(t *testing.T) {
	defer resetRunsFlags()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	resetRunsFlags()
	runsFlags.status = bridge.StatusTimeout
	runsFlags.since = "24h"

	q, err := buildRunQuery(now)
	if err != nil {
		t.Fatalf("buildRunQuery() error = %v", err)
	}
	if q.Status != bridge.StatusTimeout || q.StartTime == nil || !q.StartTime.Equal(now.Add(-24*time.Hour)) {
		t.Errorf("query = %+v", q)
	}
	if q.Limit == 0 || q.SortOrder != "desc" {
		t.Errorf("defaults not applied: limit %d order %q", q.Limit, q.SortOrder)
	}

	bad := []func(){
		func() { runsFlags.status = "lost" },
		func() { runsFlags.order = "sideways" },
		func() { runsFlags.since = "1h"; runsFlags.until = "2h" },
		func() { runsFlags.until = "not-a-time" },
	}
	for i, set := range bad {
		resetRunsFlags()
		set()
		if _, err := buildRunQuery(now); err == nil {
			t.Errorf("case %d: buildRunQuery() should fail", i)
		}
	}
}

// recordedRun submits one request through a bridge that records to store
// and returns its token once the record is written.
func recordedRun(t *testing.T, store runs.Storage, body string) (bridge.Result, error) {
	t.Helper()

	rec := recorder.NewRecorder(store, config.RecorderConfig{AsyncBuffer: 10, WriteTimeout: time.Second})
	b := testBridge(approvingEngine(), bridge.WithSink(rec))

	reqs, err := parseRequests([]byte(body))
	if err != nil {
		t.Fatalf("parseRequests() error = %v", err)
	}
	res, submitErr := b.Submit(context.Background(), reqs[0])
	if err := rec.Close(); err != nil {
		t.Fatalf("recorder Close() error = %v", err)
	}
	if res == nil {
		return bridge.Result{}, submitErr
	}
	return *res, submitErr
}

func TestFindRun(t *testing.T) {
	store := storage.NewMemoryStorage()
	res, err := recordedRun(t, store, fixedRequest)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	byToken, err := findRun(context.Background(), store, string(res.Token))
	if err != nil {
		t.Fatalf("findRun(token) error = %v", err)
	}
	if byToken.Status != bridge.StatusReady || byToken.Decision != "approved" {
		t.Errorf("record = %+v", byToken)
	}

	byID, err := findRun(context.Background(), store, byToken.ID)
	if err != nil || byID.Token != byToken.Token {
		t.Errorf("findRun(id) = %v, %v", byID, err)
	}

	if _, err := findRun(context.Background(), store, "qg-unknown"); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestWriteRunList(t *testing.T) {
	store := storage.NewMemoryStorage()
	if _, err := recordedRun(t, store, fixedRequest); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := recordedRun(t, store, `{"jobType":"Altan","region":"moon"}`); err == nil {
		t.Fatal("invalid request should fail")
	}

	records, err := store.Query(context.Background(), &runs.Query{Limit: 10})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	text := &bytes.Buffer{}
	if err := writeRunList(text, cli.FormatText, records); err != nil {
		t.Fatalf("writeRunList(text) error = %v", err)
	}
	out := text.String()
	for _, want := range []string{"STATUS", bridge.StatusReady, bridge.StatusInvalid, "approved"} {
		if !strings.Contains(out, want) {
			t.Errorf("text list missing %q:\n%s", want, out)
		}
	}

	js := &bytes.Buffer{}
	if err := writeRunList(js, cli.FormatJSON, records); err != nil {
		t.Fatalf("writeRunList(json) error = %v", err)
	}
	var decoded struct {
		Total   int           `json:"total_records"`
		Records []runs.Record `json:"records"`
	}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Total != 2 || len(decoded.Records) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}

	empty := &bytes.Buffer{}
	if err := writeRunList(empty, cli.FormatText, nil); err != nil || !strings.Contains(empty.String(), "No runs found") {
		t.Errorf("empty list = %q, %v", empty.String(), err)
	}
}

func TestRecordView(t *testing.T) {
	r := &runs.Record{
		ID:            "run-1",
		Token:         "qg-1",
		Status:        bridge.StatusTimeout,
		Error:         "engine timeout",
		Attempts:      7,
		StaleReads:    2,
		InvalidFields: nil,
		Defaulted:     []string{normalize.FieldHours},
		ContactEmail:  "a***@example.se",
		LastSnapshot:  map[string]string{"run_id": "qg-0", "decision": "approved"},
	}

	out, err := cli.NewFormatter(cli.FormatText).Format(recordView(r))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	text := string(out)
	for _, want := range []string{"7 (2 stale)", "hours", "a***@example.se", "Last output decision:", "Last output run_id:"} {
		if !strings.Contains(text, want) {
			t.Errorf("view missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "Last output decision") > strings.Index(text, "Last output run_id") {
		t.Error("snapshot keys should be sorted")
	}
	if strings.Contains(text, "Decision:") {
		t.Error("a run without a decision should not print one")
	}
}

func TestOpenSharedLedger(t *testing.T) {
	cfg := config.DefaultConfig()

	cfg.Runs.Enabled = false
	if _, err := openSharedLedger(cfg); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("disabled ledger error = %v", err)
	}

	cfg.Runs.Enabled = true
	cfg.Runs.Backend = "memory"
	if _, err := openSharedLedger(cfg); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("memory ledger error = %v", err)
	}

	cfg.Runs.Backend = "sqlite"
	cfg.Runs.SQLite.Path = t.TempDir() + "/runs.db"
	store, err := openSharedLedger(cfg)
	if err != nil {
		t.Fatalf("sqlite ledger error = %v", err)
	}
	_ = store.Close()
}
