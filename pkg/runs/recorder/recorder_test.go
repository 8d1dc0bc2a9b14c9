package recorder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/engine"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/runs"
	"mercator-hq/quotegate/pkg/runs/storage"
)

func readyOutcome() *bridge.Outcome {
	in := &normalize.CanonicalInput{
		JobType:      "Renovering",
		JobCategory:  normalize.CategoryRenovation,
		Region:       normalize.RegionUrban,
		PricingModel: normalize.PricingHourly,
		Hours:        normalize.Some(176),
		HourlyRate:   normalize.Some(450),
		MaterialCost: normalize.Some(20000),
		Defaulted:    []string{normalize.FieldHours},
		ContactEmail: "anna.svensson@example.se",
	}
	return &bridge.Outcome{
		RequestID: "req-1",
		Token:     "tok-1",
		Status:    bridge.StatusReady,
		Started:   time.Now().Add(-time.Second),
		Duration:  800 * time.Millisecond,
		GateWait:  20 * time.Millisecond,
		Poll:      bridge.PollStats{Attempts: 3, StaleReads: 2},
		Input:     in,
		Result: &bridge.Result{
			Token:          "tok-1",
			Decision:       "approved",
			RiskClass:      "green",
			ActualMargin:   14.04,
			HoursDefaulted: true,
		},
	}
}

func TestNewRecord_Ready(t *testing.T) {
	record := NewRecord(readyOutcome())

	if record.ID == "" {
		t.Error("ID is empty")
	}
	if record.Token != "tok-1" || record.RequestID != "req-1" {
		t.Errorf("identity = (%q, %q), want (tok-1, req-1)", record.Token, record.RequestID)
	}
	if record.Status != bridge.StatusReady || record.Error != "" {
		t.Errorf("status = %q error = %q", record.Status, record.Error)
	}
	if record.Attempts != 3 || record.StaleReads != 2 {
		t.Errorf("attempts/stale = %d/%d, want 3/2", record.Attempts, record.StaleReads)
	}
	if record.Decision != "approved" || record.ActualMargin != 14.04 || record.Locked {
		t.Errorf("result fields not copied: %+v", record)
	}
	if !record.HoursDefaulted || len(record.Defaulted) != 1 {
		t.Errorf("defaulted = %v, hours_defaulted = %v", record.Defaulted, record.HoursDefaulted)
	}
	if got := record.Inputs[engine.KeyRegion]; got != "Storstad" {
		t.Errorf("inputs[region] = %v, want Storstad", got)
	}
	if got := record.Inputs[engine.KeyFixedPrice]; got != nil {
		t.Errorf("inputs[fixed_price] = %v, want nil", got)
	}
	if len(record.InputHash) != 64 {
		t.Errorf("input hash length = %d, want 64", len(record.InputHash))
	}
}

func TestNewRecord_RedactsEmail(t *testing.T) {
	record := NewRecord(readyOutcome())

	if strings.Contains(record.ContactEmail, "anna.svensson") {
		t.Errorf("contact email not redacted: %q", record.ContactEmail)
	}
	if record.ContactEmail != "a***@example.se" {
		t.Errorf("contact email = %q, want a***@example.se", record.ContactEmail)
	}
}

func TestNewRecord_InputHashIsStable(t *testing.T) {
	a := NewRecord(readyOutcome())
	b := NewRecord(readyOutcome())
	if a.InputHash != b.InputHash {
		t.Errorf("hashes differ for equal inputs: %s vs %s", a.InputHash, b.InputHash)
	}

	o := readyOutcome()
	o.Input.MaterialCost = normalize.Some(20001)
	if NewRecord(o).InputHash == a.InputHash {
		t.Error("hash did not change with inputs")
	}
}

func TestNewRecord_Invalid(t *testing.T) {
	req := normalize.Request{"jobType": "renovation", "region": "moon", "pricingModel": "hourly"}
	_, err := normalize.New(normalize.DefaultHoursTable()).Normalize(req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	record := NewRecord(&bridge.Outcome{Status: bridge.StatusInvalid, Started: time.Now(), Request: req, Err: err})

	if record.Inputs != nil || record.InputHash != "" {
		t.Errorf("invalid outcome carries inputs: %v %q", record.Inputs, record.InputHash)
	}
	found := false
	for _, f := range record.InvalidFields {
		if f == normalize.FieldRegion {
			found = true
		}
	}
	if !found {
		t.Errorf("invalid fields = %v, want to contain %q", record.InvalidFields, normalize.FieldRegion)
	}
	if record.Error == "" {
		t.Error("error text is empty")
	}
}

func TestNewRecord_TimeoutKeepsSnapshot(t *testing.T) {
	o := readyOutcome()
	o.Status = bridge.StatusTimeout
	o.Result = nil
	o.Err = &bridge.TimeoutError{
		Token:        "tok-1",
		Deadline:     time.Second,
		Attempts:     7,
		LastSnapshot: bridge.Snapshot{"run_id": "tok-0", "decision": "approved"},
	}

	record := NewRecord(o)
	if record.LastSnapshot["run_id"] != "tok-0" {
		t.Errorf("last snapshot = %v", record.LastSnapshot)
	}
	if record.Decision != "" {
		t.Errorf("timeout record has decision %q", record.Decision)
	}
}

func TestRecorder_StoresAsync(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := NewRecorder(store, config.RecorderConfig{AsyncBuffer: 10, WriteTimeout: time.Second})

	for i := 0; i < 5; i++ {
		rec.Record(context.Background(), readyOutcome())
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if store.Size() != 5 {
		t.Errorf("stored %d records, want 5", store.Size())
	}
}

func TestRecorder_CanceledContextStillRecords(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := NewRecorder(store, config.RecorderConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, readyOutcome())
	rec.Close()

	if store.Size() != 1 {
		t.Errorf("stored %d records, want 1", store.Size())
	}
}

func TestRecorder_EnqueueAfterClose(t *testing.T) {
	rec := NewRecorder(storage.NewMemoryStorage(), config.RecorderConfig{})
	rec.Close()
	rec.Close()

	err := rec.Enqueue(&runs.Record{ID: "late"})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Enqueue() after Close error = %v, want ErrClosed", err)
	}
}

type blockingStorage struct {
	*storage.MemoryStorage
	release chan struct{}
}

func (s *blockingStorage) Store(ctx context.Context, record *runs.Record) error {
	<-s.release
	return s.MemoryStorage.Store(ctx, record)
}

func TestRecorder_FullBufferDrops(t *testing.T) {
	store := &blockingStorage{MemoryStorage: storage.NewMemoryStorage(), release: make(chan struct{})}
	rec := NewRecorder(store, config.RecorderConfig{AsyncBuffer: 1, WriteTimeout: 300 * time.Millisecond})

	// One record in the worker, one in the buffer.
	if err := rec.Enqueue(&runs.Record{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(time.Second)
	for {
		if err := rec.Enqueue(&runs.Record{ID: "b"}); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("could not fill buffer")
		}
	}

	err := rec.Enqueue(&runs.Record{ID: "c"})
	var recErr *runs.RecorderError
	if !errors.As(err, &recErr) || !errors.Is(err, ErrBufferFull) {
		t.Errorf("Enqueue() on full buffer error = %v, want ErrBufferFull", err)
	}

	start := time.Now()
	rec.Record(context.Background(), readyOutcome())
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Record() on full buffer took %v, want it to return immediately", elapsed)
	}

	close(store.release)
	rec.Close()
	if store.Size() != 2 {
		t.Errorf("stored %d records, want 2", store.Size())
	}
}

func TestRecorder_CloseKeepsAcceptedRecords(t *testing.T) {
	for range 50 {
		store := storage.NewMemoryStorage()
		rec := NewRecorder(store, config.RecorderConfig{AsyncBuffer: 64})

		var accepted atomic.Int64
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 16; i++ {
					if rec.Enqueue(&runs.Record{ID: uuid.NewString()}) == nil {
						accepted.Add(1)
					}
				}
			}()
		}
		rec.Close()
		wg.Wait()

		if got := int64(store.Size()); got != accepted.Load() {
			t.Fatalf("stored %d records, accepted %d", got, accepted.Load())
		}
	}
}

func TestHashContent(t *testing.T) {
	if HashContent(nil) != "" {
		t.Error("empty content should hash to empty string")
	}
	// sha256("test")
	want := "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	if got := HashContent([]byte("test")); got != want {
		t.Errorf("HashContent(test) = %s, want %s", got, want)
	}

	big := make([]byte, MaxHashSize+10)
	if HashContent(big) != HashContent(big[:MaxHashSize]) {
		t.Error("content beyond MaxHashSize should be ignored")
	}
}
