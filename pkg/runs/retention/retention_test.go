package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/runs"
	"mercator-hq/quotegate/pkg/runs/storage"
)

var now = time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)

// seedDaily stores one run per day, the newest started one hour ago.
func seedDaily(t *testing.T, s runs.Storage, days int) {
	t.Helper()
	for i := 0; i < days; i++ {
		r := &runs.Record{
			ID:        fmt.Sprintf("run-%03d", i),
			Status:    "ready",
			StartedAt: now.Add(-time.Hour).AddDate(0, 0, -i),
		}
		if err := s.Store(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

func newPruner(s runs.Storage, cfg config.RetentionConfig) *Pruner {
	p := NewPruner(s, cfg)
	p.now = func() time.Time { return now }
	return p
}

func TestPrune_ByAge(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedDaily(t, s, 10)

	deleted, err := newPruner(s, config.RetentionConfig{Days: 7}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	// run-006 started 6 days and 1 hour ago and survives.
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}
	if s.Size() != 7 {
		t.Errorf("remaining = %d, want 7", s.Size())
	}
}

func TestPrune_ByCount(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedDaily(t, s, 10)

	deleted, err := newPruner(s, config.RetentionConfig{MaxRecords: 4}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 6 {
		t.Errorf("deleted = %d, want 6", deleted)
	}

	left, _ := s.Query(context.Background(), &runs.Query{SortOrder: "asc"})
	if len(left) != 4 || left[0].ID != "run-003" {
		t.Errorf("kept %d runs starting with %v, want the newest 4", len(left), left)
	}
}

func TestPrune_Combined(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedDaily(t, s, 30)

	deleted, err := newPruner(s, config.RetentionConfig{Days: 20, MaxRecords: 5}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 25 || s.Size() != 5 {
		t.Errorf("deleted = %d remaining = %d, want 25 and 5", deleted, s.Size())
	}
}

func TestPrune_Disabled(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedDaily(t, s, 10)

	deleted, err := newPruner(s, config.RetentionConfig{}).Prune(context.Background())
	if err != nil || deleted != 0 {
		t.Errorf("Prune() = %d, %v; want 0, nil", deleted, err)
	}
}

func TestPrune_UnderLimit(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedDaily(t, s, 3)

	deleted, err := newPruner(s, config.RetentionConfig{MaxRecords: 10}).Prune(context.Background())
	if err != nil || deleted != 0 {
		t.Errorf("Prune() = %d, %v; want 0, nil", deleted, err)
	}
}

func TestPruner_SetConfig(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), config.RetentionConfig{Days: 30})
	p.SetConfig(config.RetentionConfig{Days: 7, PruneSchedule: "@daily"})
	if got := p.Config(); got.Days != 7 || got.PruneSchedule != "@daily" {
		t.Errorf("Config() = %+v", got)
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), config.RetentionConfig{Days: 30, PruneSchedule: "0 3 * * *"})
	s := NewScheduler(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("scheduler not running after Start")
	}
	next := s.NextRun()
	if next == nil || next.Hour() != 3 || next.Minute() != 0 {
		t.Errorf("NextRun() = %v, want 03:00", next)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
	if s.NextRun() != nil {
		t.Error("NextRun() should be nil when stopped")
	}
	s.Stop()
}

func TestScheduler_StopsWithContext(t *testing.T) {
	s := NewScheduler(NewPruner(storage.NewMemoryStorage(), config.RetentionConfig{PruneSchedule: "@hourly"}))

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for s.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not stop after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduler_EmptyAndInvalidSchedule(t *testing.T) {
	s := NewScheduler(NewPruner(storage.NewMemoryStorage(), config.RetentionConfig{}))
	if err := s.Start(context.Background()); err != nil {
		t.Errorf("empty schedule: Start() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("empty schedule should not start")
	}

	s = NewScheduler(NewPruner(storage.NewMemoryStorage(), config.RetentionConfig{PruneSchedule: "every tuesday"}))
	if err := s.Start(context.Background()); err == nil {
		t.Error("invalid schedule: expected error")
	}
}
