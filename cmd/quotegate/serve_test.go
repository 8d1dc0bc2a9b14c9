package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/runs/retention"
	"mercator-hq/quotegate/pkg/runs/storage"
)

func TestApplyReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.DefaultConfig()
	b := testBridge(approvingEngine())

	pruner := retention.NewPruner(storage.NewMemoryStorage(), cfg.Runs.Retention)
	scheduler := retention.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer scheduler.Stop()

	next := config.DefaultConfig()
	next.Bridge.Deadline = 3 * time.Second
	next.Runs.Retention.Days = 7
	next.Runs.Retention.PruneSchedule = "*/5 * * * *"

	applyReload(ctx, b, pruner, scheduler, next)

	if got := b.Settings().Deadline; got != 3*time.Second {
		t.Errorf("Deadline = %v, want 3s", got)
	}
	if got := pruner.Config(); got != next.Runs.Retention {
		t.Errorf("retention = %+v, want %+v", got, next.Runs.Retention)
	}
	if !scheduler.IsRunning() {
		t.Error("scheduler should be restarted")
	}
	if next := scheduler.NextRun(); next == nil || time.Until(*next) > 5*time.Minute {
		t.Errorf("NextRun() = %v, want within five minutes", next)
	}
}

func TestApplyReloadWithoutLedger(t *testing.T) {
	b := testBridge(approvingEngine())
	next := config.DefaultConfig()
	next.Bridge.PollInterval = 40 * time.Millisecond

	applyReload(context.Background(), b, nil, nil, next)

	if got := b.Settings().PollInterval; got != 40*time.Millisecond {
		t.Errorf("PollInterval = %v, want 40ms", got)
	}
}

func TestServeDryRun(t *testing.T) {
	defer func() { serveFlags.dryRun = false }()
	serveFlags.dryRun = true

	buf := &bytes.Buffer{}
	serveCmd.SetOut(buf)
	defer serveCmd.SetOut(nil)

	if err := runServe(serveCmd, nil); err != nil {
		t.Fatalf("runServe(--dry-run) error = %v", err)
	}
	if !strings.Contains(buf.String(), "Configuration valid") {
		t.Errorf("output = %q", buf.String())
	}
}
