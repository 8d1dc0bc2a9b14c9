package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/runs"
)

// Pruner enforces the ledger retention policy.
type Pruner struct {
	storage runs.Storage
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	config config.RetentionConfig
}

// NewPruner creates a pruner for storage.
func NewPruner(storage runs.Storage, cfg config.RetentionConfig) *Pruner {
	return &Pruner{
		storage: storage,
		config:  cfg,
		logger:  slog.Default().With("component", "runs.retention"),
		now:     time.Now,
	}
}

// SetConfig replaces the retention policy used by later passes.
func (p *Pruner) SetConfig(cfg config.RetentionConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = cfg
}

// Config returns the current retention policy.
func (p *Pruner) Config() config.RetentionConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// Prune deletes runs older than Days, then the oldest runs beyond
// MaxRecords, and returns how many were removed in total. Zero disables
// either phase.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cfg := p.Config()
	var total int64

	if cfg.Days > 0 {
		deleted, err := p.pruneByAge(ctx, cfg.Days)
		if err != nil {
			return total, &runs.RetentionError{Days: cfg.Days, Cause: err}
		}
		total += deleted
	}

	if cfg.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx, cfg.MaxRecords)
		if err != nil {
			return total, &runs.RetentionError{Days: cfg.Days, Cause: err}
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("run ledger pruned",
			"deleted_count", total,
			"retention_days", cfg.Days,
			"max_records", cfg.MaxRecords,
		)
	} else {
		p.logger.Debug("no runs pruned",
			"retention_days", cfg.Days,
			"max_records", cfg.MaxRecords,
		)
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context, days int) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -days)
	deleted, err := p.storage.Delete(ctx, &runs.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("prune by age: %w", err)
	}
	return deleted, nil
}

// pruneByCount keeps the newest max runs. Runs sharing the cutoff's start
// time are deleted together, so slightly more than the excess may go.
func (p *Pruner) pruneByCount(ctx context.Context, max int64) (int64, error) {
	count, err := p.storage.Count(ctx, &runs.Query{})
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	if count <= max {
		return 0, nil
	}

	excess := int(count - max)
	oldest, err := p.storage.Query(ctx, &runs.Query{SortOrder: "asc", Limit: excess})
	if err != nil {
		return 0, fmt.Errorf("query oldest runs: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	cutoff := oldest[len(oldest)-1].StartedAt
	deleted, err := p.storage.Delete(ctx, &runs.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("prune by count: %w", err)
	}
	return deleted, nil
}
