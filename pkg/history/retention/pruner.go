package retention

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/retainer/pkg/history"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days runs are kept.
	// Zero or a negative value keeps runs forever.
	RetentionDays int
}

// Observer is notified of the number of runs each pruning pass deleted.
type Observer interface {
	RecordHistoryPruned(n int64)
}

// Pruner deletes runs older than the retention period.
type Pruner struct {
	store    history.Store
	config   Config
	observer Observer
	now      func() time.Time
	logger   *slog.Logger
}

// NewPruner creates a pruner over store.
func NewPruner(store history.Store, config Config) *Pruner {
	return &Pruner{
		store:  store,
		config: config,
		now:    time.Now,
		logger: slog.Default().With("component", "history.retention"),
	}
}

// SetObserver registers o to receive pruned counts.
func (p *Pruner) SetObserver(o Observer) {
	p.observer = o
}

// SetClock replaces the clock used to compute the cutoff.
func (p *Pruner) SetClock(now func() time.Time) {
	p.now = now
}

// Cutoff returns the start time before which runs are deleted, and false
// when pruning is disabled.
func (p *Pruner) Cutoff() (time.Time, bool) {
	if p.config.RetentionDays <= 0 {
		return time.Time{}, false
	}
	return p.now().AddDate(0, 0, -p.config.RetentionDays), true
}

// Prune deletes runs older than the retention period and returns the
// number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff, ok := p.Cutoff()
	if !ok {
		p.logger.Debug("history retention disabled, nothing pruned")
		return 0, nil
	}

	p.logger.Debug("pruning by age",
		"cutoff_time", cutoff,
		"retention_days", p.config.RetentionDays,
	)

	deleted, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, history.NewRetentionError(p.config.RetentionDays, err)
	}

	if p.observer != nil && deleted > 0 {
		p.observer.RecordHistoryPruned(deleted)
	}

	if deleted == 0 {
		p.logger.Debug("no runs pruned", "retention_days", p.config.RetentionDays)
	} else {
		p.logger.Info("history pruning completed",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}

	return deleted, nil
}
