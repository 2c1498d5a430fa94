package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/retainer/pkg/elastic"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/lifecycle"
	"mercator-hq/retainer/pkg/telemetry/logging"
)

// Lifecycle is the set of mutating operations a Runner drives.
// *lifecycle.Manager satisfies it.
type Lifecycle interface {
	ClearOldIndices(ctx context.Context) ([]string, error)
	UpdateAliases(ctx context.Context) (lifecycle.AliasState, error)
	UpdateReplicas(ctx context.Context) (map[string]lifecycle.IndexSettings, error)
}

// Metrics records the outcome of each run.
type Metrics interface {
	RecordOperation(operation, status string, duration time.Duration)
}

// Runner executes lifecycle operations with a run ID, logging, metrics and
// history. The scheduler, the HTTP actions and the CLI all go through it.
type Runner struct {
	mu        sync.RWMutex
	lifecycle Lifecycle

	busyMu sync.Mutex
	busy   map[Operation]bool

	store   history.Store
	metrics Metrics
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistory records every run in store.
func WithHistory(store history.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithMetrics reports every run to m.
func WithMetrics(m Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner over lc.
func New(lc Lifecycle, opts ...Option) *Runner {
	r := &Runner{
		lifecycle: lc,
		busy:      make(map[Operation]bool),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.Default().With("component", "runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetLifecycle swaps the lifecycle used by later runs. Runs already in
// progress finish on the previous one.
func (r *Runner) SetLifecycle(lc Lifecycle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lifecycle = lc
}

// Run executes op and returns its record. The record is returned for failed
// runs as well, together with the operation's error. A second Run of an
// operation that is still in progress fails with ErrAlreadyRunning and a
// nil record.
func (r *Runner) Run(ctx context.Context, op Operation, trigger Trigger) (*history.Run, error) {
	if !r.acquire(op) {
		r.logger.WarnContext(ctx, "lifecycle operation skipped", "operation", op, "trigger", trigger, "reason", "already running")
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, op)
	}
	defer r.release(op)

	r.mu.RLock()
	lc := r.lifecycle
	r.mu.RUnlock()

	run := &history.Run{
		ID:        r.newID(),
		Operation: string(op),
		Trigger:   string(trigger),
		StartedAt: r.now(),
	}

	ctx = logging.WithRunID(ctx, run.ID)
	ctx = logging.WithOperation(ctx, run.Operation)

	r.logger.InfoContext(ctx, "lifecycle operation started", "trigger", trigger)

	result, changed, err := execute(ctx, lc, op)
	if err == nil {
		run.Result, err = json.Marshal(result)
	}

	run.FinishedAt = r.now()
	duration := run.FinishedAt.Sub(run.StartedAt)
	run.DurationMS = duration.Milliseconds()

	if err != nil {
		run.Status = history.StatusFailure
		run.Error = err.Error()
		run.ErrorKind = elastic.Kind(err)
		run.Result = nil

		r.logger.ErrorContext(ctx, "lifecycle operation failed",
			"error", err,
			"kind", run.ErrorKind,
			"duration_ms", run.DurationMS,
		)
	} else {
		run.Status = history.StatusSuccess

		r.logger.InfoContext(ctx, "lifecycle operation completed",
			"changed", changed,
			"duration_ms", run.DurationMS,
		)
	}

	if r.metrics != nil {
		r.metrics.RecordOperation(run.Operation, string(run.Status), duration)
	}
	r.record(ctx, run)

	return run, err
}

func (r *Runner) acquire(op Operation) bool {
	r.busyMu.Lock()
	defer r.busyMu.Unlock()
	if r.busy[op] {
		return false
	}
	r.busy[op] = true
	return true
}

func (r *Runner) release(op Operation) {
	r.busyMu.Lock()
	defer r.busyMu.Unlock()
	delete(r.busy, op)
}

// record saves run even when the caller's context is already cancelled.
func (r *Runner) record(ctx context.Context, run *history.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(context.WithoutCancel(ctx), run); err != nil {
		r.logger.WarnContext(ctx, "failed to record run history", "error", err)
	}
}

// execute dispatches op. Besides the result it returns the number of
// indices or aliases the result covers, for logging.
func execute(ctx context.Context, lc Lifecycle, op Operation) (any, int, error) {
	switch op {
	case ClearIndices:
		deleted, err := lc.ClearOldIndices(ctx)
		return deleted, len(deleted), err
	case UpdateAliases:
		state, err := lc.UpdateAliases(ctx)
		return state, len(state), err
	case UpdateReplicas:
		settings, err := lc.UpdateReplicas(ctx)
		return settings, len(settings), err
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
}
