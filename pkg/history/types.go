package history

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Run records one execution of a lifecycle operation.
type Run struct {
	// ID is the run ID (UUID), also attached to every log line of the run.
	ID string `json:"id"`

	// Operation is the operation name, e.g. "clear_indices".
	Operation string `json:"operation"`

	// Trigger says what started the run: "schedule", "http" or "cli".
	Trigger string `json:"trigger"`

	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// DurationMS is FinishedAt - StartedAt in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Result is the JSON result of a successful run.
	Result json.RawMessage `json:"result,omitempty"`

	// Error and ErrorKind describe a failed run. ErrorKind is one of
	// "transport", "status", "decode" or "internal".
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Succeeded reports whether the run finished without error.
func (r *Run) Succeeded() bool {
	return r.Status == StatusSuccess
}

// DefaultListLimit is used when Query.Limit is zero.
const DefaultListLimit = 50

// MaxListLimit caps Query.Limit.
const MaxListLimit = 1000

// Query filters runs returned by Store.List.
type Query struct {
	// Operation restricts results to one operation. Empty means all.
	Operation string

	// Status restricts results to one outcome. Empty means all.
	Status Status

	// Limit is the maximum number of runs returned, newest first.
	Limit int
}

// EffectiveLimit returns the limit List applies for q.
func (q Query) EffectiveLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultListLimit
	case q.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return q.Limit
	}
}

// Store persists run records.
type Store interface {
	// Save inserts or replaces a run.
	Save(ctx context.Context, run *Run) error

	// Get returns the run with the given ID or ErrRunNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns runs matching q ordered by StartedAt, newest first.
	List(ctx context.Context, q Query) ([]*Run, error)

	// Prune deletes runs started before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the store is usable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
