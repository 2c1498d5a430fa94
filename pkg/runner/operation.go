package runner

import (
	"errors"
	"fmt"
	"strings"
)

// Operation names a mutating lifecycle operation.
type Operation string

const (
	ClearIndices   Operation = "clear_indices"
	UpdateAliases  Operation = "update_aliases"
	UpdateReplicas Operation = "update_replicas"
)

var (
	// ErrUnknownOperation is returned for an operation name the runner does not know.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrAlreadyRunning is returned when the same operation is still in
	// progress. No run is recorded for the rejected attempt.
	ErrAlreadyRunning = errors.New("operation already running")
)

// Operations returns every operation in scheduling order.
func Operations() []Operation {
	return []Operation{ClearIndices, UpdateAliases, UpdateReplicas}
}

// ParseOperation accepts both the underscore form ("clear_indices") and the
// route form ("clear-indices").
func ParseOperation(name string) (Operation, error) {
	op := Operation(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	for _, known := range Operations() {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// Slug returns the route form of the operation, e.g. "clear-indices".
func (o Operation) Slug() string {
	return strings.ReplaceAll(string(o), "_", "-")
}

// Trigger says what started a run.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerHTTP     Trigger = "http"
	TriggerCLI      Trigger = "cli"
)
