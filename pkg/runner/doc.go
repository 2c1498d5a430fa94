// Package runner executes named lifecycle operations.
//
// Each run gets a UUID that is attached to the context (and therefore to
// every log line) and returned to the caller. The outcome is reported to
// the metrics collector and saved to the history store; a failure to save
// history is logged and never fails the run.
//
// An operation runs at most once at a time per Runner. A scheduled run and
// an HTTP action for the same operation do not overlap; the later one gets
// ErrAlreadyRunning.
//
//	r := runner.New(manager,
//	    runner.WithHistory(store),
//	    runner.WithMetrics(collector),
//	)
//	run, err := r.Run(ctx, runner.ClearIndices, runner.TriggerHTTP)
package runner
