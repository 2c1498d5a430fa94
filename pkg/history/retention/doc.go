// Package retention prunes old run records from a history.Store.
//
// The pruner only deletes; pkg/schedule triggers it on the configured
// prune_schedule.
package retention
