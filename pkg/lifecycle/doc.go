// Package lifecycle reconciles time-partitioned indices with the configured
// retention, alias and replica policies.
//
// Index names carry a calendar date: "{prefix}-YYYY.MM.DD". Only indices that
// start with the managed prefix are ever deleted or have their settings
// changed, and only aliases named in the policy are ever mutated.
//
// # Operations
//
// Manager exposes five operations:
//
//   - ListIndices: every index name, sorted
//   - ListIndexSettings: index name to shard and replica counts
//   - ClearOldIndices: delete managed indices outside the retention window
//   - UpdateAliases: point each managed alias at its own window of indices
//   - UpdateReplicas: lower the replica count of indices past the replica window
//
// Every operation computes its date windows from the clock at call time.
// Nothing is cached between calls.
//
// # Pipelines
//
// Each mutating operation is a fixed sequence of stages: fetch, filter, diff,
// apply and, where the result is reported back, re-read. Fetch and apply are
// the only stages that talk to the backend; the rest are plain functions
// (FilterManaged, AcceptableIndices, Difference, ChunkIndices, InvertAliases,
// FilterManagedAliases, PlanAliasActions, ReplicaCandidates) that can be
// tested without a cluster.
//
// # Failure
//
// The first failing backend call fails the whole operation. Calls that were
// already in flight may still have been applied by the backend, so a failed
// ClearOldIndices or UpdateReplicas can leave a partially applied result.
// Nothing is retried.
//
// # Concurrency
//
// Deletion chunks and replica updates are issued concurrently, bounded by
// Policy.MaxConcurrency. Alias changes are always a single request.
package lifecycle
