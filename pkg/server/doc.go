// Package server exposes the lifecycle manager over HTTP.
//
// # Routes
//
//   - GET  /status/indices: every index name, sorted
//   - GET  /status/settings: index name to {shards, replicas}
//   - GET  /status/aliases: managed aliases and their indices
//   - POST /actions/clear-indices, /actions/update-aliases,
//     /actions/update-replicas: run the operation now
//   - GET  /history, /history/{id}: recorded runs
//   - GET  /health, /ready, /version and the metrics path
//
// An action answers 200 with {run_id, operation, result} or 500 with
// {run_id, error, kind}, where kind is "transport", "status", "decode" or
// "internal". An operation that is still running answers 409.
//
// With API keys configured the action routes answer 401 to callers without
// a valid key; with server.actions_per_minute set they answer 429 once the
// shared budget is spent.
package server
