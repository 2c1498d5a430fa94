// Package telemetry groups the observability packages used by retainer.
//
// # Components
//
//   - logging: slog setup with credential redaction and context attributes
//   - metrics: Prometheus counters for operations, index changes and backend requests
//   - health: Liveness, readiness and version endpoints
//
// Each subpackage is wired independently by cmd/retainer; there is no
// aggregate telemetry object.
package telemetry
