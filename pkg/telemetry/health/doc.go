// Package health provides liveness, readiness and version endpoints.
//
// # Endpoints
//
//   - /health: Liveness probe, 200 while the process runs
//   - /ready: Readiness probe, runs every registered check
//   - /version: Build information
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("elasticsearch", health.PingCheck(client))
//	checker.RegisterCheck("history", health.PingCheck(store))
//
//	mux.HandleFunc("GET /health", checker.LivenessHandler())
//	mux.HandleFunc("GET /ready", checker.ReadinessHandler())
//	mux.HandleFunc("GET /version", health.VersionHandler(health.NewVersionInfo(version, commit, buildTime)))
//
// # Liveness vs Readiness
//
// Liveness never touches Elasticsearch: an unreachable cluster should
// take the process out of rotation, not get it restarted. Readiness
// returns 503 as soon as any check fails or exceeds the check timeout.
package health
