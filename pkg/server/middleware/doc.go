// Package middleware provides the HTTP middleware chain of the retainer
// server: request IDs, request logging, panic recovery and a shared rate
// limit for the action routes.
//
//	var handler http.Handler = mux
//	handler = middleware.Recovery(handler)
//	handler = middleware.Logging("/health", "/ready", "/metrics")(handler)
//	handler = middleware.RequestID(handler)
//
// RequestID is outermost so the request ID is in the context of every log
// line, including the one Logging writes for a recovered panic.
package middleware
