// Package logging configures structured logging with credential redaction.
//
// # Overview
//
// The package builds on log/slog and provides:
//   - JSON and text output at a configurable level
//   - Redaction of passwords, tokens and URL userinfo
//   - Run, operation and request IDs taken from the context
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:             "info",
//	    Format:            "json",
//	    RedactCredentials: true,
//	})
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "indices deleted", "count", 3)  // includes run_id
//
// Components keep taking slog.Default().With("component", ...) after Setup.
//
// # Redaction
//
//   - Keys containing password, secret, token or authorization: value -> ***
//   - URLs: https://elastic:changeme@es:9200 -> https://elastic:***@es:9200
//   - Headers: Basic dXNlcjpwYXNz -> Basic ***
package logging
