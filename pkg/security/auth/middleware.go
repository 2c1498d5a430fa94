package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// HeaderAPIKey is the alternative to "Authorization: Bearer <key>".
const HeaderAPIKey = "X-API-Key"

type contextKey string

const callerKey contextKey = "api_key_fingerprint"

// Caller returns the fingerprint of the key that authenticated the request,
// or "" for unauthenticated routes.
func Caller(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey).(string); ok {
		return v
	}
	return ""
}

// Middleware rejects requests without a valid API key with 401. A
// validator with no keys lets every request through.
func Middleware(v *Validator) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "auth")

	return func(next http.Handler) http.Handler {
		if v == nil || v.Len() == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fingerprint, err := v.Validate(extractKey(r))
			if err != nil {
				logger.WarnContext(r.Context(), "request rejected",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				unauthorized(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, fingerprint)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractKey reads the bearer token, falling back to HeaderAPIKey.
func extractKey(r *http.Request) string {
	if value := r.Header.Get("Authorization"); value != "" {
		scheme, token, ok := strings.Cut(value, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(HeaderAPIKey))
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="retainer"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"kind":  "unauthorized",
	})
}
