package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter allows perMinute requests on average with bursts of burst.
// It returns nil, meaning unlimited, when perMinute is not positive.
func NewLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// RateLimit answers 429 with a Retry-After header once limiter is
// exhausted. The limiter is shared by every caller of the wrapped routes.
// A nil limiter lets every request through.
//
// Example usage:
//
//	handler = RateLimit(NewLimiter(30, 5))(handler)
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reservation := limiter.Reserve()
			delay := reservation.Delay()
			if delay == 0 {
				next.ServeHTTP(w, r)
				return
			}
			reservation.Cancel()

			retryAfter := max(1, int(math.Ceil(delay.Seconds())))
			slog.WarnContext(r.Context(), "request rate limited",
				"method", r.Method,
				"path", r.URL.Path,
				"retry_after_s", retryAfter,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "too many action requests",
				"kind":  "rate_limited",
			})
		})
	}
}
