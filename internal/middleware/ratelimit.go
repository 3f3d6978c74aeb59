package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/tinkerer-vote/internal/repository/rediscache"
)

// Limiter is satisfied by *rediscache.Limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (rediscache.Decision, error)
}

var _ Limiter = (*rediscache.Limiter)(nil)

// RateLimitPolicy names one limit; the name keeps counters for different
// route groups apart.
type RateLimitPolicy struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
}

// RateLimit counts requests per client IP. Over the limit it answers 429 with
// a JSON error. Limiter failures are logged and the request is let through.
func RateLimit(limiter Limiter, policy RateLimitPolicy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := policy.Name + ":" + clientIP(r)

			d, err := limiter.Allow(r.Context(), key, policy.Limit, policy.Window)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request",
					slog.String("policy", policy.Name),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			resetSeconds := strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds())))
			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("RateLimit-Reset", resetSeconds)

			if !d.Allowed {
				h.Set("Retry-After", resetSeconds)
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error":   "rate_limited",
					"message": policy.Message,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already replaced it with the proxy-reported address when one is present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
