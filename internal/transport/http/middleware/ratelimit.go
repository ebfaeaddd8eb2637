package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/baechuer/chatcpe-service/internal/domain"
	"github.com/baechuer/chatcpe-service/internal/infrastructure/redis"
	"github.com/baechuer/chatcpe-service/internal/logger"
)

type RateLimiter interface {
	AllowFixedWindow(ctx context.Context, key string, limit int, window time.Duration) (redis.Decision, error)
}

type FixedWindowConfig struct {
	RouteKey string
	Limit    int
	Window   time.Duration
}

// RateLimit limits per user (when authenticated) or per client IP. With a
// nil limiter it counts in process via httprate; a Redis error lets the
// request through.
func RateLimit(limiter RateLimiter, cfg FixedWindowConfig, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.RouteKey == "" {
		cfg.RouteKey = "default"
	}
	if cfg.Limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	if limiter == nil {
		return httprate.Limit(
			cfg.Limit,
			cfg.Window,
			httprate.WithKeyFuncs(func(r *http.Request) (string, error) { return userOrIP(r), nil }),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				rateLimitDecisions.WithLabelValues(cfg.RouteKey, "blocked").Inc()
				writeErr(w, r, domain.ErrRateLimited(cfg.RouteKey))
			}),
		)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := windowBucket(time.Now(), cfg.Window)
			key := fmt.Sprintf("rl:%s:%s:%d", cfg.RouteKey, userOrIP(r), bucket)

			dec, err := limiter.AllowFixedWindow(r.Context(), key, cfg.Limit, cfg.Window)
			if err != nil {
				rateLimitDecisions.WithLabelValues(cfg.RouteKey, "error").Inc()
				logger.WithCtx(r.Context()).Warn().Err(err).Str("route", cfg.RouteKey).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))

			if !dec.Allowed {
				rateLimitDecisions.WithLabelValues(cfg.RouteKey, "blocked").Inc()
				if dec.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(dec.RetryAfter.Seconds()+0.999)))
				}
				writeErr(w, r, domain.ErrRateLimited(cfg.RouteKey))
				return
			}

			rateLimitDecisions.WithLabelValues(cfg.RouteKey, "allowed").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func windowBucket(now time.Time, window time.Duration) int64 {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = 60_000
	}
	return now.UnixMilli() / ms
}

func userOrIP(r *http.Request) string {
	if u, ok := UserFromContext(r.Context()); ok {
		return "u:" + strconv.FormatInt(u.ID, 10)
	}
	return "ip:" + clientIP(r)
}

// clientIP uses RemoteAddr only; chi's RealIP middleware rewrites it when
// the service runs behind a trusted proxy.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
