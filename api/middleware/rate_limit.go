package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/calebmonroe/printhaus-backend/api/responses"
	"github.com/calebmonroe/printhaus-backend/pkg/config"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
	"github.com/calebmonroe/printhaus-backend/pkg/metrics"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, time.Duration, error)
}

// RateLimit applies a fixed-window counter per caller identity: the owner id
// header when present, otherwise the client IP. A backing-store failure
// admits the request; throttling is load shedding, not an integrity control.
func RateLimit(cfg config.RateLimitConfig, store rateLimiterStore, m *metrics.RateLimitMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.Limit <= 0 || cfg.Window <= 0 || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := callerIdentity(r)

			allowed, retryAfter, err := store.FixedWindowAllow(ctx, identity, int64(cfg.Limit), cfg.Window)
			if err != nil {
				m.IncFailOpen()
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "identity", identity), "rate_limit.degraded")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				m.IncDenied()
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "identity", identity), "rate_limit.blocked")
				}
				responses.WriteRateLimited(ctx, logg, w, retryAfter)
				return
			}

			m.IncAllowed()
			next.ServeHTTP(w, r)
		})
	}
}

func callerIdentity(r *http.Request) string {
	if ownerID, ok := OwnerID(r.Context()); ok {
		return "owner:" + ownerID.String()
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
