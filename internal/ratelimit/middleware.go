package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/devport-app/devport/internal/auth"
	"github.com/devport-app/devport/internal/observability"
	"github.com/devport-app/devport/internal/platform/httpx"
)

// Middleware applies named policies to route groups. The limiting key is
// the principal ID when the request is authenticated, otherwise the caller
// network address: unauthenticated traffic from one address shares one
// budget while each principal gets an independent one.
type Middleware struct {
	Limiter *Limiter
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Limit returns the pipeline stage enforcing the given policy.
func (m Middleware) Limit(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := m.Limiter.Check(r.Context(), p, RequestKey(r))
			if err != nil {
				// The limiter protects capacity; a Redis outage degrades to
				// unthrottled traffic instead of refusing everything.
				if m.Logger != nil {
					m.Logger.Warn("rate limit check failed", slog.String("policy", p.Name), slog.Any("error", err))
				}
			}
			if !result.Allowed {
				m.Metrics.RateLimited(p.Name)
				httpx.TooManyRequests(w, result.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestKey derives the limiting key for a request.
func RequestKey(r *http.Request) string {
	if principal := auth.PrincipalFromContext(r.Context()); principal != nil {
		return "principal:" + strconv.FormatInt(principal.ID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
