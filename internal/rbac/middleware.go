package rbac

import (
	"log/slog"
	"net/http"

	"github.com/devport-app/devport/internal/auth"
	"github.com/devport-app/devport/internal/platform/httpx"
)

// Middleware wires role-based authorization for HTTP handlers. Role sets
// are passed as explicit preconstructed values, not re-parsed per request.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRole allows the request through when the principal holds at least
// one role from the required set. An empty set only demands authentication.
func (m Middleware) RequireRole(required RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			decision := Authorize(principal, required)
			if decision.Allow {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(w, r, decision)
		})
	}
}

// RequireGate enforces a named capability gate.
func (m Middleware) RequireGate(gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			decision := Authorize(principal, gate.Requires)
			if decision.Allow {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil && decision.Reason == DenyForbiddenRole {
				m.Logger.Warn("gate denied", slog.String("gate", gate.Name), slog.String("path", r.URL.Path))
			}
			m.deny(w, r, decision)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, decision Decision) {
	if decision.Reason == DenyUnauthenticated {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
}
