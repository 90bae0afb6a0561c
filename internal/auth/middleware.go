package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/devport-app/devport/internal/platform/httpx"
)

// Middleware wires authentication checks for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAuth extracts the bearer credential, resolves the principal, and
// attaches it to the request context. Failures terminate the request with a
// generic 401; a store invariant violation is logged and answered 500.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.Service.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, ErrHashCollision) {
				if m.Logger != nil {
					m.Logger.Error("credential store invariant violated", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireVerified rejects authenticated principals that have not completed
// email verification. It must be mounted after RequireAuth.
func (m Middleware) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := PrincipalFromContext(r.Context())
		if principal == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		if !principal.Verified() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
