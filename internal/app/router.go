package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/devport-app/devport/internal/auth"
	"github.com/devport-app/devport/internal/observability"
	"github.com/devport-app/devport/internal/projects"
	"github.com/devport-app/devport/internal/ratelimit"
	"github.com/devport-app/devport/internal/rbac"
	"github.com/devport-app/devport/internal/roles"
	"github.com/devport-app/devport/internal/users"
	"github.com/devport-app/devport/internal/verify"
)

// Policies bundles the named rate-limit policies the router mounts.
type Policies struct {
	Auth ratelimit.Policy
	API  ratelimit.Policy
}

// PoliciesFromConfig builds the standard policy pair.
func PoliciesFromConfig(cfg *Config) Policies {
	return Policies{
		Auth: ratelimit.Policy{Name: "auth", Limit: cfg.AuthRateLimit, Window: cfg.AuthRateWindow},
		API:  ratelimit.Policy{Name: "api", Limit: cfg.APIRateLimit, Window: cfg.APIRateWindow},
	}
}

// RouterParams groups dependencies for building the HTTP router. Everything
// the pipeline composes arrives here explicitly; there is no ambient
// registry to consult at request time.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Policies        Policies
	AuthHandler     *auth.Handler
	VerifyHandler   *verify.Handler
	UsersHandler    *users.Handler
	RolesHandler    *roles.Handler
	ProjectsHandler *projects.Handler
	AuthMiddleware  auth.Middleware
	RBACMiddleware  rbac.Middleware
	RateLimit       ratelimit.Middleware
	Gates           rbac.Gates
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router. Each route group is an explicit
// ordered composition: rate limiter, then authenticator, then role gate,
// then handler; a stage that short-circuits terminates the request.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		// Credential-guessing-prone routes: tight budget keyed by address.
		r.Group(func(r chi.Router) {
			r.Use(params.RateLimit.Limit(params.Policies.Auth))
			params.AuthHandler.MountRoutes(r)
			params.VerifyHandler.MountPublicRoutes(r)
		})
		// Resend and email change require a principal; the budget is then
		// per principal.
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)
			r.Use(params.RateLimit.Limit(params.Policies.Auth))
			params.VerifyHandler.MountAuthenticatedRoutes(r)
			params.AuthHandler.MountAuthenticatedRoutes(r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireAuth)
		r.Use(params.RateLimit.Limit(params.Policies.API))

		r.Route("/users", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireGate(params.Gates.ManageUsers))
			params.UsersHandler.MountRoutes(r)
		})
		r.Route("/roles", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireGate(params.Gates.ManageRoles))
			params.RolesHandler.MountRoutes(r)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireRole(rbac.NewRoleSet(rbac.RoleAdmin, rbac.RoleDeveloper, rbac.RoleClient)))
			r.Use(params.AuthMiddleware.RequireVerified)
			params.ProjectsHandler.MountRoutes(r)
		})
	})

	return r
}
