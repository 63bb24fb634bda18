package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rentora/rentora-admin/internal/accounts"
	"github.com/rentora/rentora-admin/internal/assignments"
	"github.com/rentora/rentora-admin/internal/audit"
	"github.com/rentora/rentora-admin/internal/auth"
	"github.com/rentora/rentora-admin/internal/impersonation"
	"github.com/rentora/rentora-admin/internal/observability"
	"github.com/rentora/rentora-admin/internal/payments"
	"github.com/rentora/rentora-admin/internal/users"
	"github.com/rentora/rentora-admin/internal/vehicles"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	Metrics              *observability.Metrics
	Authenticator        *Authenticator
	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	AccountsHandler      *accounts.Handler
	VehiclesHandler      *vehicles.Handler
	PaymentsHandler      *payments.Handler
	AssignmentsHandler   *assignments.Handler
	ImpersonationHandler *impersonation.Handler
	AuditHandler         *audit.Handler
}

// NewRouter constructs the chi.Router with Rentora defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/auth", params.AuthHandler.MountPublicRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Authenticator.Middleware)

		r.Route("/auth/session", params.AuthHandler.MountProtectedRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
		r.Route("/vehicles", params.VehiclesHandler.MountRoutes)
		r.Route("/payments", params.PaymentsHandler.MountRoutes)
		r.Route("/assignments", params.AssignmentsHandler.MountRoutes)
		r.Route("/impersonation", params.ImpersonationHandler.MountRoutes)
		r.Route("/audit", params.AuditHandler.MountRoutes)
	})

	return r
}
