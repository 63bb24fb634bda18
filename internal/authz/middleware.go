package authz

import (
	"log/slog"
	"net/http"

	"github.com/rentora/rentora-admin/internal/platform/httpx"
	"github.com/rentora/rentora-admin/internal/shared"
)

// Middleware wires role checks for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRole ensures the current actor holds at least the given role.
func (m Middleware) RequireRole(min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if !actor.Role.AtLeast(min) {
				if m.Logger != nil {
					m.Logger.Warn("role check failed",
						slog.Int64("actor_id", actor.ID),
						slog.String("actor_role", string(actor.Role)),
						slog.String("required_role", string(min)))
				}
				httpx.RespondError(w, shared.ErrInsufficientRole)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
