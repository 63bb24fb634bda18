package impersonation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/platform/httpx"
	"github.com/rentora/rentora-admin/internal/shared"
)

// Handler exposes the impersonation session endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes attaches impersonation routes. Everything requires at least
// admin; finer rules (ownership, superadmin override) live in the service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireRole(authz.RoleAdmin))
	r.Post("/", h.start)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/end", h.end)
}

type startRequest struct {
	TargetID int64  `json:"target_id" validate:"required,gt=0"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

type endRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	var req startRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	result, err := h.service.Start(r.Context(), actor, req.TargetID, req.Reason)
	if err != nil {
		h.logger.Warn("start impersonation",
			slog.Int64("actor_id", actor.ID),
			slog.Int64("target_id", req.TargetID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	sessions, err := h.service.List(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if sessions == nil {
		sessions = []Session{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	session, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) end(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	var req endRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && err.Error() != "EOF" {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	session, err := h.service.End(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.logger.Warn("end impersonation",
			slog.Int64("actor_id", actor.ID),
			slog.String("session_id", chi.URLParam(r, "id")),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}
