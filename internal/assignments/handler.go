package assignments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/platform/httpx"
	"github.com/rentora/rentora-admin/internal/shared"
)

// Handler exposes assignment management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes attaches assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireRole(authz.RoleAdmin))
	r.Get("/account/{accountID}", h.listByAccount)
	r.Post("/", h.create)
	r.Delete("/{id}", h.remove)
}

type createRequest struct {
	AccountID int64 `json:"account_id" validate:"required,gt=0"`
	ActorID   int64 `json:"actor_id" validate:"required,gt=0"`
}

func (h *Handler) listByAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	list, err := h.service.ListByAccount(r.Context(), actor, accountID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Assignment{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	created, err := h.service.Create(r.Context(), actor, req.AccountID, req.ActorID)
	if err != nil {
		h.logger.Warn("create assignment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
