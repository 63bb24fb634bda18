package vehicles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/platform/httpx"
	"github.com/rentora/rentora-admin/internal/shared"
)

// Handler exposes fleet endpoints.
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

// MountRoutes attaches vehicle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(authz.RoleCSM))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
	})
	r.With(h.guard.RequireRole(authz.RoleAdmin)).Delete("/{id}", h.remove)
}

type vehicleRequest struct {
	AccountID      int64  `json:"account_id" validate:"required,gt=0"`
	PlateNumber    string `json:"plate_number" validate:"required,max=20"`
	Make           string `json:"make" validate:"required,max=100"`
	Model          string `json:"model" validate:"required,max=100"`
	Year           int    `json:"year" validate:"required,gte=1980,lte=2100"`
	Status         string `json:"status" validate:"required,oneof=available rented maintenance"`
	DailyRateCents int64  `json:"daily_rate_cents" validate:"gte=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	filters := shared.ListFilters{Page: page, Limit: limit, Search: r.URL.Query().Get("search")}

	list, total, err := h.service.List(r.Context(), actor, filters)
	if err != nil {
		h.logger.Error("list vehicles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Vehicle{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"vehicles":   list,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	vehicle, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	req, ok := h.decodeVehicle(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), actor, Vehicle{
		AccountID:      req.AccountID,
		PlateNumber:    req.PlateNumber,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Status:         req.Status,
		DailyRateCents: req.DailyRateCents,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	req, ok := h.decodeVehicle(w, r)
	if !ok {
		return
	}
	err = h.service.Update(r.Context(), actor, id, Vehicle{
		PlateNumber:    req.PlateNumber,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Status:         req.Status,
		DailyRateCents: req.DailyRateCents,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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

func (h *Handler) decodeVehicle(w http.ResponseWriter, r *http.Request) (vehicleRequest, bool) {
	var req vehicleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return req, false
	}
	return req, true
}
