package assignments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vottery/role-service/internal/platform/httpx"
	"github.com/vottery/role-service/internal/rbac"
	"github.com/vottery/role-service/internal/shared"
)

// Handler exposes the assignment engine over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAllPermissions(shared.PermAssignmentsView))
		r.Get("/", h.list)
		r.Get("/users/{userID}/history", h.history)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAllPermissions(shared.PermAssignmentsManage))
		r.Post("/", h.assign)
		r.Post("/deactivate", h.deactivate)
		r.Post("/reactivate", h.reactivate)
		r.Delete("/", h.remove)
	})
}

type assignRequest struct {
	UserID     int64          `json:"user_id" validate:"required,gt=0"`
	RoleName   string         `json:"role_name" validate:"required"`
	AssignedBy *int64         `json:"assigned_by"`
	Type       string         `json:"assignment_type"`
	Source     string         `json:"assignment_source"`
	ExpiresAt  *time.Time     `json:"expires_at"`
	Metadata   map[string]any `json:"metadata"`
}

type deactivateRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	RoleName string `json:"role_name" validate:"required"`
	Reason   string `json:"reason"`
}

type pairRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	RoleName string `json:"role_name" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		RoleName: q.Get("role_name"),
		Type:     q.Get("assignment_type"),
		Source:   q.Get("assignment_source"),
	}
	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "user_id must be numeric")
			return
		}
		filters.UserID = &id
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be a non-negative integer")
			return
		}
		filters.Limit = limit
	}
	items, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list assignments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Assignments retrieved successfully", items)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "user id must be numeric")
		return
	}
	q := r.URL.Query()
	filters := HistoryFilters{RoleName: q.Get("role_name")}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}
	if raw := q.Get("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit < 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be a non-negative integer")
			return
		}
		filters.Limit = limit
	}
	items, err := h.service.History(r.Context(), userID, filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Assignment history retrieved successfully", items)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	opts := AssignOptions{
		AssignedBy: req.AssignedBy,
		Type:       req.Type,
		Source:     req.Source,
		ExpiresAt:  req.ExpiresAt,
		Metadata:   req.Metadata,
	}
	if opts.AssignedBy == nil {
		if actor, ok := shared.ActorFromContext(r.Context()); ok {
			opts.AssignedBy = &actor.UserID
		}
	}
	assignment, err := h.service.Assign(r.Context(), req.UserID, req.RoleName, opts)
	if err != nil {
		h.logger.Error("assign role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Role assigned successfully", assignment)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	var req deactivateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assignment, err := h.service.Deactivate(r.Context(), req.UserID, req.RoleName, h.actorID(r), req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role deactivated successfully", assignment)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assignment, err := h.service.Reactivate(r.Context(), req.UserID, req.RoleName, h.actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role reactivated successfully", assignment)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assignment, err := h.service.Delete(r.Context(), req.UserID, req.RoleName)
	if err != nil {
		h.logger.Warn("delete assignment refused",
			slog.Int64("user_id", req.UserID),
			slog.String("role_name", req.RoleName),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role assignment deleted successfully", assignment)
}

func (h *Handler) actorID(r *http.Request) *int64 {
	if actor, ok := shared.ActorFromContext(r.Context()); ok {
		return &actor.UserID
	}
	return nil
}
