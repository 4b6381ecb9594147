package permissions

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vottery/role-service/internal/platform/httpx"
	"github.com/vottery/role-service/internal/rbac"
	"github.com/vottery/role-service/internal/shared"
)

// Handler manages permission catalog endpoints.
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

// MountRoutes registers permission catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAllPermissions(shared.PermPermissionsView))
		r.Get("/", h.list)
		r.Get("/{permissionID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAllPermissions(shared.PermPermissionsManage))
		r.Post("/", h.create)
		r.Put("/{permissionID}", h.update)
		r.Delete("/{permissionID}", h.remove)
	})
}

type createPermissionRequest struct {
	Name        string `json:"permission_name" validate:"required"`
	Category    string `json:"permission_category" validate:"required"`
	Description string `json:"description"`
	Resource    string `json:"resource_type" validate:"required"`
	Action      string `json:"action_type" validate:"required,oneof=create read update delete execute"`
}

type updatePermissionRequest struct {
	Name        *string `json:"permission_name"`
	Category    *string `json:"permission_category"`
	Description *string `json:"description"`
	Resource    *string `json:"resource_type"`
	Action      *string `json:"action_type"`
	IsActive    *bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Category: q.Get("permission_category"),
		Resource: q.Get("resource_type"),
		Action:   q.Get("action_type"),
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}
	perms, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Permissions retrieved successfully", perms)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.permissionID(w, r)
	if !ok {
		return
	}
	perm, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Permission retrieved successfully", perm)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	perm, err := h.service.Create(r.Context(), Permission{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Resource:    req.Resource,
		Action:      req.Action,
	})
	if err != nil {
		h.logger.Error("create permission", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Permission created successfully", perm)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.permissionID(w, r)
	if !ok {
		return
	}
	var req updatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	perm, err := h.service.Update(r.Context(), id, UpdateFields{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Resource:    req.Resource,
		Action:      req.Action,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Permission updated successfully", perm)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.permissionID(w, r)
	if !ok {
		return
	}
	perm, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Permission deactivated successfully", perm)
}

func (h *Handler) permissionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "permissionID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission id must be numeric")
		return 0, false
	}
	return id, true
}
