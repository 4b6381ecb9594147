package roles

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

// Handler manages role catalog and binding endpoints.
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

// MountRoutes registers role catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAllPermissions(shared.PermRolesView))
		r.Get("/", h.list)
		r.Get("/{roleID}", h.get)
		r.Get("/{roleID}/permissions", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAllPermissions(shared.PermRolesManage))
		r.Post("/", h.create)
		r.Put("/{roleID}", h.update)
		r.Delete("/{roleID}", h.remove)
		r.Post("/{roleID}/permissions", h.grant)
		r.Post("/{roleID}/permissions/bulk", h.bulkGrant)
		r.Delete("/{roleID}/permissions/{permissionID}", h.revoke)
	})
}

type createRoleRequest struct {
	Name                  string  `json:"role_name" validate:"required"`
	Type                  string  `json:"role_type" validate:"required,oneof=admin user"`
	Category              string  `json:"role_category" validate:"required"`
	Description           string  `json:"description"`
	IsDefault             bool    `json:"is_default"`
	RequiresSubscription  bool    `json:"requires_subscription"`
	RequiresActionTrigger bool    `json:"requires_action_trigger"`
	ActionTrigger         *string `json:"action_trigger"`
}

type updateRoleRequest struct {
	Name                  *string `json:"role_name"`
	Type                  *string `json:"role_type"`
	Category              *string `json:"role_category"`
	Description           *string `json:"description"`
	IsDefault             *bool   `json:"is_default"`
	RequiresSubscription  *bool   `json:"requires_subscription"`
	RequiresActionTrigger *bool   `json:"requires_action_trigger"`
	ActionTrigger         *string `json:"action_trigger"`
	IsActive              *bool   `json:"is_active"`
}

type grantRequest struct {
	PermissionID int64 `json:"permission_id" validate:"required,gt=0"`
}

type bulkGrantRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Type:     q.Get("role_type"),
		Category: q.Get("role_category"),
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}
	roles, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Roles retrieved successfully", roles)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role retrieved successfully", role)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.Create(r.Context(), Role{
		Name:                  req.Name,
		Type:                  req.Type,
		Category:              req.Category,
		Description:           req.Description,
		IsDefault:             req.IsDefault,
		RequiresSubscription:  req.RequiresSubscription,
		RequiresActionTrigger: req.RequiresActionTrigger,
		ActionTrigger:         req.ActionTrigger,
	})
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Role created successfully", role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	role, err := h.service.Update(r.Context(), id, UpdateFields{
		Name:                  req.Name,
		Type:                  req.Type,
		Category:              req.Category,
		Description:           req.Description,
		IsDefault:             req.IsDefault,
		RequiresSubscription:  req.RequiresSubscription,
		RequiresActionTrigger: req.RequiresActionTrigger,
		ActionTrigger:         req.ActionTrigger,
		IsActive:              req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role updated successfully", role)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role deleted successfully", role)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	bindings, err := h.service.ListPermissions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role permissions retrieved successfully", bindings)
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Grant(r.Context(), id, req.PermissionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Permission granted successfully", nil)
}

func (h *Handler) bulkGrant(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req bulkGrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.BulkGrant(r.Context(), id, req.PermissionIDs); err != nil {
		h.logger.Error("bulk grant", slog.Any("error", err), slog.Int64("role_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Permissions granted successfully", nil)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	permissionID, err := strconv.ParseInt(chi.URLParam(r, "permissionID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission id must be numeric")
		return
	}
	if err := h.service.Revoke(r.Context(), id, permissionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Permission revoked successfully", nil)
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role id must be numeric")
		return 0, false
	}
	return id, true
}
