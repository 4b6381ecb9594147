package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vottery/role-service/internal/platform/httpx"
	"github.com/vottery/role-service/internal/shared"
)

// Handler exposes resolution and check endpoints under /users.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes registers per-user resolution routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAllPermissions(shared.PermAssignmentsView))
		r.Get("/{userID}/roles", h.userRoles)
		r.Get("/{userID}/permissions", h.userPermissions)
		r.Get("/{userID}/roles/{roleName}/check", h.checkRole)
		r.Get("/{userID}/permissions/{permissionName}/check", h.checkPermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAllPermissions(shared.PermAssignmentsManage))
		r.Delete("/{userID}/cache", h.invalidate)
	})
}

func (h *Handler) userRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	roles, err := h.service.UserRoles(r.Context(), userID)
	if err != nil {
		h.logger.Error("resolve user roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "User roles retrieved successfully", map[string]any{
		"user_id": userID,
		"roles":   roles,
		"count":   len(roles),
	})
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	perms, err := h.service.UserPermissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("resolve user permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "User permissions retrieved successfully", map[string]any{
		"user_id":     userID,
		"permissions": perms,
		"count":       len(perms),
	})
}

func (h *Handler) checkRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	roleName := chi.URLParam(r, "roleName")
	has, err := h.service.CheckRole(r.Context(), userID, roleName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Role check completed", map[string]any{
		"user_id":   userID,
		"role_name": roleName,
		"has_role":  has,
	})
}

func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	permissionName := chi.URLParam(r, "permissionName")
	has, err := h.service.CheckPermission(r.Context(), userID, permissionName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "Permission check completed", map[string]any{
		"user_id":         userID,
		"permission_name": permissionName,
		"has_permission":  has,
	})
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.Invalidate(r.Context(), userID); err != nil {
		h.logger.Error("invalidate user cache", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "User cache invalidated successfully", map[string]any{
		"user_id": userID,
	})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "user id must be a positive integer")
		return 0, false
	}
	return id, true
}
