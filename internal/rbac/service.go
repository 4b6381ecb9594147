package rbac

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ResolvedRole is one active, non-expired role of a user, flattened for the
// access gate and the resolution endpoints.
type ResolvedRole struct {
	RoleID       int64      `json:"role_id"`
	RoleName     string     `json:"role_name"`
	RoleType     string     `json:"role_type"`
	RoleCategory string     `json:"role_category"`
	Source       string     `json:"assignment_source"`
	AssignedAt   time.Time  `json:"assigned_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Service resolves a user's effective roles and permissions, read-through the
// resolution cache.
type Service struct {
	pool  *pgxpool.Pool
	cache *Cache
}

// NewService constructs a resolver backed by the pool and cache.
func NewService(pool *pgxpool.Pool, cache *Cache) *Service {
	return &Service{pool: pool, cache: cache}
}

// UserRoles returns the user's active, non-expired roles.
func (s *Service) UserRoles(ctx context.Context, userID int64) ([]ResolvedRole, error) {
	return s.cache.FetchRoles(ctx, userID, func(ctx context.Context) ([]ResolvedRole, error) {
		return s.loadRoles(ctx, userID)
	})
}

// UserPermissions returns the distinct permission names granted through the
// user's active roles.
func (s *Service) UserPermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.cache.FetchPermissions(ctx, userID, func(ctx context.Context) ([]string, error) {
		return s.loadPermissions(ctx, userID)
	})
}

// CheckRole reports whether the user currently holds the named role.
func (s *Service) CheckRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	roles, err := s.UserRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if strings.EqualFold(role.RoleName, roleName) {
			return true, nil
		}
	}
	return false, nil
}

// CheckPermission reports whether the user holds the named permission.
func (s *Service) CheckPermission(ctx context.Context, userID int64, permissionName string) (bool, error) {
	perms, err := s.UserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if strings.EqualFold(p, permissionName) {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops the user's cached resolution entries.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	return s.cache.Invalidate(ctx, userID)
}

func (s *Service) loadRoles(ctx context.Context, userID int64) ([]ResolvedRole, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.role_id, r.role_name, r.role_type, r.role_category,
			ur.assignment_source, ur.assigned_at, ur.expires_at
		FROM user_role_assignments ur
		JOIN roles r ON r.role_name = ur.role_name AND r.is_active = true
		WHERE ur.user_id = $1
			AND ur.is_active = true
			AND (ur.expires_at IS NULL OR ur.expires_at > now())
		ORDER BY r.role_type, r.role_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]ResolvedRole, 0)
	for rows.Next() {
		var role ResolvedRole
		if err := rows.Scan(&role.RoleID, &role.RoleName, &role.RoleType, &role.RoleCategory,
			&role.Source, &role.AssignedAt, &role.ExpiresAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *Service) loadPermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.permission_name
		FROM user_role_assignments ur
		JOIN roles r ON r.role_name = ur.role_name AND r.is_active = true
		JOIN role_permissions rp ON rp.role_id = r.role_id AND rp.is_granted = true
		JOIN permissions p ON p.permission_id = rp.permission_id AND p.is_active = true
		WHERE ur.user_id = $1
			AND ur.is_active = true
			AND (ur.expires_at IS NULL OR ur.expires_at > now())
		ORDER BY p.permission_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}
