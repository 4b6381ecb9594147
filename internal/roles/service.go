package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vottery/role-service/internal/shared"
)

// RepositoryPort defines data access methods for roles and bindings.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Role, error)
	GetByID(ctx context.Context, id int64) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, id int64, fields UpdateFields) (Role, error)
	Delete(ctx context.Context, id int64) (Role, error)

	ListPermissions(ctx context.Context, roleID int64) ([]RolePermission, error)
	Grant(ctx context.Context, roleID, permissionID int64) error
	Revoke(ctx context.Context, roleID, permissionID int64) error
	BulkGrant(ctx context.Context, roleID int64, permissionIDs []int64) error
}

// Service handles role catalog and binding business logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns roles matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Role, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByName fetches a role by name.
func (s *Service) GetByName(ctx context.Context, name string) (Role, error) {
	return s.repo.GetByName(ctx, name)
}

// Create validates and inserts a new role.
func (s *Service) Create(ctx context.Context, role Role) (Role, error) {
	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" {
		return Role{}, fmt.Errorf("%w: role_name required", shared.ErrValidation)
	}
	if role.Type != shared.RoleTypeAdmin && role.Type != shared.RoleTypeUser {
		return Role{}, fmt.Errorf("%w: role_type must be admin or user", shared.ErrValidation)
	}
	created, err := s.repo.Create(ctx, role)
	if err != nil {
		return Role{}, err
	}
	s.logger.Info("role created", slog.String("role", created.Name), slog.String("type", created.Type))
	return created, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, fields UpdateFields) (Role, error) {
	if fields.Name != nil && strings.TrimSpace(*fields.Name) == "" {
		return Role{}, fmt.Errorf("%w: role_name cannot be empty", shared.ErrValidation)
	}
	if fields.Type != nil && *fields.Type != shared.RoleTypeAdmin && *fields.Type != shared.RoleTypeUser {
		return Role{}, fmt.Errorf("%w: role_type must be admin or user", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, fields)
}

// Delete hard-removes a role from the catalog.
func (s *Service) Delete(ctx context.Context, id int64) (Role, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return Role{}, err
	}
	s.logger.Info("role deleted", slog.Int64("role_id", id), slog.String("role", deleted.Name))
	return deleted, nil
}

// ListPermissions returns a role's bindings.
func (s *Service) ListPermissions(ctx context.Context, roleID int64) ([]RolePermission, error) {
	if _, err := s.repo.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListPermissions(ctx, roleID)
}

// Grant binds a permission to a role (idempotent upsert).
func (s *Service) Grant(ctx context.Context, roleID, permissionID int64) error {
	if err := s.repo.Grant(ctx, roleID, permissionID); err != nil {
		return err
	}
	s.logger.Info("permission granted", slog.Int64("role_id", roleID), slog.Int64("permission_id", permissionID))
	return nil
}

// Revoke removes a binding.
func (s *Service) Revoke(ctx context.Context, roleID, permissionID int64) error {
	return s.repo.Revoke(ctx, roleID, permissionID)
}

// BulkGrant binds all permissions atomically.
func (s *Service) BulkGrant(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return fmt.Errorf("%w: permission_ids required", shared.ErrValidation)
	}
	if err := s.repo.BulkGrant(ctx, roleID, permissionIDs); err != nil {
		return err
	}
	s.logger.Info("permissions bulk granted",
		slog.Int64("role_id", roleID), slog.Int("count", len(permissionIDs)))
	return nil
}
