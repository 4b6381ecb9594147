package permissions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vottery/role-service/internal/shared"
)

// RepositoryPort defines data access methods for the permission catalog.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Permission, error)
	GetByID(ctx context.Context, id int64) (Permission, error)
	GetByName(ctx context.Context, name string) (Permission, error)
	Create(ctx context.Context, p Permission) (Permission, error)
	Update(ctx context.Context, id int64, fields UpdateFields) (Permission, error)
	SoftDelete(ctx context.Context, id int64) (Permission, error)
}

// Service handles permission catalog business logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns permissions matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Permission, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a permission by ID.
func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByName fetches a permission by name.
func (s *Service) GetByName(ctx context.Context, name string) (Permission, error) {
	return s.repo.GetByName(ctx, name)
}

// Create validates and inserts a new permission.
func (s *Service) Create(ctx context.Context, p Permission) (Permission, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Permission{}, fmt.Errorf("%w: permission_name required", shared.ErrValidation)
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Permission{}, err
	}
	s.logger.Info("permission created", slog.String("permission", created.Name))
	return created, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, fields UpdateFields) (Permission, error) {
	if fields.Name != nil && strings.TrimSpace(*fields.Name) == "" {
		return Permission{}, fmt.Errorf("%w: permission_name cannot be empty", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, fields)
}

// Delete soft-deletes a permission by clearing its active flag.
func (s *Service) Delete(ctx context.Context, id int64) (Permission, error) {
	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	s.logger.Info("permission deactivated", slog.Int64("permission_id", id))
	return deleted, nil
}
