package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/vottery/role-service/internal/shared"
)

// RepositoryPort defines data access methods for the user directory.
type RepositoryPort interface {
	Search(ctx context.Context, query string) ([]User, error)
}

// Service handles directory lookups.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Search returns directory entries matching the query. Queries shorter than
// three characters are rejected to keep scans bounded.
func (s *Service) Search(ctx context.Context, query string) ([]User, error) {
	query = strings.TrimSpace(query)
	if len(query) < 3 {
		return nil, fmt.Errorf("%w: search query must be at least 3 characters", shared.ErrValidation)
	}
	return s.repo.Search(ctx, query)
}
