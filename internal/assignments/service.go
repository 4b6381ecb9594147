package assignments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vottery/role-service/internal/roles"
	"github.com/vottery/role-service/internal/shared"
)

// RepositoryPort lists the persistence operations the service needs.
type RepositoryPort interface {
	Upsert(ctx context.Context, userID int64, roleName string, opts AssignOptions) (Assignment, error)
	Deactivate(ctx context.Context, userID int64, roleName string, deactivatedBy *int64, reason string) (Assignment, error)
	Reactivate(ctx context.Context, userID int64, roleName string, reactivatedBy *int64) (Assignment, error)
	DeleteGuarded(ctx context.Context, userID int64, roleName string) (Assignment, error)
	ExpireDue(ctx context.Context, now time.Time) ([]ExpiredAssignment, error)
	List(ctx context.Context, filters ListFilters) ([]Assignment, error)
	History(ctx context.Context, userID int64, filters HistoryFilters) ([]Assignment, error)
	ActiveRoleNames(ctx context.Context, userID int64) ([]string, error)
}

// RoleCatalog resolves role names against the catalog before assignment.
type RoleCatalog interface {
	GetByName(ctx context.Context, name string) (roles.Role, error)
}

// CacheInvalidator flushes a user's resolved-access cache entries after a
// mutation commits. A nil invalidator disables flushing.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// Service coordinates assignment mutations with the role catalog and the
// resolution cache.
type Service struct {
	repo     RepositoryPort
	catalog  RoleCatalog
	cache    CacheInvalidator
	logger   *slog.Logger
	baseline string
	now      func() time.Time
}

func NewService(repo RepositoryPort, catalog RoleCatalog, cache CacheInvalidator, logger *slog.Logger, baseline string) *Service {
	if baseline == "" {
		baseline = shared.BaselineRole
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		cache:    cache,
		logger:   logger,
		baseline: baseline,
		now:      time.Now,
	}
}

// Assign creates or revives the (user, role name) pair. The role must exist
// in the catalog; an expiry in the past is rejected up front. An inactive
// catalog role can still be assigned, resolution filters it out.
func (s *Service) Assign(ctx context.Context, userID int64, roleName string, opts AssignOptions) (Assignment, error) {
	if userID <= 0 {
		return Assignment{}, fmt.Errorf("%w: user_id is required", shared.ErrValidation)
	}
	if roleName == "" {
		return Assignment{}, fmt.Errorf("%w: role_name is required", shared.ErrValidation)
	}
	if opts.Type == "" {
		opts.Type = shared.AssignmentManual
	}
	if !shared.ValidAssignmentType(opts.Type) {
		return Assignment{}, fmt.Errorf("%w: unknown assignment type %q", shared.ErrValidation, opts.Type)
	}
	if opts.Source == "" {
		opts.Source = "admin"
	}
	if opts.ExpiresAt != nil && !opts.ExpiresAt.After(s.now()) {
		return Assignment{}, fmt.Errorf("%w: expires_at must be in the future", shared.ErrValidation)
	}

	if _, err := s.catalog.GetByName(ctx, roleName); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Assignment{}, fmt.Errorf("%w: role %q", shared.ErrNotFound, roleName)
		}
		return Assignment{}, err
	}

	assignment, err := s.repo.Upsert(ctx, userID, roleName, opts)
	if err != nil {
		return Assignment{}, err
	}

	s.afterMutation(ctx, "assignment.assign", userID, roleName)
	return assignment, nil
}

// Deactivate soft-removes an active assignment, recording who and why.
func (s *Service) Deactivate(ctx context.Context, userID int64, roleName string, deactivatedBy *int64, reason string) (Assignment, error) {
	if reason == "" {
		reason = "manual deactivation"
	}
	assignment, err := s.repo.Deactivate(ctx, userID, roleName, deactivatedBy, reason)
	if err != nil {
		return Assignment{}, err
	}
	s.afterMutation(ctx, "assignment.deactivate", userID, roleName)
	return assignment, nil
}

// Reactivate restores a previously deactivated assignment.
func (s *Service) Reactivate(ctx context.Context, userID int64, roleName string, reactivatedBy *int64) (Assignment, error) {
	assignment, err := s.repo.Reactivate(ctx, userID, roleName, reactivatedBy)
	if err != nil {
		return Assignment{}, err
	}
	s.afterMutation(ctx, "assignment.reactivate", userID, roleName)
	return assignment, nil
}

// Delete hard-removes a pair. The baseline role can never be deleted, and a
// user must always retain at least one other active role.
func (s *Service) Delete(ctx context.Context, userID int64, roleName string) (Assignment, error) {
	if strings.EqualFold(roleName, s.baseline) {
		return Assignment{}, shared.ErrProtectedRole
	}
	assignment, err := s.repo.DeleteGuarded(ctx, userID, roleName)
	if err != nil {
		return Assignment{}, err
	}
	s.afterMutation(ctx, "assignment.delete", userID, roleName)
	return assignment, nil
}

// ExpireDue deactivates every assignment whose expiry has passed and flushes
// the cache of each affected user.
func (s *Service) ExpireDue(ctx context.Context) ([]ExpiredAssignment, error) {
	expired, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(expired))
	for _, e := range expired {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		s.invalidate(ctx, e.UserID)
	}
	if len(expired) > 0 {
		s.logger.Info("expired role assignments",
			slog.Int("count", len(expired)),
			slog.Int("users", len(seen)))
	}
	return expired, nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Assignment, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) History(ctx context.Context, userID int64, filters HistoryFilters) ([]Assignment, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", shared.ErrValidation)
	}
	return s.repo.History(ctx, userID, filters)
}

// afterMutation flushes the user's resolution cache and logs the resulting
// active role set. Cache flush failures are logged, never surfaced: the
// entries carry a TTL and converge on their own.
func (s *Service) afterMutation(ctx context.Context, action string, userID int64, roleName string) {
	s.invalidate(ctx, userID)

	active, err := s.repo.ActiveRoleNames(ctx, userID)
	if err != nil {
		s.logger.Warn("read active roles after mutation", slog.String("error", err.Error()))
		active = nil
	}
	s.logger.Info(action,
		slog.String("audit_id", uuid.NewString()),
		slog.Int64("user_id", userID),
		slog.String("role_name", roleName),
		slog.Any("active_roles", active))
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("invalidate resolution cache",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
	}
}
