package roles

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vottery/role-service/internal/shared"
)

type mockRepository struct {
	roles    map[int64]*Role
	byName   map[string]int64
	nextID   int64
	bindings map[int64]map[int64]bool

	bulkErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles:    make(map[int64]*Role),
		byName:   make(map[string]int64),
		bindings: make(map[int64]map[int64]bool),
		nextID:   1,
	}
}

func (m *mockRepository) List(ctx context.Context, filters ListFilters) ([]Role, error) {
	var out []Role
	for _, role := range m.roles {
		if filters.Type != "" && role.Type != filters.Type {
			continue
		}
		out = append(out, *role)
	}
	return out, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return *role, nil
}

func (m *mockRepository) GetByName(ctx context.Context, name string) (Role, error) {
	id, ok := m.byName[name]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return *m.roles[id], nil
}

func (m *mockRepository) Create(ctx context.Context, role Role) (Role, error) {
	if _, exists := m.byName[role.Name]; exists {
		return Role{}, shared.ErrDuplicate
	}
	role.ID = m.nextID
	role.IsActive = true
	role.CreatedAt = time.Now()
	m.nextID++
	m.roles[role.ID] = &role
	m.byName[role.Name] = role.ID
	return role, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, fields UpdateFields) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	if fields.Description != nil {
		role.Description = *fields.Description
	}
	if fields.IsActive != nil {
		role.IsActive = *fields.IsActive
	}
	return *role, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	delete(m.roles, id)
	delete(m.byName, role.Name)
	return *role, nil
}

func (m *mockRepository) ListPermissions(ctx context.Context, roleID int64) ([]RolePermission, error) {
	var out []RolePermission
	for permID, granted := range m.bindings[roleID] {
		out = append(out, RolePermission{PermissionID: permID, IsGranted: granted})
	}
	return out, nil
}

func (m *mockRepository) Grant(ctx context.Context, roleID, permissionID int64) error {
	if m.bindings[roleID] == nil {
		m.bindings[roleID] = make(map[int64]bool)
	}
	m.bindings[roleID][permissionID] = true
	return nil
}

func (m *mockRepository) Revoke(ctx context.Context, roleID, permissionID int64) error {
	if _, ok := m.bindings[roleID][permissionID]; !ok {
		return shared.ErrNotFound
	}
	delete(m.bindings[roleID], permissionID)
	return nil
}

func (m *mockRepository) BulkGrant(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	for _, id := range permissionIDs {
		if err := m.Grant(ctx, roleID, id); err != nil {
			return err
		}
	}
	return nil
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateValidatesType(t *testing.T) {
	svc := newTestService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, Role{Name: "Analyst", Type: "superuser"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Role{Name: "  ", Type: shared.RoleTypeAdmin})
	assert.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.Create(ctx, Role{Name: "Analyst", Type: shared.RoleTypeAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Analyst", created.Name)
}

func TestCreateDuplicateName(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Role{Name: "Moderator", Type: shared.RoleTypeAdmin})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Role{Name: "Moderator", Type: shared.RoleTypeAdmin})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestListPermissionsRequiresExistingRole(t *testing.T) {
	svc := newTestService(newMockRepository())
	_, err := svc.ListPermissions(context.Background(), 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBulkGrantRequiresIDs(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	role, err := svc.Create(ctx, Role{Name: "Moderator", Type: shared.RoleTypeAdmin})
	require.NoError(t, err)

	err = svc.BulkGrant(ctx, role.ID, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.BulkGrant(ctx, role.ID, []int64{1, 2, 3}))
	bound, err := svc.ListPermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Len(t, bound, 3)
}

func TestGrantIsIdempotent(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	role, err := svc.Create(ctx, Role{Name: "Moderator", Type: shared.RoleTypeAdmin})
	require.NoError(t, err)

	require.NoError(t, svc.Grant(ctx, role.ID, 1))
	require.NoError(t, svc.Grant(ctx, role.ID, 1))

	bound, err := svc.ListPermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Len(t, bound, 1)
}

func TestRevokeMissingBinding(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	err := svc.Revoke(context.Background(), 1, 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
