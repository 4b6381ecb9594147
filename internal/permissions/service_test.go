package permissions

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vottery/role-service/internal/shared"
)

type mockRepository struct {
	perms  map[int64]*Permission
	byName map[string]int64
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		perms:  make(map[int64]*Permission),
		byName: make(map[string]int64),
		nextID: 1,
	}
}

func (m *mockRepository) List(ctx context.Context, filters ListFilters) ([]Permission, error) {
	var out []Permission
	for _, p := range m.perms {
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		if filters.IsActive != nil && p.IsActive != *filters.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return *p, nil
}

func (m *mockRepository) GetByName(ctx context.Context, name string) (Permission, error) {
	id, ok := m.byName[name]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return *m.perms[id], nil
}

func (m *mockRepository) Create(ctx context.Context, p Permission) (Permission, error) {
	if _, exists := m.byName[p.Name]; exists {
		return Permission{}, shared.ErrDuplicate
	}
	p.ID = m.nextID
	p.IsActive = true
	m.nextID++
	m.perms[p.ID] = &p
	m.byName[p.Name] = p.ID
	return p, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, fields UpdateFields) (Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	if fields.Description != nil {
		p.Description = *fields.Description
	}
	if fields.IsActive != nil {
		p.IsActive = *fields.IsActive
	}
	return *p, nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, id int64) (Permission, error) {
	p, ok := m.perms[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	p.IsActive = false
	return *p, nil
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateRequiresName(t *testing.T) {
	svc := newTestService(newMockRepository())
	_, err := svc.Create(context.Background(), Permission{Name: "  "})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteIsSoft(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Permission{Name: "election.create", Category: "elections"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted.IsActive)

	// The row survives the delete; only the flag flips.
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestListFiltersInactive(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, Permission{Name: "election.create", Category: "elections"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Permission{Name: "election.vote", Category: "elections"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, a.ID)
	require.NoError(t, err)

	active := true
	listed, err := svc.List(ctx, ListFilters{IsActive: &active})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "election.vote", listed[0].Name)
}

func TestGetByNameMissing(t *testing.T) {
	svc := newTestService(newMockRepository())
	_, err := svc.GetByName(context.Background(), "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
