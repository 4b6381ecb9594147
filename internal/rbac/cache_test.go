package rbac

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, nil), mr
}

func TestFetchRolesReadThrough(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) ([]ResolvedRole, error) {
		calls++
		return []ResolvedRole{{RoleID: 1, RoleName: "Voter", RoleType: "user"}}, nil
	}

	roles, err := cache.FetchRoles(ctx, 42, loader)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Voter", roles[0].RoleName)
	assert.Equal(t, 1, calls)

	// Second fetch is served from Redis.
	roles, err = cache.FetchRoles(ctx, 42, loader)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, 1, calls)
}

func TestFetchPermissionsReadThrough(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"election.create", "election.vote"}, nil
	}

	perms, err := cache.FetchPermissions(ctx, 42, loader)
	require.NoError(t, err)
	assert.Equal(t, []string{"election.create", "election.vote"}, perms)

	_, err = cache.FetchPermissions(ctx, 42, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestInvalidateDropsBothKeys(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	_, err := cache.FetchRoles(ctx, 42, func(context.Context) ([]ResolvedRole, error) {
		return []ResolvedRole{{RoleName: "Voter"}}, nil
	})
	require.NoError(t, err)
	_, err = cache.FetchPermissions(ctx, 42, func(context.Context) ([]string, error) {
		return []string{"election.vote"}, nil
	})
	require.NoError(t, err)

	require.True(t, mr.Exists("rbac:user_roles:42"))
	require.True(t, mr.Exists("rbac:user_permissions:42"))

	require.NoError(t, cache.Invalidate(ctx, 42))

	assert.False(t, mr.Exists("rbac:user_roles:42"))
	assert.False(t, mr.Exists("rbac:user_permissions:42"))
}

func TestInvalidateIsScopedPerUser(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for _, userID := range []int64{1, 2} {
		_, err := cache.FetchRoles(ctx, userID, func(context.Context) ([]ResolvedRole, error) {
			return []ResolvedRole{{RoleName: "Voter"}}, nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, cache.Invalidate(ctx, 1))

	assert.False(t, mr.Exists("rbac:user_roles:1"))
	assert.True(t, mr.Exists("rbac:user_roles:2"))
}

func TestReloadAfterInvalidation(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	payloads := [][]string{{"election.vote"}, {"election.vote", "election.create"}}
	calls := 0
	loader := func(context.Context) ([]string, error) {
		perms := payloads[calls]
		calls++
		return perms, nil
	}

	perms, err := cache.FetchPermissions(ctx, 7, loader)
	require.NoError(t, err)
	assert.NotContains(t, perms, "election.create")

	require.NoError(t, cache.Invalidate(ctx, 7))

	perms, err = cache.FetchPermissions(ctx, 7, loader)
	require.NoError(t, err)
	assert.Contains(t, perms, "election.create")
}

func TestNilClientPassesThrough(t *testing.T) {
	cache := NewCache(nil, time.Minute, nil)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"election.vote"}, nil
	}

	for i := 0; i < 2; i++ {
		perms, err := cache.FetchPermissions(ctx, 42, loader)
		require.NoError(t, err)
		assert.Equal(t, []string{"election.vote"}, perms)
	}
	assert.Equal(t, 2, calls, "without redis every fetch hits the loader")
	assert.NoError(t, cache.Invalidate(ctx, 42))
}

func TestRedisOutageFallsThroughToLoader(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute, nil)
	ctx := context.Background()

	mr.Close()

	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"election.vote"}, nil
	}

	// With Redis down every read serves from the loader instead of erroring.
	for i := 0; i < 2; i++ {
		perms, err := cache.FetchPermissions(ctx, 42, loader)
		require.NoError(t, err)
		assert.Equal(t, []string{"election.vote"}, perms)
	}
	assert.Equal(t, 2, calls)
}

func TestEntriesExpireWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Second, nil)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"election.vote"}, nil
	}

	_, err := cache.FetchPermissions(ctx, 42, loader)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = cache.FetchPermissions(ctx, 42, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
