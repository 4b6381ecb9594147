package rbac

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vottery/role-service/internal/shared"
)

type fakeResolver struct {
	roles map[int64][]ResolvedRole
	perms map[int64][]string
}

func (f *fakeResolver) UserRoles(ctx context.Context, userID int64) ([]ResolvedRole, error) {
	return f.roles[userID], nil
}

func (f *fakeResolver) UserPermissions(ctx context.Context, userID int64) ([]string, error) {
	return f.perms[userID], nil
}

func newGate(resolver Resolver) Middleware {
	return Middleware{
		Resolver: resolver,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func doRequest(t *testing.T, mw func(http.Handler) http.Handler, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var actorSeen *shared.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := shared.ActorFromContext(r.Context()); ok {
			actorSeen = actor
		}
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		require.NotNil(t, actorSeen, "handler must see the acting user")
	}
	return rec
}

func TestRequireAnyRoleMissingHeader(t *testing.T) {
	gate := newGate(&fakeResolver{})
	rec := doRequest(t, gate.RequireAnyRole("Admin"), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAnyRoleMalformedHeader(t *testing.T) {
	gate := newGate(&fakeResolver{})
	rec := doRequest(t, gate.RequireAnyRole("Admin"), "not-a-number")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAnyRoleNoRolesAssigned(t *testing.T) {
	gate := newGate(&fakeResolver{roles: map[int64][]ResolvedRole{}})
	rec := doRequest(t, gate.RequireAnyRole("Admin"), "42")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "no roles assigned")
}

func TestRequireAnyRoleInsufficient(t *testing.T) {
	gate := newGate(&fakeResolver{roles: map[int64][]ResolvedRole{
		42: {{RoleName: "Voter"}},
	}})
	rec := doRequest(t, gate.RequireAnyRole("Admin", "Manager"), "42")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient role")
}

func TestRequireAnyRoleMatchesAnyOf(t *testing.T) {
	gate := newGate(&fakeResolver{roles: map[int64][]ResolvedRole{
		42: {{RoleName: "Voter"}, {RoleName: "Moderator"}},
	}})
	rec := doRequest(t, gate.RequireAnyRole("Admin", "Moderator"), "42")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyRoleCaseInsensitive(t *testing.T) {
	gate := newGate(&fakeResolver{roles: map[int64][]ResolvedRole{
		42: {{RoleName: "Admin"}},
	}})
	rec := doRequest(t, gate.RequireAnyRole("admin"), "42")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAllPermissionsAllOf(t *testing.T) {
	resolver := &fakeResolver{perms: map[int64][]string{
		42: {"roles.view", "roles.manage"},
	}}
	gate := newGate(resolver)

	rec := doRequest(t, gate.RequireAllPermissions("roles.view", "roles.manage"), "42")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, gate.RequireAllPermissions("roles.view", "assignments.manage"), "42")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient permissions")
}

func TestRequireAllPermissionsNoneAssigned(t *testing.T) {
	gate := newGate(&fakeResolver{perms: map[int64][]string{}})
	rec := doRequest(t, gate.RequireAllPermissions("roles.view"), "42")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "no permissions assigned")
}

// A granted binding shows up in access decisions once the resolver sees it.
func TestPermissionGrantFlipsDecision(t *testing.T) {
	resolver := &fakeResolver{perms: map[int64][]string{
		42: {"election.vote"},
	}}
	gate := newGate(resolver)

	rec := doRequest(t, gate.RequireAllPermissions("election.create"), "42")
	require.Equal(t, http.StatusForbidden, rec.Code)

	resolver.perms[42] = append(resolver.perms[42], "election.create")

	rec = doRequest(t, gate.RequireAllPermissions("election.create"), "42")
	assert.Equal(t, http.StatusOK, rec.Code)
}
