package assignments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vottery/role-service/internal/rbac"
)

type allowAllResolver struct{}

func (allowAllResolver) UserRoles(ctx context.Context, userID int64) ([]rbac.ResolvedRole, error) {
	return []rbac.ResolvedRole{{RoleName: "Admin"}}, nil
}

func (allowAllResolver) UserPermissions(ctx context.Context, userID int64) ([]string, error) {
	return []string{"assignments.view", "assignments.manage"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	svc, _ := newTestService(repo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := rbac.Middleware{Resolver: allowAllResolver{}, Logger: logger}
	handler := NewHandler(logger, svc, gate)

	r := chi.NewRouter()
	r.Route("/assignments", handler.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "99")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func TestAssignEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/assignments", map[string]any{
		"user_id":           42,
		"role_name":         "Voter",
		"assignment_source": "registration",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, true, envelope["success"])
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(42), data["user_id"])
	assert.Equal(t, "Voter", data["role_name"])
	assert.Equal(t, true, data["is_active"])
	// The caller from X-User-ID is recorded as the assigner.
	assert.Equal(t, float64(99), data["assigned_by"])
	assert.Contains(t, repo.rows, pairKey{42, "Voter"})
}

func TestAssignEndpointRequiresUserID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/assignments", map[string]any{
		"role_name": "Voter",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAssignEndpointUnknownRole(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/assignments", map[string]any{
		"user_id":   42,
		"role_name": "Ghost",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteEndpointProtectsBaseline(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/assignments", map[string]any{
		"user_id":   42,
		"role_name": "Voter",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodDelete, "/assignments", map[string]any{
		"user_id":   42,
		"role_name": "voter",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeleteEndpointLastActiveRole(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/assignments", map[string]any{
		"user_id":   7,
		"role_name": "Admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodDelete, "/assignments", map[string]any{
		"user_id":   7,
		"role_name": "Admin",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeactivateEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/assignments", map[string]any{
		"user_id":   42,
		"role_name": "Admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/assignments/deactivate", map[string]any{
		"user_id":   42,
		"role_name": "Admin",
		"reason":    "policy review",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, repo.rows[pairKey{42, "Admin"}].IsActive)

	resp = doJSON(t, srv, http.MethodPost, "/assignments/reactivate", map[string]any{
		"user_id":   42,
		"role_name": "Admin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, repo.rows[pairKey{42, "Admin"}].IsActive)
}

func TestListEndpointFiltersByUser(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, userID := range []int{1, 2} {
		resp := doJSON(t, srv, http.MethodPost, "/assignments", map[string]any{
			"user_id":   userID,
			"role_name": "Voter",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := doJSON(t, srv, http.MethodGet, "/assignments?user_id=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, float64(1), data[0].(map[string]any)["user_id"])
}
