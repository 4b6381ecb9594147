package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	calls int
	err   error
}

func (f *fakeEnqueuer) EnqueueAssignmentsExpire(ctx context.Context) (*asynq.TaskInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsServer(t *testing.T, enqueuer Enqueuer) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(nil, enqueuer, nil, logger)

	r := chi.NewRouter()
	r.Route("/jobs", handler.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestExpireEndpointEnqueuesSweep(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	srv := newJobsServer(t, enqueuer)

	resp, err := srv.Client().Post(srv.URL+"/jobs/expire", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, enqueuer.calls)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"task_id":"task-1"`)
	assert.Contains(t, string(body), `"queue":"`+QueueDefault+`"`)
}

func TestExpireEndpointBrokerDown(t *testing.T) {
	enqueuer := &fakeEnqueuer{err: errors.New("broker unreachable")}
	srv := newJobsServer(t, enqueuer)

	resp, err := srv.Client().Post(srv.URL+"/jobs/expire", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestExpireEndpointAbsentWithoutEnqueuer(t *testing.T) {
	srv := newJobsServer(t, nil)

	resp, err := srv.Client().Post(srv.URL+"/jobs/expire", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
