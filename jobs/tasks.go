package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vottery/role-service/internal/assignments"
	jobmetrics "github.com/vottery/role-service/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAssignmentsExpire sweeps role assignments whose expiry has passed.
	TaskAssignmentsExpire = "assignments:expire"
)

// NewAssignmentsExpireTask constructs the expiry sweep task. The sweep takes
// no payload; it always operates on whatever is due at execution time.
func NewAssignmentsExpireTask() *asynq.Task {
	return asynq.NewTask(TaskAssignmentsExpire, nil)
}

// NewAssignmentsExpireHandler builds the Asynq handler for the expiry sweep.
// Overlapping or re-delivered runs are safe: the sweep only flips rows that
// are still active and past due.
func NewAssignmentsExpireHandler(service *assignments.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskAssignmentsExpire)
		expired, err := service.ExpireDue(ctx)
		if err != nil {
			logger.Error("assignments expiry sweep", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.AddExpired(len(expired))
		logger.Info("assignments expiry sweep completed", slog.Int("expired", len(expired)))
		return tracker.End(nil)
	}
}
