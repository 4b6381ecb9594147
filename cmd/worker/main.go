package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/vottery/role-service/internal/app"
	"github.com/vottery/role-service/internal/assignments"
	jobmetrics "github.com/vottery/role-service/internal/jobs"
	"github.com/vottery/role-service/internal/platform/cache"
	"github.com/vottery/role-service/internal/platform/db"
	"github.com/vottery/role-service/internal/rbac"
	"github.com/vottery/role-service/internal/roles"
	"github.com/vottery/role-service/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, 5)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	resolutionCache := rbac.NewCache(redisClient, cfg.ResolutionCacheTTL, nil)
	rolesRepo := roles.NewRepository(pool)
	assignmentsRepo := assignments.NewRepository(pool)
	assignmentsService := assignments.NewService(assignmentsRepo, rolesRepo, resolutionCache, logger, cfg.BaselineRole)
	metrics := jobmetrics.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAssignmentsExpire, Handler: jobs.NewAssignmentsExpireHandler(assignmentsService, logger, metrics)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ExpiryCron, Task: jobs.NewAssignmentsExpireTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
