package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nordlicht-erp/nordlicht/internal/app"
	"github.com/nordlicht-erp/nordlicht/internal/dashboard"
	jobmetrics "github.com/nordlicht-erp/nordlicht/internal/jobs"
	"github.com/nordlicht-erp/nordlicht/internal/ledger"
	"github.com/nordlicht-erp/nordlicht/internal/params"
	"github.com/nordlicht-erp/nordlicht/internal/platform/cache"
	"github.com/nordlicht-erp/nordlicht/internal/platform/db"
	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
	"github.com/nordlicht-erp/nordlicht/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	projectRepo := projectfin.NewPGRepository(dbpool)
	ledgerRepo := ledger.NewRepository(dbpool)
	paramProvider := params.NewStoreProvider(params.NewPGStore(dbpool), logger)
	finService := projectfin.NewService(projectRepo, ledgerRepo, paramProvider, logger)

	snapshotRepo := snapshot.NewPGRepository(dbpool)
	snapshotService := snapshot.NewService(projectRepo, snapshotRepo, logger)

	dashCache := dashboard.NewCache(redisClient, cfg.CacheTTL)
	metrics := jobmetrics.NewMetrics(nil)

	snapshotJob := jobs.NewSnapshotJob(snapshotService, finService, dashCache, logger, metrics)
	refreshJob := jobs.NewPortfolioRefreshJob(finService, dashCache, logger, metrics)

	monthlyTask, err := jobs.NewSnapshotTask(jobs.TaskSnapshotMonthly, jobs.SnapshotPayload{})
	if err != nil {
		logger.Error("build monthly snapshot task", slog.Any("error", err))
		os.Exit(1)
	}
	quarterlyTask, err := jobs.NewSnapshotTask(jobs.TaskSnapshotQuarterly, jobs.SnapshotPayload{})
	if err != nil {
		logger.Error("build quarterly snapshot task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotMonthly, Handler: snapshotJob.Handle},
			{Type: jobs.TaskSnapshotQuarterly, Handler: snapshotJob.Handle},
			{Type: jobs.TaskPortfolioRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SnapshotMonthlyCron, Task: monthlyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.SnapshotQuarterlyCron, Task: quarterlyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
