package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nordlicht-erp/nordlicht/internal/app"
	"github.com/nordlicht-erp/nordlicht/internal/dashboard"
	dashhttp "github.com/nordlicht-erp/nordlicht/internal/dashboard/http"
	"github.com/nordlicht-erp/nordlicht/internal/ledger"
	"github.com/nordlicht-erp/nordlicht/internal/observability"
	"github.com/nordlicht-erp/nordlicht/internal/params"
	"github.com/nordlicht-erp/nordlicht/internal/platform/cache"
	"github.com/nordlicht-erp/nordlicht/internal/platform/db"
	"github.com/nordlicht-erp/nordlicht/internal/projectfin"
	"github.com/nordlicht-erp/nordlicht/internal/snapshot"
	"github.com/nordlicht-erp/nordlicht/jobs"
	"github.com/nordlicht-erp/nordlicht/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	dashService := dashboard.NewService(projectRepo, snapshotRepo, dashCache, logger)
	if err := dashCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache listener", slog.Any("error", err))
	}

	recomputer := projectfin.NewRecomputer(finService, dashCache, logger)
	dashHandler := dashhttp.NewHandler(logger, dashService, finService, snapshotService, recomputer)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportBuilder := report.NewBuilder(projectRepo, snapshotRepo)
	reportHandler := report.NewHandler(reportClient, reportBuilder, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: dashHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
