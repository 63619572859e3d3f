package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mototrade-erp/mototrade/internal/app"
	"github.com/mototrade-erp/mototrade/internal/inventory"
	"github.com/mototrade-erp/mototrade/internal/media"
	"github.com/mototrade-erp/mototrade/internal/ocr"
	"github.com/mototrade-erp/mototrade/internal/platform/cache"
	"github.com/mototrade-erp/mototrade/internal/platform/db"
	"github.com/mototrade-erp/mototrade/internal/platform/storage"
	"github.com/mototrade-erp/mototrade/internal/reports"
	"github.com/mototrade-erp/mototrade/internal/shared"
	"github.com/mototrade-erp/mototrade/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	reportsService := reports.NewService(reports.NewRepository(pool), reports.NewCache(redisClient, cfg.ReportCacheTTL))

	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger)
	scanner := ocr.NewService(ocr.NewClient(cfg.OCRBaseURL, cfg.OCRAPIKey), inventoryService)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskLedgerIntegrity, Handler: func(ctx context.Context, _ *asynq.Task) error {
			return jobs.RunLedgerIntegrityScan(ctx, pool, logger)
		}},
		{Type: jobs.TaskReportWarmup, Handler: func(ctx context.Context, _ *asynq.Task) error {
			return jobs.RunReportWarmup(ctx, reportsService, logger)
		}},
		{Type: jobs.TaskIdempotencyCleanup, Handler: func(ctx context.Context, _ *asynq.Task) error {
			return idempotencyStore.Cleanup(ctx, 7*24*time.Hour)
		}},
	}

	store, err := storage.New(ctx, storage.Config{
		Bucket:   cfg.MediaBucket,
		Region:   cfg.MediaRegion,
		Endpoint: cfg.MediaEndpoint,
	})
	if err != nil {
		logger.Warn("media storage unavailable, ocr intake disabled", slog.Any("error", err))
	} else {
		handlers = append(handlers, jobs.TaskHandler{
			Type:    jobs.TaskOCRIntake,
			Handler: jobs.NewOCRIntakeHandler(media.NewRepository(pool), store, scanner, auditLogger, logger),
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: jobs.NewLedgerIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: jobs.NewReportWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * 0", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
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
