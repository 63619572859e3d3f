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

	"github.com/mototrade-erp/mototrade/internal/agents"
	"github.com/mototrade-erp/mototrade/internal/app"
	"github.com/mototrade-erp/mototrade/internal/audit"
	"github.com/mototrade-erp/mototrade/internal/auth"
	"github.com/mototrade-erp/mototrade/internal/inventory"
	"github.com/mototrade-erp/mototrade/internal/masterdata"
	"github.com/mototrade-erp/mototrade/internal/masterdata/models"
	"github.com/mototrade-erp/mototrade/internal/masterdata/warehouses"
	"github.com/mototrade-erp/mototrade/internal/media"
	"github.com/mototrade-erp/mototrade/internal/observability"
	"github.com/mototrade-erp/mototrade/internal/ocr"
	"github.com/mototrade-erp/mototrade/internal/platform/cache"
	"github.com/mototrade-erp/mototrade/internal/platform/db"
	"github.com/mototrade-erp/mototrade/internal/platform/storage"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/reports"
	"github.com/mototrade-erp/mototrade/internal/sales"
	"github.com/mototrade-erp/mototrade/internal/sales/customers"
	"github.com/mototrade-erp/mototrade/internal/shared"
	"github.com/mototrade-erp/mototrade/internal/transfers"
	"github.com/mototrade-erp/mototrade/internal/users"
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	sessionManager := shared.NewSessionManager(redisClient, "mototrade_session", cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	rbacService := rbac.NewService(pool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService)

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	usersService := users.NewService(users.NewRepository(pool), rbacService)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	warehouseService := warehouses.NewService(warehouses.NewRepository(pool))
	modelService := models.NewService(models.NewRepository(pool))
	masterDataHandler := &masterdata.Handler{
		Warehouses: warehouses.NewHandler(logger, warehouseService, rbacMiddleware),
		Models:     models.NewHandler(logger, modelService, rbacMiddleware),
	}

	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMiddleware)

	transfersService := transfers.NewService(transfers.NewRepository(pool), auditLogger, idempotencyStore, metrics)
	transfersHandler := transfers.NewHandler(logger, transfersService, rbacMiddleware)

	customersService := customers.NewService(customers.NewRepository(pool))
	customersHandler := customers.NewHandler(logger, customersService, rbacMiddleware)

	salesService := sales.NewService(sales.NewRepository(pool), auditLogger, idempotencyStore, metrics)
	salesHandler := sales.NewHandler(logger, salesService, rbacMiddleware)

	agentsService := agents.NewService(agents.NewRepository(pool), auditLogger, idempotencyStore, metrics)
	agentsHandler := agents.NewHandler(logger, agentsService, rbacMiddleware)

	reportsService := reports.NewService(reports.NewRepository(pool), reports.NewCache(redisClient, cfg.ReportCacheTTL))
	reportsHandler := reports.NewHandler(logger, reportsService, rbacMiddleware)

	ocrService := ocr.NewService(ocr.NewClient(cfg.OCRBaseURL, cfg.OCRAPIKey), inventoryService)
	ocrHandler := ocr.NewHandler(logger, ocrService, rbacMiddleware)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	var mediaHandler *media.Handler
	store, err := storage.New(ctx, storage.Config{
		Bucket:   cfg.MediaBucket,
		Region:   cfg.MediaRegion,
		Endpoint: cfg.MediaEndpoint,
	})
	if err != nil {
		logger.Warn("media storage unavailable", slog.Any("error", err))
	} else {
		mediaService := media.NewService(media.NewRepository(pool), store, auditLogger, jobsClient, cfg.MediaURLTTL)
		mediaHandler = media.NewHandler(logger, mediaService, rbacMiddleware)
	}

	auditHandler := audit.NewHandler(logger, audit.NewRepository(pool), rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		MasterDataHandler:  masterDataHandler,
		InventoryHandler:   inventoryHandler,
		TransfersHandler:   transfersHandler,
		CustomersHandler:   customersHandler,
		SalesHandler:       salesHandler,
		AgentsHandler:      agentsHandler,
		ReportsHandler:     reportsHandler,
		OCRHandler:         ocrHandler,
		MediaHandler:       mediaHandler,
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
