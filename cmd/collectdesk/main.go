package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collectdesk/collectdesk/internal/agents"
	"github.com/collectdesk/collectdesk/internal/app"
	"github.com/collectdesk/collectdesk/internal/approval"
	"github.com/collectdesk/collectdesk/internal/auth"
	"github.com/collectdesk/collectdesk/internal/collections"
	"github.com/collectdesk/collectdesk/internal/export"
	"github.com/collectdesk/collectdesk/internal/images"
	"github.com/collectdesk/collectdesk/internal/observability"
	"github.com/collectdesk/collectdesk/internal/platform/cache"
	"github.com/collectdesk/collectdesk/internal/platform/db"
	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
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

	sessionManager := shared.NewSessionManager(redisClient, "collectdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	lmsClient := upstream.NewClient(cfg.LMSBaseURL)
	if err := lmsClient.Ping(ctx); err != nil {
		logger.Warn("lms ping", slog.Any("error", err))
	}

	auditLogger := shared.NewAuditLogger(dbpool, logger)
	approvalTrail := shared.NewApprovalTrail(dbpool, logger)

	registry := collections.NewViewRegistry(lmsClient, logger)
	go registry.Run(ctx)

	metrics := observability.NewMetrics()

	authHandler := auth.NewHandler(logger, lmsClient, sessionManager, csrfManager, registry)
	collectionsHandler := collections.NewHandler(logger, registry, lmsClient)

	workflow := approval.NewWorkflow(lmsClient, approvalTrail, auditLogger, logger)
	approvalHandler := approval.NewHandler(logger, workflow, registry, approvalTrail, metrics)

	exportJob := export.NewJob(lmsClient, logger)
	exportHandler := export.NewHandler(logger, exportJob, registry, auditLogger)

	imageResolver := images.NewResolver(lmsClient, logger)
	imagesHandler := images.NewHandler(logger, imageResolver)

	directory := agents.NewDirectory(lmsClient, redisClient, logger)
	agentsHandler := agents.NewHandler(logger, directory)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		CollectionsHandler: collectionsHandler,
		ApprovalHandler:    approvalHandler,
		ExportHandler:      exportHandler,
		ImagesHandler:      imagesHandler,
		AgentsHandler:      agentsHandler,
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
