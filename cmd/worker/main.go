package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/collectdesk/collectdesk/internal/app"
	"github.com/collectdesk/collectdesk/internal/export"
	"github.com/collectdesk/collectdesk/internal/platform/db"
	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
	"github.com/collectdesk/collectdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	enqueuePartner := flag.String("enqueue-snapshot", "", "enqueue a snapshot for this partner and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if *enqueuePartner != "" {
		client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Error("init jobs client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		info, err := client.EnqueueExportSnapshot(ctx, jobs.ExportSnapshotPayload{Partner: *enqueuePartner})
		if err != nil {
			logger.Error("enqueue snapshot", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("snapshot enqueued", slog.String("partner", *enqueuePartner), slog.String("task", info.ID))
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	lmsClient := upstream.NewClient(cfg.LMSBaseURL)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	exportJob := export.NewJob(lmsClient, logger)
	snapshotJob := jobs.NewExportSnapshotJob(exportJob, idempotencyStore, logger, cfg.ExportDir, cfg.LMSServiceToken)
	cleanupJob := jobs.NewIdempotencyCleanupJob(idempotencyStore, logger, 0)

	cron := make([]jobs.CronRegistration, 0, len(cfg.SnapshotPartners)+1)
	for _, partner := range cfg.SnapshotPartners {
		task, err := jobs.NewExportSnapshotTask(jobs.ExportSnapshotPayload{Partner: partner})
		if err != nil {
			logger.Error("build snapshot task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    "30 2 * * *",
			Task:    task,
			Options: []asynq.Option{asynq.MaxRetry(3), asynq.Timeout(10 * time.Minute)},
		})
	}
	cron = append(cron, jobs.CronRegistration{
		Spec:    "0 3 * * *",
		Task:    jobs.NewIdempotencyCleanupTask(),
		Options: []asynq.Option{asynq.MaxRetry(1), asynq.Timeout(time.Minute)},
	})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskExportSnapshot, Handler: snapshotJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: cron,
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
