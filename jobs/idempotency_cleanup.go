package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const defaultIdempotencyRetention = 30 * 24 * time.Hour

// CleanupStore prunes idempotency keys older than a retention window.
type CleanupStore interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupJob prunes expired idempotency keys so the table
// does not grow without bound. Keys only need to outlive the dedupe
// window of the jobs that wrote them.
type IdempotencyCleanupJob struct {
	store     CleanupStore
	logger    *slog.Logger
	retention time.Duration
}

// NewIdempotencyCleanupJob builds the job. A non-positive retention
// falls back to the default of thirty days.
func NewIdempotencyCleanupJob(store CleanupStore, logger *slog.Logger, retention time.Duration) *IdempotencyCleanupJob {
	if retention <= 0 {
		retention = defaultIdempotencyRetention
	}
	return &IdempotencyCleanupJob{store: store, logger: logger, retention: retention}
}

// Handle processes one cleanup run.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if err := j.store.Cleanup(ctx, j.retention); err != nil {
		j.logger.Error("idempotency cleanup", slog.Any("error", err))
		return err
	}
	j.logger.Info("idempotency cleanup complete", slog.Duration("retention", j.retention))
	return nil
}
