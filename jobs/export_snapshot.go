package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/collectdesk/collectdesk/internal/collections"
	"github.com/collectdesk/collectdesk/internal/export"
	"github.com/collectdesk/collectdesk/internal/shared"
)

// ExportSnapshotJob writes the full pending set for a partner to a CSV
// file under the export directory. It runs with a service credential,
// not a user session, and the idempotency store keeps a partner from
// being snapshotted twice for the same business date.
type ExportSnapshotJob struct {
	Job          *export.Job
	Idempotency  *shared.IdempotencyStore
	Logger       *slog.Logger
	ExportDir    string
	ServiceToken string

	clock func() time.Time
}

// NewExportSnapshotJob wires dependencies for the snapshot handler.
func NewExportSnapshotJob(job *export.Job, idem *shared.IdempotencyStore, logger *slog.Logger, exportDir, serviceToken string) *ExportSnapshotJob {
	return &ExportSnapshotJob{
		Job:          job,
		Idempotency:  idem,
		Logger:       logger,
		ExportDir:    exportDir,
		ServiceToken: serviceToken,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskExportSnapshot tasks.
func (j *ExportSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("export snapshot: handler not configured")
	}
	var payload ExportSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Partner == "" {
		return asynq.SkipRetry
	}
	if payload.Date == "" {
		payload.Date = j.clock().Format("2006-01-02")
	}

	logger := j.Logger.With(
		slog.String("partner", payload.Partner),
		slog.String("date", payload.Date))

	if j.Idempotency != nil {
		key := fmt.Sprintf("snapshot:%s:%s", payload.Partner, payload.Date)
		if err := j.Idempotency.CheckAndInsert(ctx, key, "export"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				logger.Info("snapshot already taken, skipping")
				return nil
			}
			return err
		}
	}

	identity := shared.Identity{Partner: payload.Partner, Actor: "snapshot"}
	criteria := collections.DefaultCriteria(collections.SurfaceApprovals)

	if err := os.MkdirAll(j.ExportDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(j.ExportDir, export.FileName(payload.Partner, j.clock()))
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	rows, err := j.Job.Run(ctx, j.ServiceToken, identity, criteria, file)
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, shared.ErrNothingToExport) {
			logger.Info("no pending collections, nothing to snapshot")
			return nil
		}
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	logger.Info("snapshot written", slog.String("path", path), slog.Int("rows", rows))
	return nil
}
