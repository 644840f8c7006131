package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskExportSnapshot is the task type for the nightly full-export snapshot.
	TaskExportSnapshot = "export:snapshot"
	// TaskIdempotencyCleanup is the task type for pruning expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ExportSnapshotPayload names the partner and business date to snapshot.
type ExportSnapshotPayload struct {
	Partner string `json:"partner"`
	Date    string `json:"date"`
}

// NewExportSnapshotTask constructs an Asynq task.
func NewExportSnapshotTask(payload ExportSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExportSnapshot, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task; it carries no payload.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
