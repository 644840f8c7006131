package jobs

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/collectdesk/collectdesk/internal/export"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

type fakeListClient struct {
	calls     []url.Values
	responses []*upstream.ListResponse
}

func (c *fakeListClient) ListCollections(ctx context.Context, token string, query url.Values) (*upstream.ListResponse, error) {
	idx := len(c.calls)
	c.calls = append(c.calls, query)
	if idx < len(c.responses) {
		return c.responses[idx], nil
	}
	return &upstream.ListResponse{}, nil
}

func newSnapshotJob(t *testing.T, client *fakeListClient) (*ExportSnapshotJob, string) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()
	return NewExportSnapshotJob(export.NewJob(client, logger), nil, logger, dir, "svc-token"), dir
}

func TestHandleWritesSnapshotFile(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{
		{Total: 1},
		{Total: 1, Data: []upstream.Collection{{ID: "c-1", LoanID: "LN-1", Partner: "acme"}}},
	}}
	job, dir := newSnapshotJob(t, client)

	task, err := NewExportSnapshotTask(ExportSnapshotPayload{Partner: "acme", Date: "2026-08-30"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(data), "LN-1")

	require.Equal(t, "false", client.calls[0].Get("approved"))
	require.Equal(t, "acme", client.calls[0].Get("partner"))
}

func TestHandleEmptySetLeavesNoFile(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{{Total: 0}}}
	job, dir := newSnapshotJob(t, client)

	task, err := NewExportSnapshotTask(ExportSnapshotPayload{Partner: "acme", Date: "2026-08-30"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestHandleBadPayloadSkipsRetry(t *testing.T) {
	client := &fakeListClient{}
	job, _ := newSnapshotJob(t, client)

	err := job.Handle(context.Background(), asynq.NewTask(TaskExportSnapshot, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskExportSnapshot, []byte(`{"partner":""}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, client.calls)
}
