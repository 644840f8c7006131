package export

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/collectdesk/collectdesk/internal/collections"
	"github.com/collectdesk/collectdesk/internal/shared"
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

func testJob(client collections.ListClient) *Job {
	return NewJob(client, slog.New(slog.DiscardHandler))
}

func TestRunEmptySetLeavesWriterUntouched(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{{Total: 0}}}
	job := testJob(client)

	var buf bytes.Buffer
	criteria := collections.DefaultCriteria(collections.SurfaceApprovals)
	rows, err := job.Run(context.Background(), "tok", shared.Identity{Partner: "acme"}, criteria, &buf)

	require.ErrorIs(t, err, shared.ErrNothingToExport)
	require.Zero(t, rows)
	require.Zero(t, buf.Len())
	require.Len(t, client.calls, 1)
}

func TestRunRequeriesFullFilteredSet(t *testing.T) {
	probe := &upstream.ListResponse{Total: 23}
	full := &upstream.ListResponse{
		Total: 23,
		Data: []upstream.Collection{
			{
				ID: "c-1", LoanID: "LN-1", CustomerName: "Ram", VehicleNumber: "",
				Amount: 1234567.5, PaymentDate: "2026-08-30", CreatedAt: "2026-08-30T10:00:00Z",
				Partner: "acme", CollectedBy: "Agent A",
			},
			{
				ID: "c-2", LoanID: "LN-2", CustomerName: "Shyam", VehicleNumber: "KA01AB1234",
				Amount: 250, PaymentDate: "2026-08-29", CreatedAt: "2026-08-29T09:00:00Z",
				Partner: "acme", CollectedBy: "Agent B",
			},
		},
	}
	client := &fakeListClient{responses: []*upstream.ListResponse{probe, full}}
	job := testJob(client)

	criteria := collections.DefaultCriteria(collections.SurfaceApprovals).WithPage(3)
	criteria.CustomerName = "ram"

	var buf bytes.Buffer
	rows, err := job.Run(context.Background(), "tok", shared.Identity{Partner: "acme"}, criteria, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, rows)

	require.Len(t, client.calls, 2)
	require.Equal(t, "1", client.calls[0].Get("page"))
	require.Equal(t, "1", client.calls[1].Get("page"))
	require.Equal(t, "23", client.calls[1].Get("limit"))
	require.Equal(t, "ram", client.calls[1].Get("customerName"))
	require.Equal(t, "acme", client.calls[1].Get("partner"))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[0], "# Collections export | Partner: acme"))
	require.Equal(t, "# Filters: approved=pending customerName=ram", lines[1])
	require.Equal(t, "Loan Id,Customer Name,Vehicle No.,Contact,Payment Date,Partner,Mode,Transaction ID,Amount (INR),Collected By,Approved By,Bank Date,Bank UTR,Created On", lines[2])

	require.Contains(t, lines[3], "LN-1")
	require.Contains(t, lines[3], "NA")
	require.Contains(t, lines[3], "30-08-2026")
	require.Contains(t, lines[3], "\"12,34,567.5\"")

	require.Contains(t, lines[4], "KA01AB1234")
	require.Contains(t, lines[4], "29-08-2026")
}

func TestExportableColumnsExcludeInteractiveOnes(t *testing.T) {
	for _, col := range ExportableColumns() {
		switch col.Key {
		case "approved", "image1", "image2", "selfie", "receipt":
			t.Fatalf("interactive column %q must not be exported", col.Key)
		}
	}
	require.Len(t, ExportableColumns(), 14)
}

func TestColumnFormatting(t *testing.T) {
	byKey := make(map[string]Column)
	for _, col := range Columns() {
		byKey[col.Key] = col
	}

	rec := collections.Record{Amount: 1234567.5, PaymentDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)}
	require.Equal(t, "12,34,567.5", byKey["amount"].Format(rec))
	require.Equal(t, "30-08-2026", byKey["paymentDate"].Format(rec))

	empty := collections.Record{}
	require.Equal(t, "-", byKey["amount"].Format(empty))
	require.Equal(t, "-", byKey["paymentDate"].Format(empty))
	require.Equal(t, "-", byKey["customerName"].Format(empty))
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 8, 30, 2, 30, 0, 0, time.UTC)
	require.Equal(t, "collections_acme_20260830.csv", FileName(" Acme ", at))
	require.Equal(t, "collections_all_20260830.csv", FileName("", at))
}
