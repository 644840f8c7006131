package approval

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

type fakeApprover struct {
	calls    int
	lastID   string
	lastReq  upstream.ApproveRequest
	response *upstream.ApproveResponse
	err      error
}

func (a *fakeApprover) Approve(ctx context.Context, token, recordID string, req upstream.ApproveRequest) (*upstream.ApproveResponse, error) {
	a.calls++
	a.lastID = recordID
	a.lastReq = req
	if a.err != nil {
		return nil, a.err
	}
	return a.response, nil
}

func newTestWorkflow(client Approver) *Workflow {
	return NewWorkflow(client, nil, nil, slog.New(slog.DiscardHandler))
}

func TestApproveValidationSkipsNetwork(t *testing.T) {
	client := &fakeApprover{}
	wf := newTestWorkflow(client)
	id := shared.Identity{Partner: "acme", Actor: "ops"}

	cases := []Request{
		{RecordID: "c-1", BankDate: "", BankUTR: "UTR1"},
		{RecordID: "c-1", BankDate: "30-08-2026", BankUTR: "UTR1"},
		{RecordID: "c-1", BankDate: "2026-08-30", BankUTR: ""},
		{RecordID: "c-1", BankDate: "2026-08-30", BankUTR: "   "},
		{RecordID: "", BankDate: "2026-08-30", BankUTR: "UTR1"},
	}
	for _, req := range cases {
		_, err := wf.Approve(context.Background(), "tok", id, req)
		var vErr *shared.ValidationError
		require.ErrorAs(t, err, &vErr, "request %+v", req)
	}
	require.Zero(t, client.calls)
}

func TestApproveSendsPartnerFromIdentity(t *testing.T) {
	client := &fakeApprover{response: &upstream.ApproveResponse{ApprovedBy: "server-ops"}}
	wf := newTestWorkflow(client)

	outcome, err := wf.Approve(context.Background(), "tok", shared.Identity{Partner: "acme", Actor: "ops"}, Request{
		RecordID: "c-1",
		BankDate: "2026-08-30",
		BankUTR:  " UTR123 ",
	})
	require.NoError(t, err)

	require.Equal(t, 1, client.calls)
	require.Equal(t, "c-1", client.lastID)
	require.Equal(t, "acme", client.lastReq.Partner)
	require.Equal(t, "UTR123", client.lastReq.BankUTR)

	require.Equal(t, "server-ops", outcome.ApprovedBy)
	require.Equal(t, "2026-08-30", outcome.BankDate)
	require.Equal(t, "UTR123", outcome.BankUTR)
}

func TestApproveApprovedByFallback(t *testing.T) {
	client := &fakeApprover{response: &upstream.ApproveResponse{}}
	wf := newTestWorkflow(client)
	req := Request{RecordID: "c-1", BankDate: "2026-08-30", BankUTR: "UTR1"}

	outcome, err := wf.Approve(context.Background(), "tok", shared.Identity{Partner: "acme", Actor: "ops"}, req)
	require.NoError(t, err)
	require.Equal(t, "ops", outcome.ApprovedBy)

	outcome, err = wf.Approve(context.Background(), "tok", shared.Identity{Partner: "acme"}, req)
	require.NoError(t, err)
	require.Equal(t, "back office", outcome.ApprovedBy)
}

func TestApproveUpstreamRejectionLeavesNoOutcome(t *testing.T) {
	client := &fakeApprover{err: &shared.ServerError{Status: 422, Message: "approval failed", RowReason: "duplicate UTR"}}
	wf := newTestWorkflow(client)

	outcome, err := wf.Approve(context.Background(), "tok", shared.Identity{Partner: "acme", Actor: "ops"}, Request{
		RecordID: "c-1",
		BankDate: "2026-08-30",
		BankUTR:  "UTR1",
	})
	require.Nil(t, outcome)
	require.Equal(t, "duplicate UTR", shared.UserSafeMessage(err))
}
