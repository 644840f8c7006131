package collections

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

type fakeListClient struct {
	calls     []url.Values
	responses []*upstream.ListResponse
	errs      []error
	hook      func()
}

func (c *fakeListClient) ListCollections(ctx context.Context, token string, query url.Values) (*upstream.ListResponse, error) {
	idx := len(c.calls)
	c.calls = append(c.calls, query)
	if c.hook != nil {
		hook := c.hook
		c.hook = nil
		hook()
	}
	if idx < len(c.errs) && c.errs[idx] != nil {
		return nil, c.errs[idx]
	}
	if idx < len(c.responses) {
		return c.responses[idx], nil
	}
	return &upstream.ListResponse{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestFetchCachesNormalizedPage(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{{
		Data: []upstream.Collection{
			{ID: "c-1", CustomerName: "Ram", VehicleNumber: "  ", Approved: nil},
			{ID: "c-2", CustomerName: "Shyam", VehicleNumber: "KA01AB1234", Approved: boolPtr(true), ApprovedBy: strPtr("ops")},
		},
		Total: 47,
	}}}
	f := NewFetcher(client, testLogger())

	page, err := f.Fetch(context.Background(), "tok", shared.Identity{Partner: "acme"}, DefaultCriteria(SurfaceApprovals))
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	require.Equal(t, VehicleNumberNA, page.Records[0].VehicleNumber)
	require.False(t, page.Records[0].Approved)
	require.True(t, page.Records[1].Approved)
	require.Equal(t, "ops", page.Records[1].ApprovedBy)

	require.Equal(t, 47, page.Pagination.Total)
	require.Equal(t, 5, page.Pagination.TotalPages)
	require.Equal(t, page, f.Current())
	require.Equal(t, 5, f.TotalPages())
}

func TestFetchPrefersUpstreamTotalPages(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{{
		Data:       []upstream.Collection{{ID: "c-1"}},
		Total:      47,
		TotalPages: intPtr(6),
	}}}
	f := NewFetcher(client, testLogger())

	page, err := f.Fetch(context.Background(), "tok", shared.Identity{Partner: "acme"}, DefaultCriteria(SurfaceApprovals))
	require.NoError(t, err)
	require.Equal(t, 6, page.Pagination.TotalPages)
}

func TestFetchDiscardsSupersededResponse(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{
		{Data: []upstream.Collection{{ID: "slow"}}, Total: 1},
		{Data: []upstream.Collection{{ID: "fast"}}, Total: 1},
	}}
	f := NewFetcher(client, testLogger())
	id := shared.Identity{Partner: "acme"}

	var fastPage *Page
	var fastErr error
	// The hook fires while the first fetch is between its generation
	// claim and its result landing, exactly the stale window.
	client.hook = func() {
		fastPage, fastErr = f.Fetch(context.Background(), "tok", id, DefaultCriteria(SurfaceApprovals).WithPage(2))
	}

	slowPage, slowErr := f.Fetch(context.Background(), "tok", id, DefaultCriteria(SurfaceApprovals))

	require.NoError(t, fastErr)
	require.Equal(t, "fast", fastPage.Records[0].ID)
	require.ErrorIs(t, slowErr, shared.ErrStaleResponse)
	require.Nil(t, slowPage)
	require.Equal(t, "fast", f.Current().Records[0].ID)
}

func TestFetchAfterCloseIsStale(t *testing.T) {
	client := &fakeListClient{}
	f := NewFetcher(client, testLogger())
	f.Close()

	_, err := f.Fetch(context.Background(), "tok", shared.Identity{Partner: "acme"}, DefaultCriteria(SurfaceApprovals))
	require.ErrorIs(t, err, shared.ErrStaleResponse)
	require.Empty(t, client.calls)
}

func TestFetchPropagatesClientError(t *testing.T) {
	boom := errors.New("boom")
	client := &fakeListClient{errs: []error{boom}}
	f := NewFetcher(client, testLogger())

	_, err := f.Fetch(context.Background(), "tok", shared.Identity{Partner: "acme"}, DefaultCriteria(SurfaceApprovals))
	require.ErrorIs(t, err, boom)
	require.Nil(t, f.Current())
}

func TestMarkApprovedPatchesCachedRecord(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{{
		Data:  []upstream.Collection{{ID: "c-1"}, {ID: "c-2"}},
		Total: 2,
	}}}
	f := NewFetcher(client, testLogger())
	_, err := f.Fetch(context.Background(), "tok", shared.Identity{Partner: "acme"}, DefaultCriteria(SurfaceApprovals))
	require.NoError(t, err)

	require.True(t, f.MarkApproved("c-2", "ops", "2026-08-30", "UTR123"))
	require.False(t, f.MarkApproved("missing", "ops", "2026-08-30", "UTR123"))

	rec := f.Current().Records[1]
	require.True(t, rec.Approved)
	require.Equal(t, "ops", rec.ApprovedBy)
	require.Equal(t, "2026-08-30", rec.BankDate)
	require.Equal(t, "UTR123", rec.BankUTR)

	require.False(t, f.Current().Records[0].Approved)
}
