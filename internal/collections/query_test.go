package collections

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collectdesk/collectdesk/internal/shared"
)

func TestBuildQueryOmitsEmptyParams(t *testing.T) {
	c := DefaultCriteria(SurfaceListing)
	id := shared.Identity{Partner: "acme-finance", Actor: "ops"}

	q := BuildQuery(c, id)

	require.Equal(t, "1", q.Get("page"))
	require.Equal(t, "10", q.Get("limit"))
	require.Equal(t, "acme-finance", q.Get("partner"))
	_, has := q["customerName"]
	require.False(t, has)
	_, has = q["collectedBy"]
	require.False(t, has)
	_, has = q["startDate"]
	require.False(t, has)
	_, has = q["approved"]
	require.False(t, has)
}

func TestBuildQueryApprovalTriState(t *testing.T) {
	id := shared.Identity{Partner: "acme-finance"}

	c := DefaultCriteria(SurfaceApprovals)
	q := BuildQuery(c, id)
	require.Equal(t, "false", q.Get("approved"))

	c.Approved = ApprovalApprovedOnly
	q = BuildQuery(c, id)
	require.Equal(t, "true", q.Get("approved"))

	c.Approved = ApprovalAny
	q = BuildQuery(c, id)
	_, has := q["approved"]
	require.False(t, has)
}

func TestBuildQueryJoinsAgents(t *testing.T) {
	c := DefaultCriteria(SurfaceListing)
	c.CollectedBy = []string{"Agent A", "  ", "Agent B"}

	q := BuildQuery(c, shared.Identity{Partner: "acme-finance"})
	require.Equal(t, "Agent A,Agent B", q.Get("collectedBy"))
}

func TestBuildQueryPartnerComesFromIdentityOnly(t *testing.T) {
	c := DefaultCriteria(SurfaceListing)
	c.CustomerName = "ram"

	q := BuildQuery(c, shared.Identity{Partner: "tenant-a"})
	require.Equal(t, "tenant-a", q.Get("partner"))

	q = BuildQuery(c, shared.Identity{Partner: "tenant-b"})
	require.Equal(t, "tenant-b", q.Get("partner"))
}

func TestBuildQueryIsPure(t *testing.T) {
	c := DefaultCriteria(SurfaceApprovals)
	c.CustomerName = "ram"
	c.StartDate = "2026-01-01"
	c.EndDate = "2026-01-31"
	id := shared.Identity{Partner: "acme-finance"}

	first := BuildQuery(c, id).Encode()
	second := BuildQuery(c, id).Encode()
	require.Equal(t, first, second)
}
