package collections

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/collectdesk/collectdesk/internal/shared"
)

// BuildQuery turns an applied criteria snapshot into canonical upstream
// query parameters. Pure function: same inputs, same output.
//
// A parameter is omitted entirely when its value is empty; absence
// means "no constraint", never "empty string constraint". The partner
// scope always comes from the session identity, never from filter
// input, so a crafted filter can never widen the query across tenants.
func BuildQuery(c Criteria, id shared.Identity) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(c.Page))
	params.Set("limit", strconv.Itoa(c.PageSize))
	params.Set("partner", id.Partner)

	if c.CustomerName != "" {
		params.Set("customerName", c.CustomerName)
	}
	if agents := joinAgents(c.CollectedBy); agents != "" {
		params.Set("collectedBy", agents)
	}
	if c.StartDate != "" {
		params.Set("startDate", c.StartDate)
	}
	if c.EndDate != "" {
		params.Set("endDate", c.EndDate)
	}
	switch c.Approved {
	case ApprovalPendingOnly:
		params.Set("approved", "false")
	case ApprovalApprovedOnly:
		params.Set("approved", "true")
	}
	return params
}

// joinAgents comma-joins the agent labels, dropping blanks so a stray
// empty selection never serialises as a constraint.
func joinAgents(agents []string) string {
	kept := make([]string, 0, len(agents))
	for _, a := range agents {
		if a = strings.TrimSpace(a); a != "" {
			kept = append(kept, a)
		}
	}
	return strings.Join(kept, ",")
}
