package collections

import (
	"time"

	"github.com/collectdesk/collectdesk/internal/shared"
)

// ApprovalFilter is the tri-state approval criterion.
type ApprovalFilter string

const (
	// ApprovalAny places no constraint on approval state.
	ApprovalAny ApprovalFilter = "any"
	// ApprovalPendingOnly restricts the listing to unapproved records.
	ApprovalPendingOnly ApprovalFilter = "pending"
	// ApprovalApprovedOnly restricts the listing to approved records.
	ApprovalApprovedOnly ApprovalFilter = "approved"
)

// Surface identifies which console listing a criteria set drives. The
// approval queue and the general listing carry different approval
// defaults, and the default is a property of the surface rather than
// something inferred from absent filter keys.
type Surface string

const (
	// SurfaceApprovals is the back-office approval queue. A freshly
	// opened queue must never silently show settled records.
	SurfaceApprovals Surface = "approvals"
	// SurfaceListing is the general payments listing.
	SurfaceListing Surface = "listing"
)

const dateLayout = "2006-01-02"

// Criteria is one immutable snapshot of filter state. Partner scope is
// deliberately absent: it is injected from the session identity at
// query-build time and is never user-editable.
type Criteria struct {
	CustomerName string         `json:"customerName"`
	CollectedBy  []string       `json:"collectedBy"`
	StartDate    string         `json:"startDate"`
	EndDate      string         `json:"endDate"`
	Approved     ApprovalFilter `json:"approved"`
	Page         int            `json:"page"`
	PageSize     int            `json:"pageSize"`
}

// DefaultCriteria returns the initial criteria for a surface.
func DefaultCriteria(surface Surface) Criteria {
	approved := ApprovalAny
	if surface == SurfaceApprovals {
		approved = ApprovalPendingOnly
	}
	return Criteria{
		Approved: approved,
		Page:     1,
		PageSize: shared.DefaultPageSize,
	}
}

// Clone returns a deep copy so snapshots never share the agent slice.
func (c Criteria) Clone() Criteria {
	out := c
	if c.CollectedBy != nil {
		out.CollectedBy = append([]string(nil), c.CollectedBy...)
	}
	return out
}

// WithPage returns a copy pointing at the given page.
func (c Criteria) WithPage(page int) Criteria {
	out := c.Clone()
	if page < 1 {
		page = 1
	}
	out.Page = page
	return out
}

// WithFullSize returns a copy sized to fetch the entire matching set in
// one request, used by export so pagination never hides matching rows.
func (c Criteria) WithFullSize(total int) Criteria {
	out := c.Clone()
	out.Page = 1
	out.PageSize = total
	return out
}

// Validate enforces the input-level constraints: a parseable inclusive
// date range with start not after end, and sane page numbers.
func (c Criteria) Validate() error {
	var start, end time.Time
	if c.StartDate != "" {
		t, err := time.Parse(dateLayout, c.StartDate)
		if err != nil {
			return shared.NewValidationError("startDate", "must be a valid date (YYYY-MM-DD)")
		}
		start = t
	}
	if c.EndDate != "" {
		t, err := time.Parse(dateLayout, c.EndDate)
		if err != nil {
			return shared.NewValidationError("endDate", "must be a valid date (YYYY-MM-DD)")
		}
		end = t
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return shared.NewValidationError("startDate", "must not be after endDate")
	}
	if c.Page < 1 {
		return shared.NewValidationError("page", "must be at least 1")
	}
	if c.PageSize < 1 {
		return shared.NewValidationError("pageSize", "must be at least 1")
	}
	switch c.Approved {
	case ApprovalAny, ApprovalPendingOnly, ApprovalApprovedOnly:
	default:
		return shared.NewValidationError("approved", "must be any, pending or approved")
	}
	return nil
}
