package collections

import "sync"

// FilterState reconciles draft filter edits against the applied
// snapshot. The filter surface mutates many fields one keystroke at a
// time, so edits land on the draft and only an explicit Commit swaps it
// in; nothing here ever triggers a fetch by itself.
//
// Both copies are immutable snapshots: every accessor hands out clones
// and Commit is a single atomic swap, never a field-by-field merge.
type FilterState struct {
	mu      sync.Mutex
	surface Surface
	applied Criteria
	draft   Criteria
}

// NewFilterState seeds both snapshots with the surface defaults.
func NewFilterState(surface Surface) *FilterState {
	defaults := DefaultCriteria(surface)
	return &FilterState{
		surface: surface,
		applied: defaults,
		draft:   defaults.Clone(),
	}
}

// Surface reports which listing this state drives.
func (f *FilterState) Surface() Surface {
	return f.surface
}

// OpenEditor seeds the draft from the applied snapshot so an in-progress
// edit resumes where the user left the last applied filters, and returns
// the draft for display.
func (f *FilterState) OpenEditor() Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = f.applied.Clone()
	return f.draft.Clone()
}

// UpdateDraft replaces the draft snapshot. Page and page size are
// carried over from the applied state; they are not edit-surface fields.
func (f *FilterState) UpdateDraft(c Criteria) Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	c = c.Clone()
	c.Page = f.applied.Page
	c.PageSize = f.applied.PageSize
	c.Approved = normalizeApproved(c.Approved, f.surface)
	f.draft = c
	return f.draft.Clone()
}

// Draft returns the current draft snapshot.
func (f *FilterState) Draft() Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

// Applied returns the snapshot driving the last query.
func (f *FilterState) Applied() Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied.Clone()
}

// Commit atomically swaps draft into applied and rewinds to page one.
func (f *FilterState) Commit() Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.draft.Clone()
	next.Page = 1
	f.applied = next
	f.draft = next.Clone()
	return next.Clone()
}

// Discard drops in-progress edits, restoring the draft from applied.
func (f *FilterState) Discard() Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = f.applied.Clone()
	return f.draft.Clone()
}

// Clear resets both snapshots to the surface defaults, page one.
func (f *FilterState) Clear() Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	defaults := DefaultCriteria(f.surface)
	f.applied = defaults
	f.draft = defaults.Clone()
	return defaults.Clone()
}

// Restore replaces both snapshots with a criteria persisted earlier,
// keeping its page and page size. Out-of-range values fall back to the
// surface defaults.
func (f *FilterState) Restore(c Criteria) Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	defaults := DefaultCriteria(f.surface)
	c = c.Clone()
	if c.Page < 1 {
		c.Page = defaults.Page
	}
	if c.PageSize < 1 {
		c.PageSize = defaults.PageSize
	}
	c.Approved = normalizeApproved(c.Approved, f.surface)
	f.applied = c
	f.draft = c.Clone()
	return c.Clone()
}

// SetPage moves the applied snapshot to the given page. Direct page
// changes are the one mutation allowed to bypass the draft.
func (f *FilterState) SetPage(page int) Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page < 1 {
		page = 1
	}
	next := f.applied.Clone()
	next.Page = page
	f.applied = next
	return next.Clone()
}

func normalizeApproved(v ApprovalFilter, surface Surface) ApprovalFilter {
	switch v {
	case ApprovalAny, ApprovalPendingOnly, ApprovalApprovedOnly:
		return v
	}
	return DefaultCriteria(surface).Approved
}
