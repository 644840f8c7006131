package collections

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultViewIdleTTL = 45 * time.Minute

// View is the per-session, per-surface engine state: the draft/applied
// filter snapshots plus the fetcher caching the page on screen.
type View struct {
	Filters *FilterState
	Fetcher *Fetcher

	lastSeen time.Time
}

// ViewRegistry owns one View per (session, surface). Views are created
// on demand, kept in memory, and evicted after sitting idle; eviction
// closes the fetcher so a dangling in-flight response cannot mutate
// state that no consumer is watching.
type ViewRegistry struct {
	client  ListClient
	logger  *slog.Logger
	idleTTL time.Duration

	mu    sync.Mutex
	views map[string]*View
}

// NewViewRegistry constructs a ViewRegistry.
func NewViewRegistry(client ListClient, logger *slog.Logger) *ViewRegistry {
	return &ViewRegistry{
		client:  client,
		logger:  logger,
		idleTTL: defaultViewIdleTTL,
		views:   make(map[string]*View),
	}
}

// Get returns the view for a session and surface, creating it with the
// surface defaults on first use. A non-nil seed restores the applied
// criteria persisted in the session, so a console restart degrades to
// the saved filters rather than an error.
func (r *ViewRegistry) Get(sessionID string, surface Surface, seed *Criteria) *View {
	key := sessionID + "/" + string(surface)
	r.mu.Lock()
	defer r.mu.Unlock()
	if view, ok := r.views[key]; ok {
		view.lastSeen = time.Now()
		return view
	}
	filters := NewFilterState(surface)
	if seed != nil {
		if err := seed.Validate(); err == nil {
			filters.Restore(*seed)
		}
	}
	view := &View{
		Filters:  filters,
		Fetcher:  NewFetcher(r.client, r.logger),
		lastSeen: time.Now(),
	}
	r.views[key] = view
	return view
}

// MarkApproved patches the record across every cached page this session
// holds, so the approval queue and the general listing stay consistent.
func (r *ViewRegistry) MarkApproved(sessionID, recordID, approvedBy, bankDate, bankUTR string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, view := range r.views {
		if keySession(key) == sessionID {
			view.Fetcher.MarkApproved(recordID, approvedBy, bankDate, bankUTR)
		}
	}
}

// DropSession tears down every view for a session, typically at logout.
func (r *ViewRegistry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, view := range r.views {
		if keySession(key) == sessionID {
			view.Fetcher.Close()
			delete(r.views, key)
		}
	}
}

// Run evicts idle views until the context is cancelled.
func (r *ViewRegistry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idleTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle(time.Now().Add(-r.idleTTL))
		}
	}
}

func (r *ViewRegistry) evictIdle(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, view := range r.views {
		if view.lastSeen.Before(cutoff) {
			view.Fetcher.Close()
			delete(r.views, key)
		}
	}
}

func keySession(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[:i]
		}
	}
	return key
}
