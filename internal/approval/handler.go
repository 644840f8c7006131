package approval

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/collectdesk/collectdesk/internal/collections"
	"github.com/collectdesk/collectdesk/internal/observability"
	"github.com/collectdesk/collectdesk/internal/shared"
)

// TrailLister reads the console-side approval history for a record.
type TrailLister interface {
	List(ctx context.Context, partner, recordID string) ([]shared.ApprovalTrailEntry, error)
}

// Handler serves the approval endpoints.
type Handler struct {
	logger   *slog.Logger
	workflow *Workflow
	registry *collections.ViewRegistry
	trail    TrailLister
	metrics  *observability.Metrics
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, workflow *Workflow, registry *collections.ViewRegistry, trail TrailLister, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, workflow: workflow, registry: registry, trail: trail, metrics: metrics}
}

// MountRoutes registers approval routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/approve", h.approve)
	r.Get("/{id}/trail", h.listTrail)
}

// approve submits the pending-to-approved transition for one record.
// The cached pages are patched only after the upstream confirms; on any
// failure the record stays visibly pending and the rejection reason is
// surfaced as-is.
func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Identity().Valid() {
		shared.RespondError(w, shared.ErrSessionExpired)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, shared.NewValidationError("", "invalid approval payload"))
		return
	}
	req.RecordID = chi.URLParam(r, "id")

	outcome, err := h.workflow.Approve(r.Context(), sess.Get(shared.SessionKeyToken), sess.Identity(), req)
	if err != nil {
		h.metrics.ObserveApproval("rejected")
		h.logger.Warn("approve collection",
			slog.Any("error", err),
			slog.String("record", req.RecordID))
		shared.RespondError(w, err)
		return
	}

	h.metrics.ObserveApproval("accepted")
	h.registry.MarkApproved(sess.ID, outcome.RecordID, outcome.ApprovedBy, outcome.BankDate, outcome.BankUTR)
	shared.RespondJSON(w, http.StatusOK, outcome)
}

// listTrail returns every submitted approval for a record, accepted and
// refused alike, oldest first.
func (h *Handler) listTrail(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Identity().Valid() {
		shared.RespondError(w, shared.ErrSessionExpired)
		return
	}

	recordID := chi.URLParam(r, "id")
	entries := []shared.ApprovalTrailEntry{}
	if h.trail != nil {
		got, err := h.trail.List(r.Context(), sess.Identity().Partner, recordID)
		if err != nil {
			h.logger.Error("list approval trail",
				slog.Any("error", err),
				slog.String("record", recordID))
			shared.RespondError(w, err)
			return
		}
		if got != nil {
			entries = got
		}
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"data": entries})
}
