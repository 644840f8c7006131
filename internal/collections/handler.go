package collections

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

// Handler serves the collection listing and filter endpoints.
type Handler struct {
	logger   *slog.Logger
	registry *ViewRegistry
	client   *upstream.Client
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, registry *ViewRegistry, client *upstream.Client) *Handler {
	return &Handler{logger: logger, registry: registry, client: client}
}

// MountRoutes registers collection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/filter", h.showFilter)
	r.Put("/filter", h.updateDraft)
	r.Post("/filter/apply", h.applyFilter)
	r.Post("/filter/discard", h.discardFilter)
	r.Post("/filter/clear", h.clearFilter)
	r.Get("/{id}/receipt", h.receipt)
}

type listResponse struct {
	Records    []Record          `json:"records"`
	Pagination shared.Pagination `json:"pagination"`
	Applied    Criteria          `json:"applied"`
}

type filterResponse struct {
	Draft   Criteria `json:"draft"`
	Applied Criteria `json:"applied"`
}

// list fetches the page driven by the session's applied criteria. An
// optional page parameter moves within the applied result set; it is
// clamped to the last known page count so a page past the end is never
// issued upstream.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	view, sess, ok := h.view(w, r)
	if !ok {
		return
	}

	criteria := view.Filters.Applied()
	if rawPage := r.URL.Query().Get("page"); rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			shared.RespondError(w, shared.NewValidationError("page", "must be a positive integer"))
			return
		}
		if known := view.Fetcher.TotalPages(); known > 0 {
			page = shared.ClampPage(page, known)
		}
		criteria = view.Filters.SetPage(page)
	}

	page, err := view.Fetcher.Fetch(r.Context(), sess.Get(shared.SessionKeyToken), sess.Identity(), criteria)
	if err != nil {
		if errors.Is(err, shared.ErrStaleResponse) {
			// A newer request for this view already answered.
			shared.RespondError(w, err)
			return
		}
		h.logger.Error("fetch collections", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}

	h.persistApplied(sess, view)
	shared.RespondJSON(w, http.StatusOK, listResponse{
		Records:    page.Records,
		Pagination: page.Pagination,
		Applied:    criteria,
	})
}

// showFilter returns the filter snapshots. With edit=true it seeds the
// draft from applied first, the open-editor transition.
func (h *Handler) showFilter(w http.ResponseWriter, r *http.Request) {
	view, _, ok := h.view(w, r)
	if !ok {
		return
	}
	draft := view.Filters.Draft()
	if r.URL.Query().Get("edit") == "true" {
		draft = view.Filters.OpenEditor()
	}
	shared.RespondJSON(w, http.StatusOK, filterResponse{Draft: draft, Applied: view.Filters.Applied()})
}

// updateDraft stores edits on the draft snapshot. Deliberately no fetch:
// the applied criteria and the last query stay untouched until apply.
func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	view, _, ok := h.view(w, r)
	if !ok {
		return
	}
	var draft Criteria
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		shared.RespondError(w, shared.NewValidationError("", "invalid filter payload"))
		return
	}
	applied := view.Filters.Applied()
	draft.Page = applied.Page
	draft.PageSize = applied.PageSize
	if draft.Approved == "" {
		draft.Approved = applied.Approved
	}
	if err := draft.Validate(); err != nil {
		shared.RespondError(w, err)
		return
	}
	updated := view.Filters.UpdateDraft(draft)
	shared.RespondJSON(w, http.StatusOK, filterResponse{Draft: updated, Applied: applied})
}

// applyFilter commits draft to applied and rewinds to page one.
func (h *Handler) applyFilter(w http.ResponseWriter, r *http.Request) {
	view, sess, ok := h.view(w, r)
	if !ok {
		return
	}
	applied := view.Filters.Commit()
	h.persistApplied(sess, view)
	shared.RespondJSON(w, http.StatusOK, filterResponse{Draft: view.Filters.Draft(), Applied: applied})
}

// discardFilter drops draft edits.
func (h *Handler) discardFilter(w http.ResponseWriter, r *http.Request) {
	view, _, ok := h.view(w, r)
	if !ok {
		return
	}
	draft := view.Filters.Discard()
	shared.RespondJSON(w, http.StatusOK, filterResponse{Draft: draft, Applied: view.Filters.Applied()})
}

// clearFilter resets both snapshots to the surface defaults.
func (h *Handler) clearFilter(w http.ResponseWriter, r *http.Request) {
	view, sess, ok := h.view(w, r)
	if !ok {
		return
	}
	cleared := view.Filters.Clear()
	h.persistApplied(sess, view)
	shared.RespondJSON(w, http.StatusOK, filterResponse{Draft: cleared, Applied: cleared})
}

// receipt relays the upstream receipt stream untouched.
func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		shared.RespondError(w, shared.ErrSessionExpired)
		return
	}
	id := sess.Identity()
	recordID := chi.URLParam(r, "id")

	body, contentType, err := h.client.FetchReceipt(r.Context(), sess.Get(shared.SessionKeyToken), recordID, id.Partner)
	if err != nil {
		h.logger.Error("fetch receipt", slog.Any("error", err), slog.String("record", recordID))
		shared.RespondError(w, err)
		return
	}
	defer func() {
		_ = body.Close()
	}()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("relay receipt", slog.Any("error", err))
	}
}

// view resolves the per-session engine state for the requested surface.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) (*View, *shared.Session, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Identity().Valid() {
		shared.RespondError(w, shared.ErrSessionExpired)
		return nil, nil, false
	}
	surface := ParseSurface(r.URL.Query().Get("surface"))
	view := h.registry.Get(sess.ID, surface, SeedFromSession(sess, surface))
	return view, sess, true
}

// ParseSurface maps the surface parameter onto a known surface; the
// approval queue is the console default.
func ParseSurface(raw string) Surface {
	if raw == string(SurfaceListing) {
		return SurfaceListing
	}
	return SurfaceApprovals
}

func sessionCriteriaKey(surface Surface) string {
	return "filters:" + string(surface)
}

// persistApplied mirrors the applied snapshot into the session so a
// console restart restores the saved filters instead of erroring.
func (h *Handler) persistApplied(sess *shared.Session, view *View) {
	applied := view.Filters.Applied()
	payload, err := json.Marshal(applied)
	if err != nil {
		return
	}
	sess.Set(sessionCriteriaKey(view.Filters.Surface()), string(payload))
}

// SeedFromSession recovers the criteria snapshot persisted for a
// surface, nil when the session holds nothing usable. Every handler
// resolving a view passes this so a restarted console restores the
// saved filters consistently.
func SeedFromSession(sess *shared.Session, surface Surface) *Criteria {
	raw := sess.Get(sessionCriteriaKey(surface))
	if raw == "" {
		return nil
	}
	var criteria Criteria
	if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
		return nil
	}
	return &criteria
}
