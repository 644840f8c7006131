package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/collectdesk/collectdesk/internal/collections"
	"github.com/collectdesk/collectdesk/internal/shared"
)

// Handler serves the synchronous CSV download.
type Handler struct {
	logger   *slog.Logger
	job      *Job
	registry *collections.ViewRegistry
	audit    *shared.AuditLogger
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, job *Job, registry *collections.ViewRegistry, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, job: job, registry: registry, audit: audit}
}

// MountRoutes registers export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/export", h.download)
}

// download exports everything matching the session's applied criteria.
// The empty-set check runs before any response header is written so the
// advisory notice still goes out as JSON.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Identity().Valid() {
		shared.RespondError(w, shared.ErrSessionExpired)
		return
	}
	id := sess.Identity()
	surface := collections.ParseSurface(r.URL.Query().Get("surface"))
	view := h.registry.Get(sess.ID, surface, collections.SeedFromSession(sess, surface))
	criteria := view.Filters.Applied()

	fileName := FileName(id.Partner, time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	rows, err := h.job.Run(r.Context(), sess.Get(shared.SessionKeyToken), id, criteria, w)
	if err != nil {
		if rows == 0 {
			w.Header().Del("Content-Disposition")
			w.Header().Del("Content-Type")
			h.logger.Warn("export aborted", slog.Any("error", err))
			shared.RespondError(w, err)
			return
		}
		// Headers already committed mid-stream; nothing left but to log.
		h.logger.Error("export failed mid-stream", slog.Any("error", err), slog.Int("rows", rows))
		return
	}

	if h.audit != nil {
		if err := h.audit.Record(r.Context(), shared.AuditLog{
			Partner:  id.Partner,
			Actor:    id.Actor,
			Action:   "export",
			Entity:   "collection",
			EntityID: fileName,
			Meta:     map[string]any{"rows": rows, "surface": string(surface)},
		}); err != nil {
			h.logger.Warn("audit export", slog.Any("error", err))
		}
	}
}
