package images

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/collectdesk/collectdesk/internal/shared"
)

// Handler serves evidence image bytes.
type Handler struct {
	logger   *slog.Logger
	resolver *Resolver
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, resolver *Resolver) *Handler {
	return &Handler{logger: logger, resolver: resolver}
}

// MountRoutes registers image routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/image", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Identity().Valid() {
		shared.RespondError(w, shared.ErrSessionExpired)
		return
	}
	slot, err := ParseSlot(r.URL.Query().Get("slot"))
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	recordID := chi.URLParam(r, "id")

	data, err := h.resolver.Resolve(r.Context(), sess.Get(shared.SessionKeyToken), sess.Identity(), recordID, slot)
	if err != nil {
		h.logger.Warn("resolve image",
			slog.Any("error", err),
			slog.String("record", recordID),
			slog.String("slot", string(slot)))
		shared.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("write image", slog.Any("error", err))
	}
}
