package agents

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/collectdesk/collectdesk/internal/shared"
)

// Handler serves the agent filter options.
type Handler struct {
	logger    *slog.Logger
	directory *Directory
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, directory *Directory) *Handler {
	return &Handler{logger: logger, directory: directory}
}

// MountRoutes registers agent routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Identity().Valid() {
		shared.RespondError(w, shared.ErrSessionExpired)
		return
	}
	options, err := h.directory.Options(r.Context(), sess.Get(shared.SessionKeyToken), sess.Identity().Partner)
	if err != nil {
		h.logger.Error("list agents", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"data": options})
}
