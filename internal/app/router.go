package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/collectdesk/collectdesk/internal/agents"
	"github.com/collectdesk/collectdesk/internal/approval"
	"github.com/collectdesk/collectdesk/internal/auth"
	"github.com/collectdesk/collectdesk/internal/collections"
	"github.com/collectdesk/collectdesk/internal/export"
	"github.com/collectdesk/collectdesk/internal/images"
	"github.com/collectdesk/collectdesk/internal/observability"
	"github.com/collectdesk/collectdesk/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	AuthHandler        *auth.Handler
	CollectionsHandler *collections.Handler
	ApprovalHandler    *approval.Handler
	ExportHandler      *export.Handler
	ImagesHandler      *images.Handler
	AgentsHandler      *agents.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with CollectDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		shared.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	params.AuthHandler.MountRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Use(RequireIdentity)
		api.Use(chimw.NoCache)

		api.Route("/collections", func(cr chi.Router) {
			params.CollectionsHandler.MountRoutes(cr)
			params.ApprovalHandler.MountRoutes(cr)
			params.ExportHandler.MountRoutes(cr)
			params.ImagesHandler.MountRoutes(cr)
		})
		api.Route("/agents", func(ar chi.Router) {
			params.AgentsHandler.MountRoutes(ar)
		})
	})

	return r
}
