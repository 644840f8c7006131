package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/collectdesk/collectdesk/internal/collections"
	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

// Handler manages sign-in and sign-out. The console holds no password
// material: credentials are forwarded to the LMS backend, and the grant
// it returns (token, partner scope, display name) is what the session
// keeps.
type Handler struct {
	logger   *slog.Logger
	client   *upstream.Client
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	registry *collections.ViewRegistry
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, client *upstream.Client, sessions *shared.SessionManager, csrf *shared.CSRFManager, registry *collections.ViewRegistry) *Handler {
	return &Handler{
		logger:   logger,
		client:   client,
		sessions: sessions,
		csrf:     csrf,
		registry: registry,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
}

type loginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		shared.RespondError(w, shared.ErrSessionExpired)
		return
	}

	var form loginForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		shared.RespondError(w, shared.NewValidationError("", "invalid login payload"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		shared.RespondError(w, shared.NewValidationError("", "username and password are required"))
		return
	}

	grant, err := h.client.Login(r.Context(), upstream.LoginRequest{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		h.logger.Warn("login rejected", slog.String("username", form.Username))
		shared.RespondError(w, err)
		return
	}

	sess.SetUser(form.Username)
	sess.SetIdentity(shared.Identity{Partner: grant.Partner, Actor: grant.Name})
	sess.Set(shared.SessionKeyToken, grant.Token)

	csrfToken, err := h.csrf.EnsureToken(sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}

	shared.RespondJSON(w, http.StatusOK, map[string]any{
		"partner":          grant.Partner,
		"name":             grant.Name,
		"csrfToken":        csrfToken,
		"expiresInSeconds": int(h.sessions.TTL().Seconds()),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		shared.RespondJSON(w, http.StatusNoContent, nil)
		return
	}
	h.registry.DropSession(sess.ID)
	h.sessions.Destroy(sess)
	shared.RespondJSON(w, http.StatusNoContent, nil)
}
