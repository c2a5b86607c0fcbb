package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pdsoauth/internal/oauth/models"
	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/httputil"
	authmw "pdsoauth/pkg/platform/middleware/auth"
	"pdsoauth/pkg/requestcontext"
)

// Service defines the OAuth operations the handler exposes.
type Service interface {
	Authorize(ctx context.Context, req *models.AuthorizeRequest) (*models.AuthorizeResult, error)
	Token(ctx context.Context, req *models.TokenRequest) (*models.TokenResult, error)
	Authenticate(ctx context.Context, accessToken string) (*models.Token, error)
}

// Handler serves the authorize, token and protected test endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the OAuth routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/oauth/authorize", h.handleAuthorize)
	r.Post("/oauth/token", h.handleToken)
	r.With(authmw.RequireAuth(h, h.logger)).Get("/secure/", h.handleSecure)
}

// ValidateAccessToken lets the bearer middleware authenticate against the
// token store.
func (h *Handler) ValidateAccessToken(ctx context.Context, accessToken string) (*authmw.Claims, error) {
	token, err := h.service.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{ClientID: token.ClientID, Subject: token.User.Subject, Scope: token.Scope}, nil
}

// handleAuthorize processes the login form and redirects the user agent
// either to the client with a code or back to the login page.
func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := parseAuthorizeRequest(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid authorize request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Authorize(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := parseTokenRequest(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid token request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Token(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSecure(w http.ResponseWriter, r *http.Request) {
	if _, ok := authmw.ClaimsFromContext(r.Context()); !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context missing"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
