package handles

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pdsoauth/pkg/platform/httputil"
)

// Checker is the operation behind the TLS check route.
type Checker interface {
	CheckHandle(ctx context.Context, domain string) error
}

type Handler struct {
	checker Checker
}

func NewHandler(checker Checker) *Handler {
	return &Handler{checker: checker}
}

// Register mounts GET /tls-check.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tls-check", h.handleTLSCheck)
}

func (h *Handler) handleTLSCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.checker.CheckHandle(r.Context(), r.URL.Query().Get("domain")); err != nil {
		httputil.WriteXRPCError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
