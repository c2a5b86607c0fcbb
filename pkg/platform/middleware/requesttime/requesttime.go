// Package requesttime captures one "now" per request so code expiry, token
// expiry and expires_in are all computed from the same instant.
package requesttime

import (
	"net/http"
	"time"

	"pdsoauth/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
