package testutil

import (
	"net/http"
	"time"

	authmw "pdsoauth/pkg/platform/middleware/auth"
	"pdsoauth/pkg/requestcontext"
)

// WithClaims simulates a request already accepted by the bearer middleware.
func WithClaims(req *http.Request, clientID, subject string) *http.Request {
	ctx := authmw.WithClaims(req.Context(), &authmw.Claims{ClientID: clientID, Subject: subject})
	return req.WithContext(ctx)
}

// WithTime pins the request-scoped clock.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
