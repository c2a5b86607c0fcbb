package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/httputil"
	"pdsoauth/pkg/requestcontext"
)

// TokenValidator resolves a bearer access token to the identity it was
// issued for. It returns a CodeInvalidToken domain error for unknown or
// expired tokens.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*Claims, error)
}

// Claims describes the caller behind a validated access token.
type Claims struct {
	ClientID string
	Subject  string
	Scope    string
}

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by RequireAuth, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

// WithClaims stores claims in the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidToken, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateAccessToken(ctx, strings.TrimSpace(token))
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeInvalidToken) {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestID,
					)
				} else {
					logger.ErrorContext(ctx, "failed to validate access token",
						"error", err,
						"request_id", requestID,
					)
				}
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}
