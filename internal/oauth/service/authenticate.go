package service

import (
	"context"
	"errors"

	"pdsoauth/internal/oauth/models"
	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/sentinel"
	"pdsoauth/pkg/requestcontext"
)

// Authenticate resolves a bearer access token for protected routes.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.Token, error) {
	token, err := s.tokens.FindByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidToken, "invalid access token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access token")
	}
	if token.IsAccessTokenExpired(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "access token has expired")
	}
	return token, nil
}
