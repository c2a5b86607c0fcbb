package service

import (
	"context"
	"errors"

	"pdsoauth/internal/oauth/models"
	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/sentinel"
	"pdsoauth/pkg/requestcontext"
)

// refreshWithRefreshToken rotates the session with the identity service,
// which owns refresh token state and rejects replays. The local record is
// only consulted to bind the token to its client and scope.
func (s *Service) refreshWithRefreshToken(ctx context.Context, req *models.TokenRequest, flow *grantFlow) (*models.TokenResult, error) {
	client, err := s.clientForGrant(ctx, req, models.GrantRefreshToken, true)
	if err != nil {
		return nil, err
	}
	flow.advance(stateClientValidated)

	prior, err := s.tokens.FindByRefreshToken(ctx, req.RefreshToken)
	switch {
	case err == nil:
		if prior.ClientID != client.ID {
			return nil, dErrors.New(dErrors.CodeInvalidGrant, "refresh token was issued to another client")
		}
		if prior.IsRefreshTokenExpired(requestcontext.Now(ctx)) {
			return nil, dErrors.New(dErrors.CodeInvalidGrant, "refresh token has expired")
		}
	case errors.Is(err, sentinel.ErrNotFound):
		// issued by another instance or evicted; the identity service decides
	case errors.Is(err, sentinel.ErrUnavailable):
		s.logger.WarnContext(ctx, "token store unavailable, deferring to identity service", "client_id", client.ID, "error", err)
	default:
		s.logger.WarnContext(ctx, "refresh token lookup failed", "client_id", client.ID, "error", err)
	}

	creds, err := s.exchange(ctx, func(ctx context.Context) (*models.SessionCredentials, error) {
		return s.bridge.ExchangeRefresh(ctx, req.RefreshToken)
	})
	if err != nil {
		return nil, translateExchangeError(err, "refresh token is invalid")
	}
	flow.advance(stateCredentialExchanged)

	if prior != nil {
		if _, err := s.tokens.Revoke(ctx, prior); err != nil {
			s.logger.WarnContext(ctx, "failed to revoke rotated token", "client_id", client.ID, "error", err)
		}
	}

	user := models.NewUser(creds)
	requested := req.Scope
	if requested == "" && prior != nil {
		requested = prior.Scope
	}
	return s.issueToken(ctx, client, user, s.ValidateScope(user, client, requested), flow)
}
