package service

import (
	"context"
	"time"

	"pdsoauth/internal/oauth/models"
	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/requestcontext"
)

// Token runs the grant named by req.GrantType.
func (s *Service) Token(ctx context.Context, req *models.TokenRequest) (*models.TokenResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "request is required")
	}
	req.Normalize()

	if req.GrantType == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "grant_type is required")
	}
	grant := models.GrantType(req.GrantType)
	if !grant.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnsupportedGrantType, "unsupported grant_type")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	flow := s.beginGrant(req.GrantType, req.ClientID)
	var (
		result *models.TokenResult
		err    error
	)
	switch grant {
	case models.GrantAuthorizationCode:
		result, err = s.exchangeAuthorizationCode(ctx, req, flow)
	case models.GrantRefreshToken:
		result, err = s.refreshWithRefreshToken(ctx, req, flow)
	case models.GrantPassword:
		result, err = s.exchangePassword(ctx, req, flow)
	}
	if err != nil {
		return nil, flow.fail(ctx, err)
	}
	flow.complete(ctx)
	return result, nil
}

// issueToken stores the token for user and builds the response.
func (s *Service) issueToken(ctx context.Context, client *models.Client, user models.User, scope string, flow *grantFlow) (*models.TokenResult, error) {
	now := requestcontext.Now(ctx)
	token := models.NewToken(client, user, scope, now, s.cfg.AccessTokenTTL, s.cfg.RefreshTokenTTL)
	saved, err := s.tokens.Save(ctx, token)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save token")
	}
	flow.advance(stateTokenIssued)
	return tokenResult(saved, now), nil
}

func tokenResult(token *models.Token, now time.Time) *models.TokenResult {
	return &models.TokenResult{
		AccessToken:  token.AccessToken,
		TokenType:    models.TokenTypeBearer,
		ExpiresIn:    token.ExpiresIn(now),
		RefreshToken: token.RefreshToken,
		Scope:        token.Scope,
	}
}
