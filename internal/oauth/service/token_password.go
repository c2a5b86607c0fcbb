package service

import (
	"context"

	"pdsoauth/internal/oauth/models"
)

// exchangePassword is the direct password grant. The client secret is
// optional but checked when supplied.
func (s *Service) exchangePassword(ctx context.Context, req *models.TokenRequest, flow *grantFlow) (*models.TokenResult, error) {
	client, err := s.clientForGrant(ctx, req, models.GrantPassword, false)
	if err != nil {
		return nil, err
	}
	flow.advance(stateClientValidated)

	creds, err := s.exchange(ctx, func(ctx context.Context) (*models.SessionCredentials, error) {
		return s.bridge.ExchangePassword(ctx, req.Username, req.Password)
	})
	if err != nil {
		return nil, translateExchangeError(err, "invalid username or password")
	}
	flow.advance(stateCredentialExchanged)

	user := models.NewUser(creds)
	return s.issueToken(ctx, client, user, s.ValidateScope(user, client, req.Scope), flow)
}
