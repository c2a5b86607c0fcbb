package service

import (
	"context"
	"errors"

	"pdsoauth/internal/oauth/models"
	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/sentinel"
	"pdsoauth/pkg/requestcontext"
)

// exchangeAuthorizationCode redeems a code for the session credentials it
// was issued with. The code is consumed before it is validated, so a code
// presented with the wrong client or redirect URI is spent.
func (s *Service) exchangeAuthorizationCode(ctx context.Context, req *models.TokenRequest, flow *grantFlow) (*models.TokenResult, error) {
	client, err := s.clientForGrant(ctx, req, models.GrantAuthorizationCode, true)
	if err != nil {
		return nil, err
	}
	flow.advance(stateClientValidated)

	code, err := s.codes.Consume(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidGrant, "authorization code is invalid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume authorization code")
	}
	if err := code.ValidateForExchange(client.ID, req.RedirectURI, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	flow.advance(stateCredentialExchanged)

	return s.issueToken(ctx, client, code.User, code.Scope, flow)
}
