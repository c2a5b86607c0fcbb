package service

import (
	"context"
	"errors"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/internal/oauth/secrets"
	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/sentinel"
)

// Lookup authenticates a client. A supplied secret must match the
// registered one; an empty secret is accepted only for clients registered
// without one.
func (s *Service) Lookup(ctx context.Context, clientID, clientSecret string) (*models.Client, error) {
	return s.resolveClient(ctx, clientID, clientSecret, true)
}

// resolveClient finds the client and checks any secret presented. With
// requireSecret unset a confidential client may omit its secret, as on the
// interactive authorize form and the password grant.
func (s *Service) resolveClient(ctx context.Context, clientID, clientSecret string, requireSecret bool) (*models.Client, error) {
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "client_id is required")
	}
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidClient, "client not found")
		}
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "client registry unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}

	switch {
	case clientSecret != "":
		if !client.IsConfidential() {
			return nil, dErrors.New(dErrors.CodeInvalidClient, "invalid client credentials")
		}
		if err := secrets.Verify(clientSecret, client.SecretHash); err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvalidClient) {
				return nil, err
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify client secret")
		}
	case requireSecret && client.IsConfidential():
		return nil, dErrors.New(dErrors.CodeInvalidClient, "client authentication required")
	}
	return client, nil
}

// clientForGrant resolves the client and checks it may use grant.
func (s *Service) clientForGrant(ctx context.Context, req *models.TokenRequest, grant models.GrantType, requireSecret bool) (*models.Client, error) {
	client, err := s.resolveClient(ctx, req.ClientID, req.ClientSecret, requireSecret)
	if err != nil {
		return nil, err
	}
	if !client.AllowsGrant(grant) {
		return nil, dErrors.New(dErrors.CodeUnauthorizedClient, "client is not permitted to use grant "+grant.String())
	}
	return client, nil
}

// ValidateScope returns the scope granted to user for client: the requested
// scope when present, otherwise the configured default.
func (s *Service) ValidateScope(_ models.User, _ *models.Client, requested string) string {
	if requested == "" {
		return s.cfg.DefaultScope
	}
	return requested
}
