package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"pdsoauth/internal/identity"
	"pdsoauth/internal/oauth/models"
	"pdsoauth/internal/oauth/secrets"
	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/sentinel"
	"pdsoauth/pkg/requestcontext"
)

// codeCreateAttempts bounds retries on an authorization code collision.
const codeCreateAttempts = 3

// Authorize handles the login form: it exchanges the user's password with
// the identity service and, on success, issues an authorization code.
//
// A rejected password is not an error: the result redirects back to the
// login page with the original authorization parameters.
func (s *Service) Authorize(ctx context.Context, req *models.AuthorizeRequest) (*models.AuthorizeResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "request is required")
	}
	req.Normalize()

	client, redirectURI, err := s.validateAuthorizeRequest(ctx, req)
	if err != nil {
		s.observeAuthorize(ctx, req, "rejected", err)
		return nil, err
	}

	creds, err := s.exchange(ctx, func(ctx context.Context) (*models.SessionCredentials, error) {
		return s.bridge.ExchangePassword(ctx, req.Username, req.Password)
	})
	if err != nil {
		if identity.IsCredentialRejected(err) {
			s.observeAuthorize(ctx, req, "login_failed", translateExchangeError(err, "invalid username or password"))
			return &models.AuthorizeResult{RedirectURL: req.FailureRedirect(s.cfg.LoginPath)}, nil
		}
		err = translateExchangeError(err, "invalid username or password")
		s.observeAuthorize(ctx, req, "error", err)
		return nil, err
	}

	user := models.NewUser(creds)
	scope := s.ValidateScope(user, client, req.Scope)
	code, err := s.issueAuthorizationCode(ctx, client, user, redirectURI, scope)
	if err != nil {
		s.observeAuthorize(ctx, req, "error", err)
		return nil, err
	}

	location, err := successRedirect(redirectURI, code.Code, req.State)
	if err != nil {
		if _, revokeErr := s.codes.Revoke(ctx, code.Code); revokeErr != nil {
			s.logger.ErrorContext(ctx, "failed to revoke orphaned authorization code", "client_id", client.ID, "error", revokeErr)
		}
		err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to build redirect")
		s.observeAuthorize(ctx, req, "error", err)
		return nil, err
	}

	s.observeAuthorize(ctx, req, "success", nil)
	return &models.AuthorizeResult{RedirectURL: location, Success: true}, nil
}

// validateAuthorizeRequest returns the client and the redirect URI the code
// will be bound to.
func (s *Service) validateAuthorizeRequest(ctx context.Context, req *models.AuthorizeRequest) (*models.Client, string, error) {
	client, err := s.resolveClient(ctx, req.ClientID, "", false)
	if err != nil {
		return nil, "", err
	}
	if !client.AllowsGrant(models.GrantAuthorizationCode) {
		return nil, "", dErrors.New(dErrors.CodeUnauthorizedClient, "client is not permitted to use grant authorization_code")
	}
	if req.ResponseType != models.ResponseTypeCode {
		return nil, "", dErrors.New(dErrors.CodeUnsupportedResponseType, "response_type must be code")
	}

	redirectURI := req.RedirectURI
	if redirectURI == "" {
		redirectURI = client.DefaultRedirectURI()
	} else if !client.AllowsRedirectURI(redirectURI) {
		return nil, "", dErrors.New(dErrors.CodeInvalidRequest, "redirect_uri is not registered for this client")
	}
	return client, redirectURI, nil
}

func (s *Service) issueAuthorizationCode(ctx context.Context, client *models.Client, user models.User, redirectURI, scope string) (*models.AuthorizationCode, error) {
	now := requestcontext.Now(ctx)
	for range codeCreateAttempts {
		value, err := secrets.GenerateCode()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate authorization code")
		}
		code := models.NewAuthorizationCode(value, client, user, redirectURI, scope, now, s.cfg.CodeTTL)
		err = s.codes.Create(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store authorization code")
		}
	}
	return nil, dErrors.New(dErrors.CodeInternal, "failed to allocate a unique authorization code")
}

func successRedirect(redirectURI, code, state string) (string, error) {
	target, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("parse redirect_uri: %w", err)
	}
	if !target.IsAbs() {
		return "", fmt.Errorf("redirect_uri %q is not absolute", redirectURI)
	}
	query := target.Query()
	query.Set("code", code)
	if state != "" {
		query.Set("state", state)
	}
	target.RawQuery = query.Encode()
	return target.String(), nil
}

func (s *Service) observeAuthorize(ctx context.Context, req *models.AuthorizeRequest, outcome string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveAuthorize(outcome)
	}
	attrs := []any{
		"client_id", req.ClientID,
		"outcome", outcome,
		"request_id", requestcontext.RequestID(ctx),
	}
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "authorization code issued", attrs...)
	case outcome == "error":
		s.logger.ErrorContext(ctx, "authorize failed", append(attrs, "error", err)...)
	default:
		s.logger.WarnContext(ctx, "authorize rejected", append(attrs, "code", string(dErrors.CodeOf(err)))...)
	}
}
