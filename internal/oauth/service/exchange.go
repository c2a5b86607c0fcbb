package service

import (
	"context"

	"pdsoauth/internal/identity"
	"pdsoauth/internal/oauth/models"
	dErrors "pdsoauth/pkg/domain-errors"
)

// exchange calls the identity service on a context detached from request
// cancellation, so an upstream session is never left half created. If the
// request was cancelled meanwhile the credentials are discarded.
func (s *Service) exchange(ctx context.Context, call func(context.Context) (*models.SessionCredentials, error)) (*models.SessionCredentials, error) {
	creds, err := call(context.WithoutCancel(ctx))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, dErrors.Wrap(ctxErr, dErrors.CodeInternal, "request cancelled")
	}
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// translateExchangeError maps identity failures to grant errors.
func translateExchangeError(err error, rejected string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case identity.IsCredentialRejected(err):
		return dErrors.Wrap(err, dErrors.CodeInvalidGrant, rejected)
	case identity.IsUnavailable(err):
		return dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "identity service unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "credential exchange failed")
	}
}
