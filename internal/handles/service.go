// Package handles answers on-demand TLS checks for hosted handle domains.
package handles

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"pdsoauth/internal/identity"
	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/sentinel"
)

// AccountResolver looks up the account registered for a handle.
type AccountResolver interface {
	GetAccount(ctx context.Context, handle string) (*identity.Account, error)
}

// Service decides whether a certificate may be issued for a domain.
type Service struct {
	accounts      AccountResolver
	hostname      string
	handleDomains []string
	logger        *slog.Logger
}

func NewService(accounts AccountResolver, hostname string, handleDomains []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		accounts:      accounts,
		hostname:      hostname,
		handleDomains: handleDomains,
		logger:        logger,
	}
}

// CheckHandle returns nil when domain is the service itself or a handle
// hosted under one of the service handle domains.
func (s *Service) CheckHandle(ctx context.Context, domain string) error {
	if domain == "" {
		return dErrors.New(dErrors.CodeInvalidRequest, "bad or missing domain query param")
	}
	if domain == s.hostname {
		return nil
	}
	if !s.isHostedDomain(domain) {
		return dErrors.New(dErrors.CodeInvalidRequest, "handles are not provided on this domain")
	}

	if _, err := s.accounts.GetAccount(ctx, domain); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "handle not found for this domain")
		}
		s.logger.ErrorContext(ctx, "check handle failed",
			"domain", domain,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "check handle failed")
	}
	return nil
}

func (s *Service) isHostedDomain(domain string) bool {
	for _, suffix := range s.handleDomains {
		if suffix != "" && strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}
