package service

import (
	"context"

	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/requestcontext"
)

// grantState is the furthest step a grant reached. Failures are reported
// with the state they failed after.
type grantState string

const (
	stateReceived            grantState = "received"
	stateClientValidated     grantState = "client-validated"
	stateCredentialExchanged grantState = "credential-exchanged"
	stateTokenIssued         grantState = "token-issued"
	stateResponded           grantState = "responded"
	stateError               grantState = "error"
)

type grantFlow struct {
	s        *Service
	grant    string
	clientID string
	state    grantState
}

func (s *Service) beginGrant(grant, clientID string) *grantFlow {
	f := &grantFlow{s: s, grant: grant, clientID: clientID}
	f.advance(stateReceived)
	return f
}

func (f *grantFlow) advance(state grantState) {
	f.state = state
	if f.s.metrics != nil {
		f.s.metrics.ObserveGrantState(f.grant, string(state))
	}
}

// fail records err against the current state and returns it unchanged.
func (f *grantFlow) fail(ctx context.Context, err error) error {
	failedAt := f.state
	f.advance(stateError)
	code := dErrors.CodeOf(err)

	attrs := []any{
		"grant_type", f.grant,
		"client_id", f.clientID,
		"failed_at", string(failedAt),
		"code", string(code),
		"request_id", requestcontext.RequestID(ctx),
	}
	switch code {
	case dErrors.CodeInternal, dErrors.CodeUpstreamUnavailable:
		f.s.logger.ErrorContext(ctx, "grant failed", append(attrs, "error", err)...)
	default:
		f.s.logger.WarnContext(ctx, "grant rejected", attrs...)
	}
	if f.s.metrics != nil {
		f.s.metrics.ObserveGrant(f.grant, string(code))
	}
	return err
}

func (f *grantFlow) complete(ctx context.Context) {
	f.advance(stateResponded)
	f.s.logger.InfoContext(ctx, "grant issued",
		"grant_type", f.grant,
		"client_id", f.clientID,
		"request_id", requestcontext.RequestID(ctx),
	)
	if f.s.metrics != nil {
		f.s.metrics.ObserveGrant(f.grant, "success")
	}
}
