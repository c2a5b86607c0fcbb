package identity

import (
	"errors"
	"fmt"
)

// Kind classifies why the identity service did not return a session.
type Kind int

const (
	// KindCredentialRejected means the identity service answered and refused
	// the password or refresh credential.
	KindCredentialRejected Kind = iota + 1
	// KindUpstreamUnavailable covers transport failures, timeouts, server
	// errors and responses that could not be understood.
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindCredentialRejected:
		return "credential_rejected"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails.
type Error struct {
	Kind   Kind
	Op     string
	Status int    // upstream HTTP status, zero when no response arrived
	Reason string // upstream XRPC error name, if any
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("identity %s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of an identity error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var identityErr *Error
	if errors.As(err, &identityErr) {
		return identityErr.Kind, true
	}
	return 0, false
}

func IsCredentialRejected(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindCredentialRejected
}

func IsUnavailable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindUpstreamUnavailable
}
