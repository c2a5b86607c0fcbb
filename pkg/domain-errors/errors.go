// Package domainerrors defines coded errors raised by services and translated
// to HTTP responses at the transport boundary.
//
// Stores return sentinel errors (pkg/platform/sentinel); services classify them
// into a Code because only the service knows the request context needed to
// decide whether a miss is invalid_grant, invalid_token or not_found.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeInvalidRequest          Code = "invalid_request"
	CodeInvalidClient           Code = "invalid_client"
	CodeInvalidGrant            Code = "invalid_grant"
	CodeUnauthorizedClient      Code = "unauthorized_client"
	CodeUnsupportedGrantType    Code = "unsupported_grant_type"
	CodeUnsupportedResponseType Code = "unsupported_response_type"
	CodeInvalidToken            Code = "invalid_token"
	CodeUpstreamUnavailable     Code = "upstream_unavailable"
	CodeNotFound                Code = "not_found"
	CodeInternal                Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to callers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// As extracts the outermost domain error from err.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidRequest,
		CodeInvalidClient,
		CodeInvalidGrant,
		CodeUnauthorizedClient,
		CodeUnsupportedGrantType,
		CodeUnsupportedResponseType:
		return http.StatusBadRequest
	case CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// OAuthIdentifier maps a code to the RFC 6749 error identifier.
func OAuthIdentifier(code Code) string {
	switch code {
	case CodeInvalidRequest,
		CodeInvalidClient,
		CodeInvalidGrant,
		CodeUnauthorizedClient,
		CodeUnsupportedGrantType,
		CodeUnsupportedResponseType,
		CodeInvalidToken:
		return string(code)
	case CodeNotFound:
		return string(CodeInvalidRequest)
	default:
		return "server_error"
	}
}

// XRPCKind maps a code to the atproto XRPC error name.
func XRPCKind(code Code) string {
	switch code {
	case CodeInvalidRequest:
		return "InvalidRequest"
	case CodeInvalidClient:
		return "InvalidClient"
	case CodeInvalidGrant:
		return "InvalidGrant"
	case CodeUnauthorizedClient:
		return "UnauthorizedClient"
	case CodeUnsupportedGrantType, CodeUnsupportedResponseType:
		return "InvalidRequest"
	case CodeInvalidToken:
		return "InvalidToken"
	case CodeNotFound:
		return "NotFound"
	case CodeUpstreamUnavailable:
		return "UpstreamUnavailable"
	default:
		return "InternalServerError"
	}
}
