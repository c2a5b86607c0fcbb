// Package httputil centralizes JSON response writing and domain error
// translation for HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "pdsoauth/pkg/domain-errors"
)

const internalMessage = "Internal Server Error"

// ErrorResponse is the envelope written for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes err using OAuth error identifiers. Infrastructure details
// of internal and upstream failures never reach the response.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeCoded(w, code, dErrors.OAuthIdentifier(code), message(err, code))
}

// WriteXRPCError writes err using atproto XRPC error names.
func WriteXRPCError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeCoded(w, code, dErrors.XRPCKind(code), message(err, code))
}

func writeCoded(w http.ResponseWriter, code dErrors.Code, identifier, msg string) {
	if code == dErrors.CodeInvalidToken {
		w.Header().Set("WWW-Authenticate", `Bearer realm="Service"`)
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, dErrors.HTTPStatus(code), ErrorResponse{Error: identifier, Message: msg})
}

func message(err error, code dErrors.Code) string {
	switch code {
	case dErrors.CodeInternal:
		return internalMessage
	case dErrors.CodeUpstreamUnavailable:
		return "identity service unavailable"
	}
	if de, ok := dErrors.As(err); ok && de.Message != "" {
		return de.Message
	}
	return internalMessage
}
