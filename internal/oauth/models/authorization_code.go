package models

import (
	"time"

	dErrors "pdsoauth/pkg/domain-errors"
)

// AuthorizationCode is a single-use code issued by the authorize endpoint and
// exchanged at the token endpoint.
type AuthorizationCode struct {
	Code        string    `json:"code"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Scope       string    `json:"scope"`
	User        User      `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func NewAuthorizationCode(code string, client *Client, user User, redirectURI, scope string, now time.Time, ttl time.Duration) *AuthorizationCode {
	return &AuthorizationCode{
		Code:        code,
		ClientID:    client.ID,
		RedirectURI: redirectURI,
		Scope:       scope,
		User:        user,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// IsExpired reports whether now is at or past the expiry.
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ValidateForExchange checks a consumed code against the token request.
// The code must already be consumed: a failed validation never makes it
// usable again.
func (c *AuthorizationCode) ValidateForExchange(clientID, redirectURI string, now time.Time) error {
	if c.ClientID != clientID {
		return dErrors.New(dErrors.CodeInvalidGrant, "authorization code is invalid")
	}
	if c.IsExpired(now) {
		return dErrors.New(dErrors.CodeInvalidGrant, "authorization code has expired")
	}
	if c.RedirectURI != "" && c.RedirectURI != redirectURI {
		return dErrors.New(dErrors.CodeInvalidGrant, "redirect_uri mismatch")
	}
	return nil
}
