package models

import "time"

// Token is an issued access token with its optional refresh token.
type Token struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitzero"`
	Scope                 string    `json:"scope"`
	ClientID              string    `json:"client_id"`
	User                  User      `json:"user"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewToken issues the user's upstream session credentials as an OAuth token
// pair. The token strings are never generated locally.
func NewToken(client *Client, user User, scope string, now time.Time, accessTTL, refreshTTL time.Duration) *Token {
	token := &Token{
		AccessToken:          user.Credentials.AccessToken,
		AccessTokenExpiresAt: now.Add(accessTTL),
		Scope:                scope,
		ClientID:             client.ID,
		User:                 user,
		CreatedAt:            now,
	}
	if user.Credentials.RefreshToken != "" {
		token.RefreshToken = user.Credentials.RefreshToken
		token.RefreshTokenExpiresAt = now.Add(refreshTTL)
	}
	return token
}

func (t *Token) HasRefreshToken() bool {
	return t.RefreshToken != ""
}

func (t *Token) IsAccessTokenExpired(now time.Time) bool {
	return !now.Before(t.AccessTokenExpiresAt)
}

// IsRefreshTokenExpired is false for tokens without a refresh expiry.
func (t *Token) IsRefreshTokenExpired(now time.Time) bool {
	if t.RefreshTokenExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.RefreshTokenExpiresAt)
}

// ExpiresAt is the latest instant the record is still useful.
func (t *Token) ExpiresAt() time.Time {
	if t.RefreshTokenExpiresAt.After(t.AccessTokenExpiresAt) {
		return t.RefreshTokenExpiresAt
	}
	return t.AccessTokenExpiresAt
}

// ExpiresIn is the remaining access token lifetime in whole seconds.
func (t *Token) ExpiresIn(now time.Time) int {
	remaining := t.AccessTokenExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}
