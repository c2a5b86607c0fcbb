package models

import (
	"net/url"
	"strings"

	dErrors "pdsoauth/pkg/domain-errors"
)

// AuthorizeRequest is the interactive login form posted to the authorize
// endpoint. Username and Password are exchanged for a session upstream.
type AuthorizeRequest struct {
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	ResponseType string `json:"response_type"`
	GrantType    string `json:"grant_type"`
	State        string `json:"state"`
	Scope        string `json:"scope"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// Normalize trims the lookup fields. Password, State and RedirectURI are kept
// as typed: the password is forwarded upstream and the other two are echoed
// back to the client, which compares them exactly.
func (r *AuthorizeRequest) Normalize() {
	if r == nil {
		return
	}
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.ResponseType = strings.TrimSpace(r.ResponseType)
	r.GrantType = strings.TrimSpace(r.GrantType)
	r.Scope = strings.TrimSpace(r.Scope)
	r.Username = strings.TrimSpace(r.Username)
}

// FailureRedirect sends the user back to the login page with the original
// authorization parameters so the form can be resubmitted.
func (r *AuthorizeRequest) FailureRedirect(loginPath string) string {
	var b strings.Builder
	b.WriteString(loginPath)
	b.WriteString("?success=false")
	for _, p := range [][2]string{
		{"client_id", r.ClientID},
		{"redirect_uri", r.RedirectURI},
		{"response_type", r.ResponseType},
		{"grant_type", r.GrantType},
		{"state", r.State},
	} {
		b.WriteByte('&')
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}

// AuthorizeResult tells the handler where to redirect the user agent.
type AuthorizeResult struct {
	RedirectURL string
	Success     bool
}

// TokenRequest is the token endpoint body. ClientID and ClientSecret may also
// come from HTTP Basic credentials.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Scope        string `json:"scope"`
}

func (r *TokenRequest) Normalize() {
	if r == nil {
		return
	}
	r.GrantType = strings.TrimSpace(r.GrantType)
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.Code = strings.TrimSpace(r.Code)
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
	r.Username = strings.TrimSpace(r.Username)
	r.Scope = strings.TrimSpace(r.Scope)
}

// Validate checks the parameters each grant requires. The grant type itself
// is validated by the caller so unknown grants map to unsupported_grant_type.
func (r *TokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidRequest, "request is required")
	}
	if r.ClientID == "" {
		return dErrors.New(dErrors.CodeInvalidRequest, "client_id is required")
	}
	switch GrantType(r.GrantType) {
	case GrantAuthorizationCode:
		if r.Code == "" {
			return dErrors.New(dErrors.CodeInvalidRequest, "code is required")
		}
	case GrantRefreshToken:
		if r.RefreshToken == "" {
			return dErrors.New(dErrors.CodeInvalidRequest, "refresh_token is required")
		}
	case GrantPassword:
		if r.Username == "" || r.Password == "" {
			return dErrors.New(dErrors.CodeInvalidRequest, "username and password are required")
		}
	}
	return nil
}

// TokenResult is the token endpoint success body.
type TokenResult struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}
