package models

// GrantType is an OAuth2 grant a client may be registered for.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantPassword          GrantType = "password"
)

func (g GrantType) IsValid() bool {
	switch g {
	case GrantAuthorizationCode, GrantRefreshToken, GrantPassword:
		return true
	}
	return false
}

func (g GrantType) String() string {
	return string(g)
}

// ResponseTypeCode is the only response_type the authorize endpoint serves.
const ResponseTypeCode = "code"

// TokenTypeBearer is the token_type of every issued token.
const TokenTypeBearer = "bearer"
