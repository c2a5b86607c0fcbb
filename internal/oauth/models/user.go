package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionCredentials is the credential pair issued by the identity service.
// AccessToken and RefreshToken are re-issued verbatim as the OAuth tokens.
type SessionCredentials struct {
	AccessToken  string `json:"access_jwt"`
	RefreshToken string `json:"refresh_jwt"`
}

// User is the resource owner a code or token is bound to.
type User struct {
	// Subject is the account DID taken from the access credential; empty when
	// the credential is not a JWT.
	Subject     string             `json:"sub,omitempty"`
	Credentials SessionCredentials `json:"credentials"`
}

// NewUser binds a user to the credentials the identity service just issued.
// The JWT is decoded without verification: the identity service is its
// issuer and remains the only party that validates it.
func NewUser(credentials *SessionCredentials) User {
	return User{
		Subject:     subjectOf(credentials.AccessToken),
		Credentials: *credentials,
	}
}

func subjectOf(accessJWT string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessJWT, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
