package models

import (
	"slices"
	"time"

	dErrors "pdsoauth/pkg/domain-errors"
	"pdsoauth/pkg/platform/strings"
)

// Client is an OAuth2 client registration.
//
// Invariants:
//   - ID is non-empty
//   - Grants and RedirectURIs are non-empty and deduplicated
//   - a client without SecretHash is public and authenticates by ID alone
//
// Clients are immutable after registration.
type Client struct {
	ID           string      `json:"client_id"`
	SecretHash   string      `json:"-"` // bcrypt hash, never serialized
	Grants       []GrantType `json:"grants"`
	RedirectURIs []string    `json:"redirect_uris"`
	CreatedAt    time.Time   `json:"created_at"`
}

func NewClient(id string, secretHash string, grants []GrantType, redirectURIs []string, now time.Time) (*Client, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "client_id cannot be empty")
	}
	redirectURIs = strings.DedupeAndTrim(redirectURIs)
	if len(redirectURIs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "redirect_uris cannot be empty")
	}
	if len(grants) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "grants cannot be empty")
	}
	unique := make([]GrantType, 0, len(grants))
	for _, grant := range grants {
		if !grant.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvalidRequest, "invalid grant: "+string(grant))
		}
		if !slices.Contains(unique, grant) {
			unique = append(unique, grant)
		}
	}
	return &Client{
		ID:           id,
		SecretHash:   secretHash,
		Grants:       unique,
		RedirectURIs: redirectURIs,
		CreatedAt:    now,
	}, nil
}

// IsConfidential reports whether the client was registered with a secret.
func (c *Client) IsConfidential() bool {
	return c.SecretHash != ""
}

func (c *Client) AllowsGrant(grant GrantType) bool {
	return slices.Contains(c.Grants, grant)
}

// AllowsRedirectURI requires an exact match against a registered URI.
func (c *Client) AllowsRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// DefaultRedirectURI is used when an authorize request omits redirect_uri.
func (c *Client) DefaultRedirectURI() string {
	if len(c.RedirectURIs) == 0 {
		return ""
	}
	return c.RedirectURIs[0]
}

// ParseGrantTypes converts configured grant names, rejecting unknown ones.
func ParseGrantTypes(names []string) ([]GrantType, error) {
	grants := make([]GrantType, 0, len(names))
	for _, name := range strings.DedupeAndTrim(names) {
		grant := GrantType(name)
		if !grant.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvalidRequest, "invalid grant: "+name)
		}
		grants = append(grants, grant)
	}
	return grants, nil
}
