package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/pkg/platform/sentinel"
)

// undefinedToken is what some clients send when they have no token at all.
const undefinedToken = "undefined"

// InMemoryTokenStore keeps tokens keyed by access token with a refresh token
// index.
type InMemoryTokenStore struct {
	mu        sync.RWMutex
	byAccess  map[string]*models.Token
	byRefresh map[string]string
}

func NewInMemory() *InMemoryTokenStore {
	return &InMemoryTokenStore{
		byAccess:  make(map[string]*models.Token),
		byRefresh: make(map[string]string),
	}
}

// Save creates or overwrites the record for token.AccessToken.
func (s *InMemoryTokenStore) Save(_ context.Context, token *models.Token) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if previous, ok := s.byAccess[token.AccessToken]; ok && previous.RefreshToken != token.RefreshToken {
		delete(s.byRefresh, previous.RefreshToken)
	}
	s.byAccess[token.AccessToken] = token
	if token.HasRefreshToken() {
		s.byRefresh[token.RefreshToken] = token.AccessToken
	}
	return token, nil
}

func (s *InMemoryTokenStore) FindByAccessToken(_ context.Context, accessToken string) (*models.Token, error) {
	if accessToken == "" || accessToken == undefinedToken {
		return nil, fmt.Errorf("access token not found: %w", sentinel.ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.byAccess[accessToken]
	if !ok {
		return nil, fmt.Errorf("access token not found: %w", sentinel.ErrNotFound)
	}
	return token, nil
}

func (s *InMemoryTokenStore) FindByRefreshToken(_ context.Context, refreshToken string) (*models.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	accessToken, ok := s.byRefresh[refreshToken]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	token, ok := s.byAccess[accessToken]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	return token, nil
}

// Revoke removes the token and its refresh index, reporting whether the
// access record existed.
func (s *InMemoryTokenStore) Revoke(_ context.Context, token *models.Token) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.byAccess[token.AccessToken]
	delete(s.byAccess, token.AccessToken)
	if token.HasRefreshToken() && s.byRefresh[token.RefreshToken] == token.AccessToken {
		delete(s.byRefresh, token.RefreshToken)
	}
	return existed, nil
}

// DeleteExpiredTokens removes records whose access and refresh tokens have
// both expired.
func (s *InMemoryTokenStore) DeleteExpiredTokens(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for accessToken, token := range s.byAccess {
		if now.Before(token.ExpiresAt()) {
			continue
		}
		delete(s.byAccess, accessToken)
		if token.HasRefreshToken() && s.byRefresh[token.RefreshToken] == accessToken {
			delete(s.byRefresh, token.RefreshToken)
		}
		deleted++
	}
	return deleted, nil
}
