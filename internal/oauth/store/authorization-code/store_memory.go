package authorizationcode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/pkg/platform/sentinel"
)

// Error Contract:
// - ErrNotFound when the code does not exist or was already consumed
// - ErrConflict when Create is called with a code that is already stored
// - expiry is not judged here; callers validate the consumed record

// InMemoryAuthorizationCodeStore stores authorization codes in memory for
// single-instance deployments and tests.
type InMemoryAuthorizationCodeStore struct {
	mu    sync.Mutex
	codes map[string]*models.AuthorizationCode
}

// NewInMemory constructs an empty in-memory code store.
func NewInMemory() *InMemoryAuthorizationCodeStore {
	return &InMemoryAuthorizationCodeStore{
		codes: make(map[string]*models.AuthorizationCode),
	}
}

func (s *InMemoryAuthorizationCodeStore) Create(_ context.Context, code *models.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codes[code.Code]; exists {
		return fmt.Errorf("authorization code already stored: %w", sentinel.ErrConflict)
	}
	s.codes[code.Code] = code
	return nil
}

// Consume removes the code and returns it. Of any number of concurrent
// callers for the same code, exactly one receives the record.
func (s *InMemoryAuthorizationCodeStore) Consume(_ context.Context, code string) (*models.AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.codes[code]
	if !ok {
		return nil, fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
	}
	delete(s.codes, code)
	return record, nil
}

// Revoke deletes the code and reports whether it existed.
func (s *InMemoryAuthorizationCodeStore) Revoke(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[code]; !ok {
		return false, nil
	}
	delete(s.codes, code)
	return true, nil
}

// DeleteExpiredCodes removes every code expired as of now.
func (s *InMemoryAuthorizationCodeStore) DeleteExpiredCodes(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for code, record := range s.codes {
		if record.IsExpired(now) {
			delete(s.codes, code)
			deleted++
		}
	}
	return deleted, nil
}
