package client

import (
	"context"
	"fmt"
	"sync"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/pkg/platform/sentinel"
)

// InMemory is a client registry held in process memory.
type InMemory struct {
	mu      sync.RWMutex
	clients map[string]*models.Client
}

func NewInMemory() *InMemory {
	return &InMemory{clients: make(map[string]*models.Client)}
}

// Create registers a client; an existing client ID is left untouched.
func (s *InMemory) Create(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[client.ID]; exists {
		return fmt.Errorf("client %q already registered: %w", client.ID, sentinel.ErrConflict)
	}
	s.clients[client.ID] = client
	return nil
}

func (s *InMemory) FindByID(_ context.Context, clientID string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	return client, nil
}
