package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/pkg/platform/sentinel"
)

// PostgresStore persists client registrations in the oauth_clients table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, client *models.Client) error {
	grants := make([]string, len(client.Grants))
	for i, grant := range client.Grants {
		grants[i] = grant.String()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_clients (client_id, secret_hash, grants, redirect_uris, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id) DO NOTHING
	`, client.ID, client.SecretHash, pq.Array(grants), pq.Array(client.RedirectURIs), client.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	if inserted == 0 {
		return fmt.Errorf("client %q already registered: %w", client.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID string) (*models.Client, error) {
	var (
		client models.Client
		grants []string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT client_id, secret_hash, grants, redirect_uris, created_at
		FROM oauth_clients
		WHERE client_id = $1
	`, clientID).Scan(&client.ID, &client.SecretHash, pq.Array(&grants), pq.Array(&client.RedirectURIs), &client.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find client: %w: %w", sentinel.ErrUnavailable, err)
	}
	client.Grants = make([]models.GrantType, len(grants))
	for i, grant := range grants {
		client.Grants[i] = models.GrantType(grant)
	}
	return &client, nil
}
