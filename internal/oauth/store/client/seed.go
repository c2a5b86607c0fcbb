package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/internal/oauth/secrets"
	"pdsoauth/internal/platform/config"
	"pdsoauth/pkg/platform/sentinel"
)

// Creator is the write side of a client registry.
type Creator interface {
	Create(ctx context.Context, client *models.Client) error
}

// SeedBootstrapClient registers the configured client unless a client with
// the same ID already exists.
func SeedBootstrapClient(ctx context.Context, store Creator, cfg config.BootstrapClient, now time.Time) (*models.Client, error) {
	grants, err := models.ParseGrantTypes(cfg.Grants)
	if err != nil {
		return nil, fmt.Errorf("bootstrap client grants: %w", err)
	}
	var secretHash string
	if cfg.Secret != "" {
		if secretHash, err = secrets.Hash(cfg.Secret); err != nil {
			return nil, fmt.Errorf("bootstrap client secret: %w", err)
		}
	}
	client, err := models.NewClient(cfg.ID, secretHash, grants, cfg.RedirectURIs, now)
	if err != nil {
		return nil, fmt.Errorf("bootstrap client: %w", err)
	}
	if err := store.Create(ctx, client); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return nil, err
	}
	return client, nil
}
