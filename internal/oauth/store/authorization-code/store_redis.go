package authorizationcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/pkg/platform/sentinel"
)

const (
	codeKeyPrefix = "oauth:code:"

	// expiryGrace keeps an expired code readable long enough for the token
	// endpoint to report it as expired rather than unknown.
	expiryGrace = time.Minute
)

// RedisAuthorizationCodeStore shares authorization codes across instances.
// Records are stored as JSON under a key whose TTL outlives the code by
// expiryGrace.
type RedisAuthorizationCodeStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisAuthorizationCodeStore {
	return &RedisAuthorizationCodeStore{client: client}
}

func (s *RedisAuthorizationCodeStore) Create(ctx context.Context, code *models.AuthorizationCode) error {
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("marshal authorization code: %w", err)
	}
	ttl := code.ExpiresAt.Sub(code.CreatedAt) + expiryGrace
	created, err := s.client.SetNX(ctx, codeKeyPrefix+code.Code, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("store authorization code: %w: %w", sentinel.ErrUnavailable, err)
	}
	if !created {
		return fmt.Errorf("authorization code already stored: %w", sentinel.ErrConflict)
	}
	return nil
}

// Consume uses GETDEL so only one caller can ever read a given code.
func (s *RedisAuthorizationCodeStore) Consume(ctx context.Context, code string) (*models.AuthorizationCode, error) {
	payload, err := s.client.GetDel(ctx, codeKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("consume authorization code: %w: %w", sentinel.ErrUnavailable, err)
	}
	var record models.AuthorizationCode
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode authorization code: %w", err)
	}
	return &record, nil
}

func (s *RedisAuthorizationCodeStore) Revoke(ctx context.Context, code string) (bool, error) {
	deleted, err := s.client.Del(ctx, codeKeyPrefix+code).Result()
	if err != nil {
		return false, fmt.Errorf("revoke authorization code: %w: %w", sentinel.ErrUnavailable, err)
	}
	return deleted > 0, nil
}

// DeleteExpiredCodes is a no-op: key TTLs evict codes shortly after expiry.
func (s *RedisAuthorizationCodeStore) DeleteExpiredCodes(context.Context, time.Time) (int, error) {
	return 0, nil
}
