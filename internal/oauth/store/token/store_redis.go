package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/pkg/platform/sentinel"
)

var findByAccessDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "pds_oauth_token_lookup_duration_ms",
	Help:    "Latency of Redis access token lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	accessKeyPrefix  = "oauth:token:access:"
	refreshKeyPrefix = "oauth:token:refresh:"
)

// RedisTokenStore shares tokens across instances. Each record lives under
// its access token until the later of its two expiries; the refresh key maps
// back to the access token.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, token *models.Token) (*models.Token, error) {
	payload, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("marshal token: %w", err)
	}
	ttl := token.ExpiresAt().Sub(token.CreatedAt)
	if ttl <= 0 {
		return nil, fmt.Errorf("token already expired: %w", sentinel.ErrExpired)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, accessKeyPrefix+token.AccessToken, payload, ttl)
	if token.HasRefreshToken() {
		pipe.Set(ctx, refreshKeyPrefix+token.RefreshToken, token.AccessToken, token.RefreshTokenExpiresAt.Sub(token.CreatedAt))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("save token: %w: %w", sentinel.ErrUnavailable, err)
	}
	return token, nil
}

func (s *RedisTokenStore) FindByAccessToken(ctx context.Context, accessToken string) (*models.Token, error) {
	if accessToken == "" || accessToken == undefinedToken {
		return nil, fmt.Errorf("access token not found: %w", sentinel.ErrNotFound)
	}
	start := time.Now()
	defer func() {
		findByAccessDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()
	return s.load(ctx, accessToken)
}

func (s *RedisTokenStore) FindByRefreshToken(ctx context.Context, refreshToken string) (*models.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	accessToken, err := s.client.Get(ctx, refreshKeyPrefix+refreshToken).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w: %w", sentinel.ErrUnavailable, err)
	}
	return s.load(ctx, accessToken)
}

func (s *RedisTokenStore) load(ctx context.Context, accessToken string) (*models.Token, error) {
	payload, err := s.client.Get(ctx, accessKeyPrefix+accessToken).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("access token not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find access token: %w: %w", sentinel.ErrUnavailable, err)
	}
	var token models.Token
	if err := json.Unmarshal(payload, &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &token, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, token *models.Token) (bool, error) {
	pipe := s.client.TxPipeline()
	deleted := pipe.Del(ctx, accessKeyPrefix+token.AccessToken)
	if token.HasRefreshToken() {
		pipe.Del(ctx, refreshKeyPrefix+token.RefreshToken)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("revoke token: %w: %w", sentinel.ErrUnavailable, err)
	}
	return deleted.Val() > 0, nil
}

// DeleteExpiredTokens is a no-op: key TTLs evict expired records.
func (s *RedisTokenStore) DeleteExpiredTokens(context.Context, time.Time) (int, error) {
	return 0, nil
}
