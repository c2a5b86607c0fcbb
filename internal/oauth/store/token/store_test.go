package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/pkg/platform/sentinel"
)

type tokenStore interface {
	Save(ctx context.Context, token *models.Token) (*models.Token, error)
	FindByAccessToken(ctx context.Context, accessToken string) (*models.Token, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*models.Token, error)
	Revoke(ctx context.Context, token *models.Token) (bool, error)
}

type TokenStoreSuite struct {
	suite.Suite
	newStore func() tokenStore
	store    tokenStore
	now      time.Time
}

func (s *TokenStoreSuite) SetupTest() {
	s.store = s.newStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestInMemoryTokenStoreSuite(t *testing.T) {
	suite.Run(t, &TokenStoreSuite{newStore: func() tokenStore { return NewInMemory() }})
}

func TestRedisTokenStoreSuite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	suite.Run(t, &TokenStoreSuite{newStore: func() tokenStore {
		mr.FlushAll()
		return NewRedis(client)
	}})
}

func (s *TokenStoreSuite) newToken(access, refresh string) *models.Token {
	user := models.NewUser(&models.SessionCredentials{AccessToken: access, RefreshToken: refresh})
	return models.NewToken(&models.Client{ID: "application"}, user, "email", s.now, 2*time.Hour, 1440*time.Hour)
}

func (s *TokenStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	saved, err := s.store.Save(ctx, s.newToken("access-1", "refresh-1"))
	s.Require().NoError(err)
	s.Equal("access-1", saved.AccessToken)

	byAccess, err := s.store.FindByAccessToken(ctx, "access-1")
	s.Require().NoError(err)
	s.Equal("refresh-1", byAccess.RefreshToken)
	s.Equal("application", byAccess.ClientID)
	s.True(byAccess.AccessTokenExpiresAt.Equal(s.now.Add(2 * time.Hour)))

	byRefresh, err := s.store.FindByRefreshToken(ctx, "refresh-1")
	s.Require().NoError(err)
	s.Equal("access-1", byRefresh.AccessToken)
}

func (s *TokenStoreSuite) TestNotFound() {
	ctx := context.Background()
	for _, value := range []string{"", "undefined", "unknown"} {
		_, err := s.store.FindByAccessToken(ctx, value)
		s.ErrorIs(err, sentinel.ErrNotFound, "access token %q", value)
	}
	_, err := s.store.FindByRefreshToken(ctx, "unknown")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TokenStoreSuite) TestRevoke() {
	ctx := context.Background()
	token := s.newToken("access-2", "refresh-2")
	_, err := s.store.Save(ctx, token)
	s.Require().NoError(err)

	removed, err := s.store.Revoke(ctx, token)
	s.Require().NoError(err)
	s.True(removed)

	_, err = s.store.FindByAccessToken(ctx, "access-2")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByRefreshToken(ctx, "refresh-2")
	s.ErrorIs(err, sentinel.ErrNotFound)

	removed, err = s.store.Revoke(ctx, token)
	s.Require().NoError(err)
	s.False(removed)
}

func (s *TokenStoreSuite) TestSaveOverwrites() {
	ctx := context.Background()
	_, err := s.store.Save(ctx, s.newToken("access-3", "refresh-3"))
	s.Require().NoError(err)

	replacement := s.newToken("access-3", "refresh-3b")
	replacement.Scope = "email profile"
	_, err = s.store.Save(ctx, replacement)
	s.Require().NoError(err)

	found, err := s.store.FindByAccessToken(ctx, "access-3")
	s.Require().NoError(err)
	s.Equal("email profile", found.Scope)
	s.Equal("refresh-3b", found.RefreshToken)
}

func TestInMemoryDeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemory()
	client := &models.Client{ID: "application"}

	refreshable := models.NewToken(client, models.NewUser(&models.SessionCredentials{AccessToken: "a1", RefreshToken: "r1"}), "email", now, time.Hour, 24*time.Hour)
	accessOnly := models.NewToken(client, models.NewUser(&models.SessionCredentials{AccessToken: "a2"}), "email", now, time.Hour, 24*time.Hour)
	for _, token := range []*models.Token{refreshable, accessOnly} {
		if _, err := store.Save(ctx, token); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.DeleteExpiredTokens(ctx, now.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("expected only the access-only token removed, got %d", deleted)
	}
	if _, err := store.FindByRefreshToken(ctx, "r1"); err != nil {
		t.Fatalf("refreshable token should survive until refresh expiry: %v", err)
	}

	deleted, _ = store.DeleteExpiredTokens(ctx, now.Add(24*time.Hour))
	if deleted != 1 {
		t.Fatalf("expected refreshable token removed after refresh expiry, got %d", deleted)
	}
}

func TestRedisTokenKeyTTLs(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedis(client)

	now := time.Now()
	user := models.NewUser(&models.SessionCredentials{AccessToken: "a", RefreshToken: "r"})
	token := models.NewToken(&models.Client{ID: "application"}, user, "email", now, 2*time.Hour, 1440*time.Hour)
	if _, err := store.Save(context.Background(), token); err != nil {
		t.Fatal(err)
	}

	if ttl := mr.TTL(accessKeyPrefix + "a"); ttl != 1440*time.Hour {
		t.Fatalf("access record ttl %s", ttl)
	}
	if ttl := mr.TTL(refreshKeyPrefix + "r"); ttl != 1440*time.Hour {
		t.Fatalf("refresh index ttl %s", ttl)
	}
}

func TestRedisTokenStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedis(client)
	mr.Close()

	ctx := context.Background()
	now := time.Now()
	token := &models.Token{
		AccessToken:           "a",
		AccessTokenExpiresAt:  now.Add(time.Hour),
		RefreshToken:          "r",
		RefreshTokenExpiresAt: now.Add(2 * time.Hour),
		ClientID:              "application",
		CreatedAt:             now,
	}
	if _, err := store.Save(ctx, token); !errors.Is(err, sentinel.ErrUnavailable) {
		t.Fatalf("save: expected unavailable, got %v", err)
	}
	if _, err := store.FindByAccessToken(ctx, "a"); !errors.Is(err, sentinel.ErrUnavailable) {
		t.Fatalf("find access: expected unavailable, got %v", err)
	}
	if _, err := store.FindByRefreshToken(ctx, "r"); !errors.Is(err, sentinel.ErrUnavailable) {
		t.Fatalf("find refresh: expected unavailable, got %v", err)
	}
	if _, err := store.Revoke(ctx, token); !errors.Is(err, sentinel.ErrUnavailable) {
		t.Fatalf("revoke: expected unavailable, got %v", err)
	}
}
