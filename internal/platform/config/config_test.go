package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:2583", cfg.Identity.URL)
	assert.Equal(t, 2*time.Hour, cfg.OAuth.AccessTokenTTL)
	assert.Equal(t, 1440*time.Hour, cfg.OAuth.RefreshTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.OAuth.CodeTTL)
	assert.Equal(t, "email", cfg.OAuth.DefaultScope)
	assert.Equal(t, "application", cfg.Client.ID)
	assert.Equal(t, []string{"http://localhost:2583/client/app"}, cfg.Client.RedirectURIs)
	assert.Equal(t, []string{"authorization_code", "refresh_token"}, cfg.Client.Grants)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Postgres.URL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PDS_OAUTH_ADDR", ":9090")
	t.Setenv("PDS_OAUTH_HANDLE_DOMAINS", ".test,.example.com")
	t.Setenv("PDS_OAUTH_ACCESS_TOKEN_TTL", "30m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{".test", ".example.com"}, cfg.Identity.HandleDomains)
	assert.Equal(t, 30*time.Minute, cfg.OAuth.AccessTokenTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadErrors(t *testing.T) {
	t.Run("unparseable duration", func(t *testing.T) {
		t.Setenv("PDS_OAUTH_CODE_TTL", "soon")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})

	t.Run("non-positive lifetime", func(t *testing.T) {
		t.Setenv("PDS_OAUTH_REFRESH_TOKEN_TTL", "0s")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("negative cleanup interval", func(t *testing.T) {
		t.Setenv("PDS_OAUTH_CLEANUP_INTERVAL", "-1m")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestLoadZeroCleanupIntervalDisablesSweep(t *testing.T) {
	t.Setenv("PDS_OAUTH_CLEANUP_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.OAuth.CleanupInterval)
}
