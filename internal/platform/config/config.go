package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the complete process configuration, loaded from the environment.
type Config struct {
	Server   Server
	Identity Identity
	OAuth    OAuth
	Client   BootstrapClient
	Redis    RedisConfig
	Postgres PostgresConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"PDS_OAUTH_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"PDS_OAUTH_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"PDS_OAUTH_LOG_LEVEL"        envDefault:"info"`
}

// Identity points at the PDS that owns user accounts and sessions.
type Identity struct {
	URL           string        `env:"PDS_OAUTH_IDENTITY_URL"     envDefault:"http://localhost:2583"`
	Timeout       time.Duration `env:"PDS_OAUTH_IDENTITY_TIMEOUT" envDefault:"10s"`
	Hostname      string        `env:"PDS_OAUTH_HOSTNAME"         envDefault:"localhost"`
	HandleDomains []string      `env:"PDS_OAUTH_HANDLE_DOMAINS"   envSeparator:","`
}

// OAuth holds token lifetimes and grant defaults.
type OAuth struct {
	AccessTokenTTL  time.Duration `env:"PDS_OAUTH_ACCESS_TOKEN_TTL"  envDefault:"2h"`
	RefreshTokenTTL time.Duration `env:"PDS_OAUTH_REFRESH_TOKEN_TTL" envDefault:"1440h"`
	CodeTTL         time.Duration `env:"PDS_OAUTH_CODE_TTL"          envDefault:"5m"`
	DefaultScope    string        `env:"PDS_OAUTH_DEFAULT_SCOPE"     envDefault:"email"`
	// CleanupInterval of zero disables the expired record sweep.
	CleanupInterval time.Duration `env:"PDS_OAUTH_CLEANUP_INTERVAL"  envDefault:"1m"`
	LoginPath       string        `env:"PDS_OAUTH_LOGIN_PATH"        envDefault:"/oauth"`
}

// BootstrapClient is registered at startup when no client registry holds it yet.
type BootstrapClient struct {
	ID           string   `env:"PDS_OAUTH_CLIENT_ID"            envDefault:"application"`
	Secret       string   `env:"PDS_OAUTH_CLIENT_SECRET"`
	RedirectURIs []string `env:"PDS_OAUTH_CLIENT_REDIRECT_URIS" envSeparator:"," envDefault:"http://localhost:2583/client/app"`
	Grants       []string `env:"PDS_OAUTH_CLIENT_GRANTS"        envSeparator:"," envDefault:"authorization_code,refresh_token"`
}

// RedisConfig configures the optional Redis backend for codes and tokens.
// An empty URL keeps both stores in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
}

// PostgresConfig configures the optional Postgres client registry.
type PostgresConfig struct {
	URL          string        `env:"DATABASE_URL"`
	MaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLife  time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Identity.URL == "" {
		return errors.New("PDS_OAUTH_IDENTITY_URL is required")
	}
	if c.OAuth.AccessTokenTTL <= 0 || c.OAuth.RefreshTokenTTL <= 0 || c.OAuth.CodeTTL <= 0 {
		return errors.New("token and code lifetimes must be positive")
	}
	if c.OAuth.CleanupInterval < 0 {
		return errors.New("PDS_OAUTH_CLEANUP_INTERVAL cannot be negative")
	}
	if c.Client.ID == "" {
		return errors.New("PDS_OAUTH_CLIENT_ID is required")
	}
	return nil
}
