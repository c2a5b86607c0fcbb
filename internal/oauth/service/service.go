package service

import (
	"context"
	"log/slog"
	"time"

	"pdsoauth/internal/oauth/models"
	"pdsoauth/internal/platform/metrics"
)

type ClientStore interface {
	FindByID(ctx context.Context, clientID string) (*models.Client, error)
}

type CodeStore interface {
	Create(ctx context.Context, code *models.AuthorizationCode) error
	Consume(ctx context.Context, code string) (*models.AuthorizationCode, error)
	Revoke(ctx context.Context, code string) (bool, error)
}

type TokenStore interface {
	Save(ctx context.Context, token *models.Token) (*models.Token, error)
	FindByAccessToken(ctx context.Context, accessToken string) (*models.Token, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*models.Token, error)
	Revoke(ctx context.Context, token *models.Token) (bool, error)
}

// SessionBridge exchanges user credentials with the identity service.
type SessionBridge interface {
	ExchangePassword(ctx context.Context, username, password string) (*models.SessionCredentials, error)
	ExchangeRefresh(ctx context.Context, refreshToken string) (*models.SessionCredentials, error)
}

// Config holds lifetimes and defaults for issued grants. Zero values fall
// back to the package defaults.
type Config struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CodeTTL         time.Duration
	DefaultScope    string
	LoginPath       string
}

const (
	DefaultAccessTokenTTL  = 2 * time.Hour
	DefaultRefreshTokenTTL = 1440 * time.Hour
	DefaultCodeTTL         = 5 * time.Minute
	DefaultScope           = "email"
	DefaultLoginPath       = "/oauth"
)

// Service runs the OAuth2 grants on top of the identity service. Every
// access and refresh token it returns is a credential the identity service
// issued; it never generates token strings of its own.
type Service struct {
	clients ClientStore
	codes   CodeStore
	tokens  TokenStore
	bridge  SessionBridge
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(clients ClientStore, codes CodeStore, tokens TokenStore, bridge SessionBridge, cfg Config, opts ...Option) *Service {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}
	if cfg.DefaultScope == "" {
		cfg.DefaultScope = DefaultScope
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	s := &Service{
		clients: clients,
		codes:   codes,
		tokens:  tokens,
		bridge:  bridge,
		cfg:     cfg,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
