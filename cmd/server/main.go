package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"pdsoauth/internal/handles"
	"pdsoauth/internal/identity"
	"pdsoauth/internal/oauth/cleanup"
	oauthhandler "pdsoauth/internal/oauth/handler"
	"pdsoauth/internal/oauth/service"
	codestore "pdsoauth/internal/oauth/store/authorization-code"
	clientstore "pdsoauth/internal/oauth/store/client"
	tokenstore "pdsoauth/internal/oauth/store/token"
	"pdsoauth/internal/platform/config"
	"pdsoauth/internal/platform/httpserver"
	"pdsoauth/internal/platform/logger"
	"pdsoauth/internal/platform/metrics"
	"pdsoauth/internal/platform/postgres"
	redisclient "pdsoauth/internal/platform/redis"
	"pdsoauth/pkg/platform/httputil"
	"pdsoauth/pkg/platform/middleware/metadata"
	"pdsoauth/pkg/platform/middleware/request"
	"pdsoauth/pkg/platform/middleware/requesttime"
)

// main loads configuration, wires the stores and services, and runs the
// HTTP server alongside the cleanup worker until a signal arrives.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type codeStore interface {
	service.CodeStore
	cleanup.CodeStore
}

type tokenStore interface {
	service.TokenStore
	cleanup.TokenStore
}

type clientStore interface {
	service.ClientStore
	clientstore.Creator
}

type infra struct {
	redis *redisclient.Client
	db    *sql.DB
}

func (i *infra) close(log *slog.Logger) {
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Error("failed to close redis", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Error("failed to close postgres", "error", err)
		}
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	m := metrics.New()

	var deps infra
	defer deps.close(log)

	var err error
	if deps.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if deps.db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	var (
		codes   codeStore
		tokens  tokenStore
		clients clientStore
	)
	if deps.redis != nil {
		log.Info("using redis code and token stores")
		codes = codestore.NewRedis(deps.redis.Client)
		tokens = tokenstore.NewRedis(deps.redis.Client)
	} else {
		log.Info("using in-memory code and token stores")
		codes = codestore.NewInMemory()
		tokens = tokenstore.NewInMemory()
	}
	if deps.db != nil {
		log.Info("using postgres client registry")
		clients = clientstore.NewPostgres(deps.db)
	} else {
		log.Info("using in-memory client registry")
		clients = clientstore.NewInMemory()
	}

	bootstrap, err := clientstore.SeedBootstrapClient(ctx, clients, cfg.Client, time.Now())
	if err != nil {
		return fmt.Errorf("seed bootstrap client: %w", err)
	}
	log.Info("bootstrap client registered",
		"client_id", bootstrap.ID,
		"confidential", bootstrap.IsConfidential(),
	)

	identityClient := identity.New(cfg.Identity.URL, cfg.Identity.Timeout, identity.WithObserver(m))
	oauthService := service.New(clients, codes, tokens, identityClient, service.Config{
		AccessTokenTTL:  cfg.OAuth.AccessTokenTTL,
		RefreshTokenTTL: cfg.OAuth.RefreshTokenTTL,
		CodeTTL:         cfg.OAuth.CodeTTL,
		DefaultScope:    cfg.OAuth.DefaultScope,
		LoginPath:       cfg.OAuth.LoginPath,
	}, service.WithLogger(log), service.WithMetrics(m))
	handleService := handles.NewService(identityClient, cfg.Identity.Hostname, cfg.Identity.HandleDomains, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	oauthhandler.New(oauthService, log).Register(r)
	handles.NewHandler(handleService).Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", healthHandler(&deps))

	worker := cleanup.New(codes, tokens, cfg.OAuth.CleanupInterval,
		cleanup.WithLogger(log),
		cleanup.WithObserver(m),
	)
	srv := httpserver.New(cfg.Server.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting pds oauth server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func healthHandler(deps *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if deps.redis != nil {
			status["redis"] = "ok"
			if err := deps.redis.Health(ctx); err != nil {
				status["redis"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if deps.db != nil {
			status["postgres"] = "ok"
			if err := deps.db.PingContext(ctx); err != nil {
				status["postgres"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, status)
	}
}
