package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bimora/portal/internal/auth"
	"github.com/bimora/portal/internal/config"
	"github.com/bimora/portal/internal/crypto"
	"github.com/bimora/portal/internal/imagehost"
	"github.com/bimora/portal/internal/review"
	"github.com/bimora/portal/internal/security"
	"github.com/bimora/portal/internal/store"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const sweepInterval = time.Minute

type App struct {
	config  *config.Config
	logger  *slog.Logger
	backend *store.Backend

	counter      security.Counter
	localCounter *security.MemoryCounter
	redis        *redis.Client

	tokens  *auth.TokenService
	auth    *auth.Service
	reviews *review.Service
	images  *imagehost.Client
}

func (app *App) Close() {
	if err := app.backend.Close(); err != nil {
		app.logger.Warn("closing storage", "err", err)
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
}

func New(ctx context.Context, args []string) (*App, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)
	for _, w := range cfg.Warnings {
		logger.Warn("config: " + w)
	}

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	app, err := newApp(cfg, logger, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		client, err := security.ConnectRedis(ctx, cfg.RedisURL)
		switch {
		case err == nil:
			app.redis = client
			app.counter = security.NewRedisCounter(client, "ratelimit:")
			app.localCounter = nil
			logger.Info("rate limits shared through redis")
		case cfg.IsProduction():
			backend.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		default:
			logger.Warn("redis unavailable, rate limits are process-local", "err", err)
		}
	}

	auth.SeedFirstAdmin(ctx, backend.Admins, cfg.SeedAdminUsername, cfg.SeedAdminPassword)

	return app, nil
}

// newApp wires services over backend with process-local rate limiting.
func newApp(cfg *config.Config, logger *slog.Logger, backend *store.Backend) (*App, error) {
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)

	authSvc, err := auth.NewService(backend.Admins, tokens, auth.Options{
		Passphrase: cfg.AdminPassword,
		BcryptCost: cfg.BcryptCost,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	local := security.NewMemoryCounter()

	return &App{
		config:       cfg,
		logger:       logger,
		backend:      backend,
		counter:      local,
		localCounter: local,
		tokens:       tokens,
		auth:         authSvc,
		reviews:      review.NewService(backend.Reviews, backend.Sellers, logger),
		images:       imagehost.New(cfg.ImageHostURL),
	}, nil
}

func (app *App) Start(ctx context.Context) error {
	// Create an errgroup derived from the parent context
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "storage", app.backend.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	if app.localCounter != nil {
		g.Go(func() error {
			return app.localCounter.Run(gctx, sweepInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done() // Wait for OS signal or parent context to fail

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

// openBackend connects to the configured database. Without one, or when it
// is unreachable outside production, records live in process memory.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Backend, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory storage; data is lost on restart")
		return store.NewMemoryBackend(), nil
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if cfg.IsProduction() {
			return nil, err
		}
		logger.Warn("database unavailable, falling back to in-memory storage", "err", err)
		return store.NewMemoryBackend(), nil
	}

	crypter, err := crypto.New(crypto.DeriveKey(cfg.SubscriberEncryptionKey))
	if err != nil {
		db.Close()
		return nil, err
	}
	return store.NewSQLBackend(db, crypter, crypto.DeriveKey(cfg.EmailHMACKey)), nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
