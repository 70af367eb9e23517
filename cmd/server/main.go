// Command authgate-server serves the session-gated auth API over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/config"
	"github.com/and161185/authgate/internal/cookie"
	"github.com/and161185/authgate/internal/crypto"
	"github.com/and161185/authgate/internal/gate"
	"github.com/and161185/authgate/internal/migrate"
	"github.com/and161185/authgate/internal/model"
	"github.com/and161185/authgate/internal/repository"
	"github.com/and161185/authgate/internal/repository/memory"
	"github.com/and161185/authgate/internal/repository/postgres"
	httpserver "github.com/and161185/authgate/internal/server/http"
	"github.com/and161185/authgate/internal/service"
	"github.com/and161185/authgate/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, prepares the store and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.Bool("merged_gate", cfg.MergedGate),
		zap.Bool("sliding_session", cfg.SlidingSession),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var users repository.UserRepository
	if cfg.DSN == "" {
		logger.Warn("DATABASE_DSN is empty, using the in-memory store")
		users = memory.NewUserRepo()
	} else {
		if err := migrate.Up(ctx, cfg.DSN, logger); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer db.Close()
		users = postgres.NewUserRepo(db)
	}

	hasher, err := crypto.New(cfg.PasswordHash, cfg.BcryptCost)
	if err != nil {
		logger.Fatal("hasher", zap.Error(err))
	}
	cookies, err := cookie.NewCodec(cfg.SecretKey, hasher)
	if err != nil {
		logger.Fatal("cookie codec", zap.Error(err))
	}
	tokens := token.NewCodec([]byte(cfg.SecretKey), token.TTLs{
		Access:          cfg.AccessTTL,
		Refresh:         cfg.RefreshTTL,
		OneTimePassword: cfg.OTPTTL,
	})
	bundler := token.NewBundler(tokens, cookies)

	authSvc := service.NewAuthService(users, hasher, bundler)

	gin.SetMode(cfg.GinMode)
	router := httpserver.NewRouter(authSvc, httpserver.Options{
		Gates: gate.Config{
			Allow:            gate.DefaultAllowlist(),
			Cookies:          cookies,
			Users:            users,
			Tokens:           tokens,
			Issuer:           bundler,
			Log:              logger,
			EnforceTokenType: cfg.EnforceTokenType,
			Sliding:          cfg.SlidingSession,
			OnSessionExpired: func(_ context.Context, u *model.Identity) {
				logger.Info("session expired", zap.Int64("user_id", u.ID))
			},
		},
		Merged:      cfg.MergedGate,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Log:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
