package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/socialpulse/backend/internal/config"
	"github.com/socialpulse/backend/internal/db"
	"github.com/socialpulse/backend/internal/handler"
	"github.com/socialpulse/backend/internal/janitor"
	"github.com/socialpulse/backend/internal/logging"
	"github.com/socialpulse/backend/internal/security"
	"github.com/socialpulse/backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New("socialpulse", cfg.Server.LogLevel)
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	repo := db.NewPostgres(pool)
	if err := repo.EnsureAuthSchema(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure auth schema")
	}
	if err := repo.EnsureChatSchema(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure chat schema")
	}
	if err := repo.EnsureWorkflowSchema(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure workflow schema")
	}

	blacklist, err := newBlacklist(cfg, pool, log)
	if err != nil {
		log.WithError(err).Fatal("invalid revocation store config")
	}
	defer func() {
		if err := blacklist.Close(); err != nil {
			log.WithError(err).Warn("failed to close revocation store")
		}
	}()

	purger := janitor.New(blacklist, 0, log)
	if err := purger.Start(cfg.Revocation.PurgeSpec); err != nil {
		log.WithError(err).Fatal("failed to start revocation janitor")
	}
	defer purger.Stop()

	authService, err := service.NewAuthService(repo, security.NewHasher(bcrypt.DefaultCost), blacklist, cfg.Auth, log)
	if err != nil {
		log.WithError(err).Fatal("failed to configure auth")
	}
	if cfg.Auth.AdminUsername != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			log.WithError(err).Fatal("failed to ensure admin user")
		}
	}

	router := handler.NewRouter(handler.RouterDeps{
		Auth:             authService,
		Chat:             service.NewChatService(repo),
		Workflows:        service.NewWorkflowService(repo),
		Blacklist:        blacklist,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: cfg.Server.AllowCredentials,
		Logger:           log,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}

func newBlacklist(appCfg config.Config, pool *pgxpool.Pool, log logrus.FieldLogger) (*security.Blacklist, error) {
	cfg := appCfg.Revocation

	var dial security.Dialer
	if dbURL, err := db.BuildPostgresURL(appCfg.Postgres); err == nil && cfg.StoreURL == dbURL {
		// Same database as the app: reuse its pool.
		dial = security.PoolDialer(pool)
	} else {
		dial, err = security.DialerForURL(cfg.StoreURL)
		if err != nil {
			return nil, err
		}
	}

	maxEntries, err := strconv.Atoi(cfg.MaxEntries)
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return security.NewBlacklist(security.BlacklistOptions{
		MaxEntries: maxEntries,
		Timeout:    timeout,
		Dial:       dial,
		Logger:     log,
	}), nil
}
