package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	appidentity "github.com/storefront/backend/internal/application/identity"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/query"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := persistence.Open(cfg, log)
	if err != nil {
		return err
	}

	blacklist := newBlacklist(ctx, cfg, log)
	tokens := auth.NewJWTManager(cfg.JWT)
	registry := query.NewRegistry(cfg.App.Env, cfg.Query)

	users := persistence.NewUserRepository(db)
	products := persistence.NewProductRepository(db)
	categories := persistence.NewCategoryRepository(db)
	orders := persistence.NewOrderRepository(db)

	catalogSvc := appcatalog.NewService(db, products, categories, registry, cfg.Query.Timeout, log.Named("catalog"))
	orderSvc := apporder.NewService(db, orders, products, registry, cfg.Query.Timeout, log.Named("order"))
	identitySvc := appidentity.NewService(users, tokens, blacklist, log.Named("identity"))

	engine := router.New(router.Dependencies{
		Config:    cfg,
		Log:       log,
		Auth:      handler.NewAuthHandler(identitySvc, log),
		Catalog:   handler.NewCatalogHandler(catalogSvc, log),
		Orders:    handler.NewOrderHandler(orderSvc, log),
		Tokens:    tokens,
		Blacklist: blacklist,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newBlacklist connects the Redis-backed token blacklist, falling back to a
// noop when Redis is unreachable so a cache outage never takes auth down.
func newBlacklist(ctx context.Context, cfg *config.Config, log *zap.Logger) auth.TokenBlacklist {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, token revocation disabled", zap.Error(err))
		return auth.NoopTokenBlacklist{}
	}
	return auth.NewRedisTokenBlacklist(client)
}
