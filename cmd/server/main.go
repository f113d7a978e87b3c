package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/auth"
	"github.com/oggyb/picfeed/internal/cache"
	"github.com/oggyb/picfeed/internal/config"
	"github.com/oggyb/picfeed/internal/db"
	"github.com/oggyb/picfeed/internal/events"
	"github.com/oggyb/picfeed/internal/logger"
	"github.com/oggyb/picfeed/internal/server"
	"github.com/oggyb/picfeed/internal/service/comments"
	"github.com/oggyb/picfeed/internal/service/follows"
	"github.com/oggyb/picfeed/internal/service/likes"
	"github.com/oggyb/picfeed/internal/service/posts"
	"github.com/oggyb/picfeed/internal/service/users"
	"github.com/oggyb/picfeed/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return err
	}
	defer redisCache.Close()

	// Events are optional; without NATS_URL they are dropped.
	var publisher events.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		np, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer np.Close()
		publisher = np
		log.Info("publishing domain events", "nats", cfg.NATS.URL)
	}

	store, err := storage.NewFileStore(cfg)
	if err != nil {
		return err
	}
	provider := auth.NewProviderFromConfig(cfg)

	appCtx := app.New(database, redisCache, log).
		WithEvents(publisher).
		WithStore(store).
		WithAuth(provider)

	registrars := []server.Registrar{
		posts.NewRegistrar(appCtx),
		likes.NewRegistrar(appCtx),
		follows.NewRegistrar(appCtx),
		comments.NewRegistrar(appCtx),
		users.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if _, err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	handler := server.NewHandler(cfg, provider, registrars...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartHTTPServer(gctx, cfg, handler)
	})
	g.Go(func() error {
		return server.StartGRPCServer(gctx, cfg, sqlDB.PingContext, 5*time.Second)
	})

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}
