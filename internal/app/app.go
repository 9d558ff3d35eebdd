package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/image-tracker/internal/cache"
	"github.com/vadimbarashkov/image-tracker/internal/config"
	"github.com/vadimbarashkov/image-tracker/internal/database/postgres"
	"github.com/vadimbarashkov/image-tracker/internal/service"
	"github.com/vadimbarashkov/image-tracker/internal/storage"
	pkgpostgres "github.com/vadimbarashkov/image-tracker/pkg/postgres"
	pkgredis "github.com/vadimbarashkov/image-tracker/pkg/redis"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/vadimbarashkov/image-tracker/internal/api/http"
)

// Run wires the application together and serves HTTP until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := setupLogger(cfg.Env)

	db, err := pkgpostgres.New(
		ctx,
		cfg.Postgres.DSN(),
		pkgpostgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pkgpostgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pkgpostgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pkgpostgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pkgpostgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	var linkCache service.ShortLinkCache
	if cfg.Redis.Host != "" {
		redisClient, err := pkgredis.New(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}
		defer redisClient.Close()

		linkCache = cache.NewShortLinkCache(redisClient, cfg.Redis.TTL)
	}

	store, closeStore, err := setupStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("%s: failed to set up storage: %w", op, err)
	}
	defer closeStore()

	baseURL, err := url.Parse(cfg.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("%s: invalid public base url: %w", op, err)
	}

	accessRepo := postgres.NewAccessRepository(db)
	shortenedRepo := postgres.NewShortenedURLRepository(db)
	statsRepo := postgres.NewStatsRepository(db)

	trackerSvc := service.NewTrackerService(accessRepo, &http.Client{Timeout: 30 * time.Second}, logger.Logger)
	shortenerSvc := service.NewShortenerService(shortenedRepo, linkCache, cfg.ShortIDLength)
	uploadSvc := service.NewUploadService(
		store,
		accessRepo,
		logger.Logger,
		cfg.PublicBaseURL,
		cfg.Upload.MaxFileSize,
		cfg.Upload.AllowedTypes,
	)
	statsSvc := service.NewStatsService(statsRepo, accessRepo, baseURL.Host)

	router := myhttp.NewRouter(logger, cfg.PublicBaseURL, trackerSvc, shortenerSvc, uploadSvc, statsSvc)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func setupLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	}

	switch env {
	case config.EnvStage:
		opts.JSON = true
	case config.EnvProd:
		opts.JSON = true
		opts.LogLevel = slog.LevelInfo
	}

	return httplog.NewLogger("image-tracker", opts)
}

func setupStorage(ctx context.Context, cfg config.Storage) (storage.Store, func(), error) {
	switch cfg.Driver {
	case config.StorageDriverNATS:
		store, err := storage.NewJetStreamStore(ctx, cfg.NATS.URL, cfg.NATS.Bucket)
		if err != nil {
			return nil, nil, err
		}

		return store, func() { _ = store.Close() }, nil
	case config.StorageDriverLocal:
		store, err := storage.NewLocalStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}
