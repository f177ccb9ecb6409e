package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/proteinapura/storefront/api/routes"
	"github.com/proteinapura/storefront/internal/catalog"
	"github.com/proteinapura/storefront/internal/media"
	productsvc "github.com/proteinapura/storefront/internal/products"
	"github.com/proteinapura/storefront/pkg/auth"
	"github.com/proteinapura/storefront/pkg/config"
	"github.com/proteinapura/storefront/pkg/db"
	"github.com/proteinapura/storefront/pkg/env"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/proteinapura/storefront/pkg/metrics"
	"github.com/proteinapura/storefront/pkg/migrate"
	"github.com/proteinapura/storefront/pkg/redis"
	"github.com/proteinapura/storefront/pkg/storage/supabase"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, catalog cache and admin rate limit disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(reg)
	adminMetrics := metrics.NewAdminMetrics(reg)
	cacheMetrics := metrics.NewCacheMetrics(reg)

	var cache catalog.Cache
	if redisClient != nil {
		redisCache, err := catalog.NewRedisCache(redisClient, cfg.Catalog.CacheTTL, cacheMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create catalog cache", err)
			os.Exit(1)
		}
		cache = redisCache
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, cache, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(
		productsvc.NewRepository(dbClient.DB()),
		catalogRepo,
		catalogService,
		adminMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	storageClient, err := supabase.NewClient(cfg.Supabase, cfg.HTTP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create storage client", err)
		os.Exit(1)
	}
	mediaService, err := media.NewService(storageClient, cfg.Storage.Bucket, adminMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	if len(cfg.Admin.AllowList()) == 0 {
		logg.Warn(context.Background(), "admin allow-list is empty, any authenticated user can reach /admin")
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			reg,
			httpMetrics,
			adminMetrics,
			dbClient,
			redisClient,
			auth.NewVerifier(cfg.Supabase, cfg.HTTP, logg),
			catalogService,
			productService,
			mediaService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"api": func(shutdownCtx context.Context) error {
				logg.Info(ctx, "shutting down api server")
				err := server.Shutdown(shutdownCtx)
				err = multierr.Append(err, dbClient.Close())
				if redisClient != nil {
					err = multierr.Append(err, redisClient.Close())
				}
				return multierr.Append(err, storageClient.Close())
			},
		},
	)

	exitCode := <-wait
	logg.Info(ctx, "api server exited")
	os.Exit(exitCode)
}
