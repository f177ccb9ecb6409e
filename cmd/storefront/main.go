package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/proteinapura/storefront/internal/cart"
	"github.com/proteinapura/storefront/internal/catalog"
	"github.com/proteinapura/storefront/pkg/config"
	"github.com/proteinapura/storefront/pkg/db"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/proteinapura/storefront/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "storefront", Level: logger.ParseLevel("warn"), Output: os.Stderr})

	_ = godotenv.Load()

	storagePath := flag.String("storage", defaultStoragePath(), "file holding the cart and checkout contact")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	cfg, err := config.LoadClient()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	var (
		cache       catalog.Cache
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		redisCache, err := catalog.NewRedisCache(redisClient, cfg.Catalog.CacheTTL, nil)
		requireResource(ctx, logg, "catalog cache", err)
		cache = redisCache
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), cache, logg)
	requireResource(ctx, logg, "catalog service", err)

	storage := cart.NewFileStorage(*storagePath)
	c := &client{
		catalog:  catalogService,
		cart:     cart.NewStore(storage, logg),
		contacts: cart.NewContactStore(storage, logg),
		phone:    cfg.Store.Phone,
		out:      os.Stdout,
	}
	c.cart.Load()

	runErr := c.run(ctx, flag.Args())

	closeErr := dbClient.Close()
	if redisClient != nil {
		closeErr = multierr.Append(closeErr, redisClient.Close())
	}
	if closeErr != nil {
		logg.Warn(ctx, "error releasing resources: "+closeErr.Error())
	}

	if runErr != nil {
		if errors.Is(runErr, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".proteina", "storage.json")
	}
	return filepath.Join(home, ".proteina", "storage.json")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
