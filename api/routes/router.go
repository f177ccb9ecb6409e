package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/proteinapura/storefront/api/controllers"
	"github.com/proteinapura/storefront/api/middleware"
	"github.com/proteinapura/storefront/internal/media"
	productsvc "github.com/proteinapura/storefront/internal/products"
	"github.com/proteinapura/storefront/pkg/auth"
	"github.com/proteinapura/storefront/pkg/config"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/proteinapura/storefront/pkg/metrics"
	"github.com/proteinapura/storefront/pkg/redis"
)

type rateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope, id string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	adminMetrics *metrics.AdminMetrics,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	verifier auth.Verifier,
	catalogService controllers.CatalogReader,
	productService productsvc.Service,
	mediaService media.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	// Interfaces stay nil when redis is off so the probes and limiter skip it.
	var (
		redisPinger controllers.Pinger
		limiter     rateLimitStore
	)
	if redisClient != nil {
		redisPinger = redisClient
		limiter = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(catalogService, logg))
		r.Get("/products/featured", controllers.FeaturedProducts(catalogService, logg))
		r.Get("/products/search", controllers.SearchProducts(catalogService, logg))
		r.Get("/products/{productId}", controllers.GetProduct(catalogService, logg))
		r.Get("/categories", controllers.ListCategories(catalogService, logg))
		r.Get("/categories/{categoryId}/products", controllers.CategoryProducts(catalogService, logg))
		r.Get("/flavors", controllers.ListFlavors(catalogService, logg))
	})

	adminPolicy := middleware.NewRateLimitPolicy("admin", cfg.Admin.RateWindow, cfg.Admin.RateLimit).
		TrustingProxy(cfg.Admin.TrustProxy)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RateLimit(adminPolicy, limiter, logg))
		r.Use(middleware.AdminAuth(verifier, cfg.Admin.AllowList(), adminMetrics, logg))

		r.Get("/products", controllers.AdminListProducts(productService, logg))
		r.Post("/products", controllers.AdminCreateProduct(productService, logg))
		r.Patch("/products", controllers.AdminUpdateProduct(productService, logg))
		r.Delete("/products", controllers.AdminDeleteProduct(productService, logg))
		r.Get("/categories", controllers.AdminListCategories(productService, logg))
		r.Get("/flavors", controllers.AdminListFlavors(productService, logg))
		r.Post("/upload", controllers.AdminUpload(mediaService, cfg.Storage.MaxUploadBytes(), logg))
		r.Post("/upload-url", controllers.AdminUploadURL(mediaService, logg))
	})

	return r
}
