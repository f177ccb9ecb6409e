package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/proteinapura/storefront/api/responses"
	"github.com/proteinapura/storefront/api/validators"
	"github.com/proteinapura/storefront/internal/catalog"
	"github.com/proteinapura/storefront/pkg/db/models"
	"github.com/proteinapura/storefront/pkg/logger"
)

const maxFeaturedLimit = 48

// CatalogReader is the read side the public storefront routes need.
type CatalogReader interface {
	ListActiveProducts(ctx context.Context) ([]models.ProductDetail, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]models.ProductDetail, error)
	ListFeaturedProducts(ctx context.Context, limit int) ([]models.ProductDetail, error)
	SearchProducts(ctx context.Context, query string) ([]models.ProductDetail, error)
	GetProduct(ctx context.Context, id int64) (*models.ProductDetail, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListFlavors(ctx context.Context) ([]models.Flavor, error)
}

var _ CatalogReader = (*catalog.Service)(nil)

func ListProducts(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return listHandler(logg, func(r *http.Request) (any, error) {
		return svc.ListActiveProducts(r.Context())
	})
}

// FeaturedProducts honours ?limit=, defaulting to the catalog's featured size.
func FeaturedProducts(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return listHandler(logg, func(r *http.Request) (any, error) {
		limit, err := validators.ParseQueryInt(r, "limit", catalog.DefaultFeaturedLimit, 1, maxFeaturedLimit)
		if err != nil {
			return nil, err
		}
		return svc.ListFeaturedProducts(r.Context(), limit)
	})
}

// SearchProducts matches ?q= against name and description. A blank query lists everything.
func SearchProducts(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return listHandler(logg, func(r *http.Request) (any, error) {
		q := validators.SanitizeString(r.URL.Query().Get("q"), 100)
		if strings.TrimSpace(q) == "" {
			return svc.ListActiveProducts(r.Context())
		}
		return svc.SearchProducts(r.Context(), q)
	})
}

func CategoryProducts(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return listHandler(logg, func(r *http.Request) (any, error) {
		id, err := validators.ParseID(chi.URLParam(r, "categoryId"), "categoryId")
		if err != nil {
			return nil, err
		}
		return svc.ListProductsByCategory(r.Context(), id)
	})
}

func GetProduct(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return listHandler(logg, func(r *http.Request) (any, error) {
		id, err := validators.ParseID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			return nil, err
		}
		return svc.GetProduct(r.Context(), id)
	})
}

func ListCategories(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return listHandler(logg, func(r *http.Request) (any, error) {
		return svc.ListCategories(r.Context())
	})
}

func ListFlavors(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return listHandler(logg, func(r *http.Request) (any, error) {
		return svc.ListFlavors(r.Context())
	})
}

func listHandler(logg *logger.Logger, load func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := load(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, data)
	}
}
