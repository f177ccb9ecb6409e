package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/proteinapura/storefront/pkg/db/models"
	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/proteinapura/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// DefaultFeaturedLimit is used when ListFeaturedProducts receives a non-positive limit.
const DefaultFeaturedLimit = 6

type store interface {
	ListProducts(ctx context.Context, q ProductQuery) ([]models.ProductDetail, error)
	GetProduct(ctx context.Context, id int64, activeOnly bool) (*models.ProductDetail, error)
	FlavorsByIDs(ctx context.Context, ids []int64) ([]models.Flavor, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	ListFlavors(ctx context.Context) ([]models.Flavor, error)
}

// Service serves storefront catalog reads. List methods never return a nil slice: on failure
// they log, return an empty slice and a wrapped error.
type Service struct {
	repo  store
	cache Cache
	logg  *logger.Logger
	group singleflight.Group
}

// NewService builds the catalog service. cache may be nil to read straight from the database.
func NewService(repo store, cache Cache, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *Service) ListActiveProducts(ctx context.Context) ([]models.ProductDetail, error) {
	items, err := s.products(ctx, "products:active", ProductQuery{})
	return orEmpty(ctx, s.logg, "catalog.list_active_products", items, err)
}

func (s *Service) ListProductsByCategory(ctx context.Context, categoryID int64) ([]models.ProductDetail, error) {
	key := "products:category:" + strconv.FormatInt(categoryID, 10)
	items, err := s.products(ctx, key, ProductQuery{CategoryID: &categoryID})
	ctx = s.logg.WithField(ctx, "categoria", categoryID)
	return orEmpty(ctx, s.logg, "catalog.list_products_by_category", items, err)
}

func (s *Service) ListFeaturedProducts(ctx context.Context, limit int) ([]models.ProductDetail, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	key := "products:featured:" + strconv.Itoa(limit)
	items, err := s.products(ctx, key, ProductQuery{OnSaleOnly: true, Limit: limit})
	return orEmpty(ctx, s.logg, "catalog.list_featured_products", items, err)
}

func (s *Service) SearchProducts(ctx context.Context, query string) ([]models.ProductDetail, error) {
	term := strings.TrimSpace(query)
	key := "products:search:" + strings.ToLower(term)
	items, err := s.products(ctx, key, ProductQuery{Search: term})
	ctx = s.logg.WithField(ctx, "query", term)
	return orEmpty(ctx, s.logg, "catalog.search_products", items, err)
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	items, err := readThrough(ctx, s, "categories:active", func(ctx context.Context) ([]models.Category, bool, error) {
		items, err := s.repo.ListCategories(ctx, true)
		return items, true, err
	})
	return orEmpty(ctx, s.logg, "catalog.list_categories", items, err)
}

func (s *Service) ListFlavors(ctx context.Context) ([]models.Flavor, error) {
	items, err := readThrough(ctx, s, "flavors", func(ctx context.Context) ([]models.Flavor, bool, error) {
		items, err := s.repo.ListFlavors(ctx)
		return items, true, err
	})
	return orEmpty(ctx, s.logg, "catalog.list_flavors", items, err)
}

// GetProduct returns a single active product with its category and flavors.
func (s *Service) GetProduct(ctx context.Context, id int64) (*models.ProductDetail, error) {
	key := "product:" + strconv.FormatInt(id, 10)
	item, err := readThrough(ctx, s, key, func(ctx context.Context) (*models.ProductDetail, bool, error) {
		row, err := s.repo.GetProduct(ctx, id, true)
		if err != nil {
			return nil, false, err
		}
		rows := []models.ProductDetail{*row}
		complete := s.attachFlavors(ctx, rows)
		return &rows[0], complete, nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		ctx = s.logg.WithField(ctx, "product_id", id)
		s.logg.Error(ctx, "catalog.get_product", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	return item, nil
}

// Invalidate drops cached catalog results. It is a no-op without a cache.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog cache invalidation failed")
		return err
	}
	return nil
}

func (s *Service) products(ctx context.Context, key string, q ProductQuery) ([]models.ProductDetail, error) {
	return readThrough(ctx, s, key, func(ctx context.Context) ([]models.ProductDetail, bool, error) {
		rows, err := s.repo.ListProducts(ctx, q)
		if err != nil {
			return nil, false, err
		}
		return rows, s.attachFlavors(ctx, rows), nil
	})
}

// attachFlavors fills SaboresInfo for every row from one batched lookup. A failed lookup
// leaves the flavors empty rather than failing the listing, and reports false.
func (s *Service) attachFlavors(ctx context.Context, rows []models.ProductDetail) bool {
	complete := true
	byID := map[int64]models.Flavor{}
	if ids := flavorRefs(rows); len(ids) > 0 {
		flavors, err := s.repo.FlavorsByIDs(ctx, ids)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "flavor lookup failed")
			complete = false
		}
		for _, f := range flavors {
			byID[f.ID] = f
		}
	}
	for i := range rows {
		rows[i].SaboresInfo = joinFlavors(rows[i].Sabores, byID)
	}
	return complete
}

// readThrough serves key from the cache when possible and collapses concurrent misses.
// Results that load reports as incomplete are returned but never cached.
func readThrough[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, bool, error)) (T, error) {
	if s.cache != nil {
		var cached T
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "catalog cache read failed")
		}
		if hit {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		res, cacheable, err := load(ctx)
		if err != nil {
			return res, err
		}
		switch {
		case s.cache == nil:
		case !cacheable:
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "skipping cache write for partial catalog result")
		default:
			if err := s.cache.Set(ctx, key, res); err != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "catalog cache write failed")
			}
		}
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func orEmpty[T any](ctx context.Context, logg *logger.Logger, op string, items []T, err error) ([]T, error) {
	if err != nil {
		logg.Error(ctx, op, err)
		return []T{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load catalog")
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
