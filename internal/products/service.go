package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/proteinapura/storefront/pkg/db"
	"github.com/proteinapura/storefront/pkg/db/models"
	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/proteinapura/storefront/pkg/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const categoryFKConstraint = "productos_categoria_fkey"

// Service exposes admin product management operations.
type Service interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, input CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, input UpdateProductRequest, present Presence) (*models.Product, error)
	DeleteProduct(ctx context.Context, id *int64) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListFlavors(ctx context.Context) ([]models.Flavor, error)
}

// Presence reports which top-level keys a patch body carried.
type Presence interface {
	Has(key string) bool
	IsNull(key string) bool
}

type productStore interface {
	List(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, id int64, updates map[string]any) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

type referenceReader interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	ListFlavors(ctx context.Context) ([]models.Flavor, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type service struct {
	repo    productStore
	refs    referenceReader
	catalog cacheInvalidator
	metrics *metrics.AdminMetrics
	logg    *logger.Logger
}

// NewService wires the admin product service. catalog may be nil when no cache is in use.
func NewService(repo productStore, refs referenceReader, catalog cacheInvalidator, m *metrics.AdminMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference reader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, refs: refs, catalog: catalog, metrics: m, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list products")
	}
	if rows == nil {
		rows = []models.Product{}
	}
	return rows, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductRequest) (*models.Product, error) {
	if input.Nombre == nil || input.Precio == nil || input.Categoria == nil || input.CantidadStock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre, precio, categoria and cantidad_stock are required")
	}

	p := &models.Product{
		Nombre:        *input.Nombre,
		Descripcion:   input.Descripcion,
		Precio:        decimal.NewFromFloat(*input.Precio),
		Categoria:     *input.Categoria,
		IsActivo:      boolOr(input.IsActivo, true),
		IsOferta:      boolOr(input.IsOferta, false),
		CantidadStock: *input.CantidadStock,
		URLImagen:     stringOr(input.URLImagen, ""),
	}
	if len(input.Sabores) > 0 {
		p.Sabores = pq.Int64Array(input.Sabores)
	}
	if input.GaleriaURLs != nil {
		p.GaleriaURLs = pq.StringArray(input.GaleriaURLs)
	}

	created, err := s.repo.Create(ctx, p)
	s.metrics.Mutation("product_create", err)
	if err != nil {
		return nil, storeRejected(err)
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, input UpdateProductRequest, present Presence) (*models.Product, error) {
	if input.ID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"id": "is required"})
	}
	updates, err := buildUpdates(input, present)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithField(ctx, "product_id", *input.ID)
	updated, err := s.repo.Update(ctx, *input.ID, updates)
	s.metrics.Mutation("product_update", err)
	if err != nil {
		return nil, storeRejected(err)
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id *int64) error {
	if id == nil || *id == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "id is required").
			WithDetails(map[string]string{"id": "is required"})
	}
	ctx = s.logg.WithField(ctx, "product_id", *id)
	err := s.repo.Delete(ctx, *id)
	s.metrics.Mutation("product_delete", err)
	if err != nil {
		return storeRejected(err)
	}
	s.invalidate(ctx)
	return nil
}

// ListCategories returns every category, inactive ones included, for the admin form.
func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.refs.ListCategories(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list categories")
	}
	if rows == nil {
		rows = []models.Category{}
	}
	return rows, nil
}

func (s *service) ListFlavors(ctx context.Context) ([]models.Flavor, error) {
	rows, err := s.refs.ListFlavors(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list flavors")
	}
	if rows == nil {
		rows = []models.Flavor{}
	}
	return rows, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog invalidation after admin write failed")
	}
}

// buildUpdates maps the keys present in a patch body onto column updates. Nullable columns
// sent as null (or, for sabores, empty) are cleared.
func buildUpdates(input UpdateProductRequest, present Presence) (map[string]any, error) {
	if present == nil {
		present = inferPresence(input)
	}

	details := map[string]string{}
	for _, key := range nonNullable {
		if present.IsNull(key) {
			details[key] = "must not be null"
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	null := gorm.Expr("NULL")
	updates := map[string]any{}
	if input.Nombre != nil {
		updates["nombre"] = *input.Nombre
	}
	if present.Has("descripcion") {
		if input.Descripcion == nil {
			updates["descripcion"] = null
		} else {
			updates["descripcion"] = *input.Descripcion
		}
	}
	if input.Precio != nil {
		updates["precio"] = decimal.NewFromFloat(*input.Precio)
	}
	if input.Categoria != nil {
		updates["categoria"] = *input.Categoria
	}
	if input.IsActivo != nil {
		updates["isActivo"] = *input.IsActivo
	}
	if input.IsOferta != nil {
		updates["isOferta"] = *input.IsOferta
	}
	if input.CantidadStock != nil {
		updates["cantidad_stock"] = *input.CantidadStock
	}
	if present.Has("sabores") {
		if len(input.Sabores) == 0 {
			updates["sabores"] = null
		} else {
			updates["sabores"] = pq.Int64Array(input.Sabores)
		}
	}
	if input.URLImagen != nil {
		updates["url_imagen"] = *input.URLImagen
	}
	if present.Has("galeria_urls") {
		if input.GaleriaURLs == nil {
			updates["galeria_urls"] = null
		} else {
			updates["galeria_urls"] = pq.StringArray(input.GaleriaURLs)
		}
	}
	return updates, nil
}

// inferPresence treats every non-nil field as sent. Used when the caller has no raw body.
func inferPresence(input UpdateProductRequest) Presence {
	keys := presenceSet{}
	if input.Descripcion != nil {
		keys["descripcion"] = struct{}{}
	}
	if input.Sabores != nil {
		keys["sabores"] = struct{}{}
	}
	if input.GaleriaURLs != nil {
		keys["galeria_urls"] = struct{}{}
	}
	return keys
}

type presenceSet map[string]struct{}

func (p presenceSet) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p presenceSet) IsNull(string) bool { return false }

func storeRejected(err error) error {
	switch {
	case errors.Is(err, ErrNoRows):
		return pkgerrors.Wrap(pkgerrors.CodeStoreRejected, err, ErrNoRows.Error())
	case db.IsForeignKeyViolation(err, categoryFKConstraint):
		return pkgerrors.Wrap(pkgerrors.CodeStoreRejected, err, "categoria does not exist")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeStoreRejected, err, err.Error())
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
