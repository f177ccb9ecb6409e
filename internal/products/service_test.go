package product

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/proteinapura/storefront/internal/catalog"
	"github.com/proteinapura/storefront/pkg/db/dbtest"
	"github.com/proteinapura/storefront/pkg/db/models"
	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/proteinapura/storefront/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// sent maps body keys to whether they were sent as null.
type sent map[string]bool

func (s sent) Has(key string) bool    { _, ok := s[key]; return ok }
func (s sent) IsNull(key string) bool { return s[key] }

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func stringPtr(v string) *string    { return &v }
func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }

func newTestService(t *testing.T) (Service, *gorm.DB, *countingInvalidator) {
	t.Helper()
	conn := dbtest.Open(t)
	inv := &countingInvalidator{}
	svc, err := NewService(NewRepository(conn), catalog.NewRepository(conn), inv, metrics.NewAdminMetrics(prometheus.NewRegistry()), logger.Nop())
	require.NoError(t, err)
	return svc, conn, inv
}

func validCreate(categoria int64) CreateProductRequest {
	return CreateProductRequest{
		Nombre:        stringPtr("Whey Gold"),
		Precio:        float64Ptr(250000),
		Categoria:     int64Ptr(categoria),
		CantidadStock: int64Ptr(5),
	}
}

func TestCreateProductAppliesDefaults(t *testing.T) {
	svc, conn, inv := newTestService(t)
	cat := dbtest.SeedCategory(t, conn, "Proteínas", true)

	created, err := svc.CreateProduct(context.Background(), validCreate(cat.ID))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.IsActivo)
	assert.False(t, created.IsOferta)
	assert.Equal(t, "", created.URLImagen)
	assert.Nil(t, created.Descripcion)
	assert.Nil(t, created.Sabores)
	assert.Nil(t, created.GaleriaURLs)
	assert.Equal(t, 1, inv.calls)

	var stored models.Product
	require.NoError(t, conn.First(&stored, created.ID).Error)
	assert.True(t, stored.IsActivo)
	assert.Nil(t, stored.Sabores)
	assert.Equal(t, "250000", stored.Precio.String())
}

func TestCreateProductKeepsExplicitFalseAndEmptySaboresBecomeNull(t *testing.T) {
	svc, conn, _ := newTestService(t)
	cat := dbtest.SeedCategory(t, conn, "Proteínas", true)

	req := validCreate(cat.ID)
	req.IsActivo = boolPtr(false)
	req.IsOferta = boolPtr(true)
	req.Sabores = []int64{}
	req.GaleriaURLs = []string{"https://cdn.example.com/a.png"}

	created, err := svc.CreateProduct(context.Background(), req)
	require.NoError(t, err)

	var stored models.Product
	require.NoError(t, conn.First(&stored, created.ID).Error)
	assert.False(t, stored.IsActivo)
	assert.True(t, stored.IsOferta)
	assert.Nil(t, stored.Sabores)
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, []string(stored.GaleriaURLs))
}

func TestCreateProductRejectsMissingFields(t *testing.T) {
	svc, _, inv := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductRequest{Nombre: stringPtr("Whey")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Zero(t, inv.calls)
}

func TestUpdateProductOnlyTouchesSentFields(t *testing.T) {
	svc, conn, inv := newTestService(t)
	cat := dbtest.SeedCategory(t, conn, "Proteínas", true)
	p := dbtest.SeedProduct(t, conn, "Whey", 250000, cat.ID,
		dbtest.WithDescription("Aislada"), dbtest.WithFlavors(1, 2))

	updated, err := svc.UpdateProduct(context.Background(), UpdateProductRequest{
		ID:     int64Ptr(p.ID),
		Precio: float64Ptr(199000),
	}, sent{"id": false, "precio": false})
	require.NoError(t, err)
	assert.Equal(t, "199000", updated.Precio.String())
	require.NotNil(t, updated.Descripcion)
	assert.Equal(t, "Aislada", *updated.Descripcion)
	assert.Equal(t, []int64{1, 2}, []int64(updated.Sabores))
	assert.Equal(t, 1, inv.calls)
}

func TestUpdateProductClearsNullableFields(t *testing.T) {
	svc, conn, _ := newTestService(t)
	cat := dbtest.SeedCategory(t, conn, "Proteínas", true)
	p := dbtest.SeedProduct(t, conn, "Whey", 250000, cat.ID,
		dbtest.WithDescription("Aislada"), dbtest.WithFlavors(1, 2))

	updated, err := svc.UpdateProduct(context.Background(), UpdateProductRequest{
		ID:      int64Ptr(p.ID),
		Sabores: []int64{},
	}, sent{"id": false, "descripcion": true, "sabores": false, "galeria_urls": true})
	require.NoError(t, err)
	assert.Nil(t, updated.Descripcion)
	assert.Nil(t, updated.Sabores)
	assert.Nil(t, updated.GaleriaURLs)
	assert.Equal(t, "Whey", updated.Nombre)
}

func TestUpdateProductRejectsNullOnRequiredColumn(t *testing.T) {
	svc, conn, _ := newTestService(t)
	cat := dbtest.SeedCategory(t, conn, "Proteínas", true)
	p := dbtest.SeedProduct(t, conn, "Whey", 250000, cat.ID)

	_, err := svc.UpdateProduct(context.Background(), UpdateProductRequest{ID: int64Ptr(p.ID)},
		sent{"id": false, "nombre": true})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"nombre": "must not be null"}, typed.Details())
}

func TestUpdateProductUnknownIDIsStoreRejected(t *testing.T) {
	svc, _, inv := newTestService(t)

	_, err := svc.UpdateProduct(context.Background(), UpdateProductRequest{
		ID:     int64Ptr(404),
		Nombre: stringPtr("Nada"),
	}, sent{"id": false, "nombre": false})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStoreRejected, pkgerrors.As(err).Code())
	assert.True(t, errors.Is(err, ErrNoRows))
	assert.Zero(t, inv.calls)

	_, err = svc.UpdateProduct(context.Background(), UpdateProductRequest{ID: int64Ptr(404)}, sent{"id": false})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestDeleteProduct(t *testing.T) {
	svc, conn, inv := newTestService(t)
	cat := dbtest.SeedCategory(t, conn, "Proteínas", true)
	p := dbtest.SeedProduct(t, conn, "Whey", 250000, cat.ID)

	require.NoError(t, svc.DeleteProduct(context.Background(), int64Ptr(p.ID)))
	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 1, inv.calls)

	err := svc.DeleteProduct(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	require.NoError(t, svc.DeleteProduct(context.Background(), int64Ptr(999)))
}

func TestListProductsIncludesInactiveNewestFirst(t *testing.T) {
	svc, conn, _ := newTestService(t)
	cat := dbtest.SeedCategory(t, conn, "Proteínas", true)
	dbtest.SeedProduct(t, conn, "Primero", 100000, cat.ID)
	dbtest.SeedProduct(t, conn, "Oculto", 100000, cat.ID, dbtest.Inactive())

	rows, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Oculto", rows[0].Nombre)
}

func TestAdminReferenceReads(t *testing.T) {
	svc, conn, _ := newTestService(t)
	dbtest.SeedCategory(t, conn, "Vitaminas", true)
	dbtest.SeedCategory(t, conn, "Archivada", false)
	dbtest.SeedFlavor(t, conn, "Vainilla")

	cats, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Archivada", cats[0].Descripcion)

	flavors, err := svc.ListFlavors(context.Background())
	require.NoError(t, err)
	assert.Len(t, flavors, 1)
}

func TestStoreRejectedMapsForeignKey(t *testing.T) {
	err := storeRejected(errors.New(`ERROR: insert or update on table "productos" violates foreign key constraint "productos_categoria_fkey"`))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStoreRejected, typed.Code())
	assert.Equal(t, "categoria does not exist", typed.Message())
}
