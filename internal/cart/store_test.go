package cart

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/proteinapura/storefront/pkg/db/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, nombre string, precio int64) models.ProductDetail {
	return models.ProductDetail{Product: models.Product{ID: id, Nombre: nombre, Precio: decimal.NewFromInt(precio)}}
}

func flavor(id int64, desc string) *models.Flavor {
	return &models.Flavor{ID: id, Descripcion: desc}
}

func idPtr(v int64) *int64 { return &v }

func loadedStore(t *testing.T) (*Store, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	s := NewStore(storage, nil)
	s.Load()
	return s, storage
}

func persisted(t *testing.T, storage Storage) []LineItem {
	t.Helper()
	raw, ok, err := storage.GetItem(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var items []LineItem
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}

func TestAddToCartMergesByProductAndFlavor(t *testing.T) {
	s, storage := loadedStore(t)
	whey := product(1, "Whey", 10000)
	creatina := product(2, "Creatina", 5000)

	s.AddToCart(whey, flavor(7, "Vainilla"))
	s.AddToCart(whey, flavor(7, "Vainilla"))
	s.AddToCart(creatina, nil)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Vainilla", items[0].SaborSeleccionado.Descripcion)
	assert.Nil(t, items[1].SaborSeleccionado)

	assert.True(t, s.CartTotal().Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, 3, s.CartItemsCount())

	saved := persisted(t, storage)
	require.Len(t, saved, 2)
	assert.Equal(t, 2, saved[0].Quantity)
}

func TestSameProductDifferentFlavorIsSeparateLine(t *testing.T) {
	s, _ := loadedStore(t)
	whey := product(1, "Whey", 10000)

	s.AddToCart(whey, flavor(7, "Vainilla"))
	s.AddToCart(whey, flavor(8, "Chocolate"))
	s.AddToCart(whey, nil)

	assert.Len(t, s.Items(), 3)
	assert.Equal(t, 3, s.CartItemsCount())
}

func TestRemoveAndUpdateQuantity(t *testing.T) {
	s, storage := loadedStore(t)
	whey := product(1, "Whey", 10000)
	s.AddToCart(whey, flavor(7, "Vainilla"))
	s.AddToCart(whey, nil)

	s.UpdateQuantity(1, idPtr(7), 4)
	assert.Equal(t, 5, s.CartItemsCount())

	s.UpdateQuantity(99, nil, 3)
	assert.Equal(t, 5, s.CartItemsCount())

	s.UpdateQuantity(1, nil, 0)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].SaborSeleccionado.ID)

	s.RemoveFromCart(1, idPtr(7))
	assert.Empty(t, s.Items())
	assert.True(t, s.CartTotal().IsZero())

	s.RemoveFromCart(1, nil)
	raw, ok, err := storage.GetItem(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestClearCartWritesEmptyList(t *testing.T) {
	s, storage := loadedStore(t)
	s.AddToCart(product(1, "Whey", 10000), nil)
	s.ClearCart()

	assert.Zero(t, s.CartItemsCount())
	raw, _, _ := storage.GetItem(StorageKey)
	assert.Equal(t, "[]", raw)
}

func TestNoWritesBeforeLoad(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.SetItem(StorageKey, `[{"producto":{"id":3,"nombre":"Guardado","precio":1000},"quantity":2}]`))

	s := NewStore(storage, nil)
	assert.False(t, s.Loaded())
	s.ClearCart()
	s.AddToCart(product(1, "Whey", 10000), nil)

	raw, _, _ := storage.GetItem(StorageKey)
	assert.Contains(t, raw, "Guardado")

	s.Load()
	assert.True(t, s.Loaded())
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Guardado", items[0].Producto.Nombre)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, s.CartTotal().Equal(decimal.NewFromInt(2000)))
}

func TestLoadDiscardsCorruptState(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":  "{oops",
		"not array": `{"producto":1}`,
		"null":      "null",
	} {
		t.Run(name, func(t *testing.T) {
			storage := NewMemoryStorage()
			require.NoError(t, storage.SetItem(StorageKey, raw))

			s := NewStore(storage, nil)
			s.Load()

			assert.Empty(t, s.Items())
			_, ok, _ := storage.GetItem(StorageKey)
			assert.False(t, ok)
		})
	}
}

func TestLoadDropsInvalidLines(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.SetItem(StorageKey, `[null,{"producto":{"id":2},"quantity":0},{"producto":{"id":0,"nombre":"x"},"quantity":3},{"producto":{"id":5,"nombre":"Whey","precio":1000},"quantity":2}]`))

	s := NewStore(storage, nil)
	s.Load()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].Producto.ID)
	assert.Equal(t, 2, s.CartItemsCount())

	saved := persisted(t, storage)
	require.Len(t, saved, 1)
	assert.Equal(t, int64(5), saved[0].Producto.ID)
}

func TestAddToCartKeepsSnapshot(t *testing.T) {
	s, _ := loadedStore(t)
	desc := "Proteína de suero"
	p := models.ProductDetail{
		Product: models.Product{
			ID: 1, Nombre: "Whey", Precio: decimal.NewFromInt(10000), Descripcion: &desc,
			Sabores: []int64{3}, GaleriaURLs: []string{"https://cdn/a.jpg"},
		},
		CategoriaInfo: &models.Category{ID: 10, Descripcion: "Proteínas"},
		SaboresInfo:   []models.Flavor{{ID: 3, Descripcion: "Vainilla"}},
	}
	s.AddToCart(p, nil)

	p.Precio = decimal.NewFromInt(99000)
	p.Nombre = "Otro"
	desc = "cambiada"
	p.Sabores[0] = 9
	p.GaleriaURLs[0] = "https://cdn/b.jpg"
	p.CategoriaInfo.Descripcion = "Otra"
	p.SaboresInfo[0].Descripcion = "Chocolate"

	assert.True(t, s.CartTotal().Equal(decimal.NewFromInt(10000)))
	line := s.Items()[0].Producto
	assert.Equal(t, "Whey", line.Nombre)
	assert.Equal(t, "Proteína de suero", *line.Descripcion)
	assert.Equal(t, int64(3), line.Sabores[0])
	assert.Equal(t, "https://cdn/a.jpg", line.GaleriaURLs[0])
	assert.Equal(t, "Proteínas", line.CategoriaInfo.Descripcion)
	assert.Equal(t, "Vainilla", line.SaboresInfo[0].Descripcion)

	s.AddToCart(p, nil)
	assert.Equal(t, 2, s.CartItemsCount())
	assert.True(t, s.CartTotal().Equal(decimal.NewFromInt(20000)))
}

type brokenStorage struct{}

func (brokenStorage) GetItem(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (brokenStorage) SetItem(string, string) error          { return errors.New("disk gone") }
func (brokenStorage) RemoveItem(string) error               { return errors.New("disk gone") }

func TestStorageErrorsAreSwallowed(t *testing.T) {
	s := NewStore(brokenStorage{}, nil)
	s.Load()
	s.AddToCart(product(1, "Whey", 10000), nil)
	assert.Equal(t, 1, s.CartItemsCount())
}

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	fs := NewFileStorage(path)

	_, ok, err := fs.GetItem(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	s := NewStore(fs, nil)
	s.Load()
	s.AddToCart(product(1, "Whey", 10000), flavor(2, "Frutilla"))

	reopened := NewStore(NewFileStorage(path), nil)
	reopened.Load()
	items := reopened.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Frutilla", items[0].SaborSeleccionado.Descripcion)
	assert.True(t, items[0].Producto.Precio.Equal(decimal.NewFromInt(10000)))

	require.NoError(t, fs.RemoveItem(StorageKey))
	_, ok, err = fs.GetItem(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
