// Package dbtest opens throwaway sqlite databases carrying the storefront schema.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/proteinapura/storefront/pkg/db/models"
)

var schema = []string{
	`CREATE TABLE categorias (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		descripcion TEXT NOT NULL,
		"isActivo" BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE sabores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		descripcion TEXT NOT NULL
	)`,
	`CREATE TABLE productos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT NOT NULL,
		descripcion TEXT,
		precio NUMERIC NOT NULL CHECK (precio >= 0),
		categoria INTEGER NOT NULL,
		"isActivo" BOOLEAN NOT NULL DEFAULT 1,
		"isOferta" BOOLEAN NOT NULL DEFAULT 0,
		cantidad_stock INTEGER NOT NULL DEFAULT 0 CHECK (cantidad_stock >= 0),
		sabores TEXT,
		url_imagen TEXT NOT NULL DEFAULT '',
		galeria_urls TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Open returns an in-memory database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func SeedCategory(t testing.TB, conn *gorm.DB, descripcion string, active bool) models.Category {
	t.Helper()
	c := models.Category{Descripcion: descripcion, IsActivo: active}
	if err := conn.Create(&c).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedFlavor(t testing.TB, conn *gorm.DB, descripcion string) models.Flavor {
	t.Helper()
	f := models.Flavor{Descripcion: descripcion}
	if err := conn.Create(&f).Error; err != nil {
		t.Fatalf("seed flavor: %v", err)
	}
	return f
}

// ProductOption tweaks a seeded product before insert.
type ProductOption func(*models.Product)

func WithFlavors(ids ...int64) ProductOption {
	return func(p *models.Product) { p.Sabores = ids }
}

func Inactive() ProductOption {
	return func(p *models.Product) { p.IsActivo = false }
}

func OnSale() ProductOption {
	return func(p *models.Product) { p.IsOferta = true }
}

func CreatedAt(ts time.Time) ProductOption {
	return func(p *models.Product) { p.CreatedAt = ts }
}

func WithDescription(d string) ProductOption {
	return func(p *models.Product) { p.Descripcion = &d }
}

// SeedProduct inserts an active product priced at precio in the given category.
func SeedProduct(t testing.TB, conn *gorm.DB, nombre string, precio int64, categoria int64, opts ...ProductOption) models.Product {
	t.Helper()
	p := models.Product{
		Nombre:        nombre,
		Precio:        decimal.NewFromInt(precio),
		Categoria:     categoria,
		IsActivo:      true,
		CantidadStock: 10,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}
