package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, matching the rows the storefront already persisted.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a row of productos. Column defaults live in the migrations, so
// zero values here are written as-is.
type Product struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Nombre        string          `gorm:"column:nombre;not null" json:"nombre"`
	Descripcion   *string         `gorm:"column:descripcion" json:"descripcion"`
	Precio        decimal.Decimal `gorm:"column:precio;type:numeric(12,2);not null" json:"precio"`
	Categoria     int64           `gorm:"column:categoria;not null" json:"categoria"`
	IsActivo      bool            `gorm:"column:isActivo;not null" json:"isActivo"`
	IsOferta      bool            `gorm:"column:isOferta;not null" json:"isOferta"`
	CantidadStock int64           `gorm:"column:cantidad_stock;not null" json:"cantidad_stock"`
	Sabores       pq.Int64Array   `gorm:"column:sabores;type:bigint[]" json:"sabores"`
	URLImagen     string          `gorm:"column:url_imagen;not null" json:"url_imagen"`
	GaleriaURLs   pq.StringArray  `gorm:"column:galeria_urls;type:text[]" json:"galeria_urls"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Product) TableName() string { return "productos" }

// ProductDetail is a Product joined with its category and resolved flavors.
type ProductDetail struct {
	Product
	CategoriaInfo *Category `gorm:"foreignKey:Categoria;references:ID" json:"categoria_info"`
	SaboresInfo   []Flavor  `gorm:"-" json:"sabores_info"`
}

func (ProductDetail) TableName() string { return "productos" }
