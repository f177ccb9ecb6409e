package product

// CreateProductRequest is the admin create payload. Pointer fields distinguish "not sent"
// from zero values so defaults can be applied.
type CreateProductRequest struct {
	Nombre        *string  `json:"nombre" validate:"required,min=2"`
	Descripcion   *string  `json:"descripcion"`
	Precio        *float64 `json:"precio" validate:"required,gte=0"`
	Categoria     *int64   `json:"categoria" validate:"required"`
	IsActivo      *bool    `json:"isActivo"`
	IsOferta      *bool    `json:"isOferta"`
	CantidadStock *int64   `json:"cantidad_stock" validate:"required,gte=0"`
	Sabores       []int64  `json:"sabores"`
	URLImagen     *string  `json:"url_imagen" validate:"omitempty,url"`
	GaleriaURLs   []string `json:"galeria_urls" validate:"omitempty,dive,url"`
}

// UpdateProductRequest is the admin patch payload. Only ID is mandatory.
type UpdateProductRequest struct {
	ID            *int64   `json:"id" validate:"required"`
	Nombre        *string  `json:"nombre" validate:"omitempty,min=2"`
	Descripcion   *string  `json:"descripcion"`
	Precio        *float64 `json:"precio" validate:"omitempty,gte=0"`
	Categoria     *int64   `json:"categoria"`
	IsActivo      *bool    `json:"isActivo"`
	IsOferta      *bool    `json:"isOferta"`
	CantidadStock *int64   `json:"cantidad_stock" validate:"omitempty,gte=0"`
	Sabores       []int64  `json:"sabores"`
	URLImagen     *string  `json:"url_imagen" validate:"omitempty,url"`
	GaleriaURLs   []string `json:"galeria_urls" validate:"omitempty,dive,url"`
}

// DeleteProductRequest carries the id of the product to remove.
type DeleteProductRequest struct {
	ID *int64 `json:"id"`
}

// nonNullable lists patch keys that may be omitted but never sent as null.
var nonNullable = []string{"nombre", "precio", "categoria", "isActivo", "isOferta", "cantidad_stock", "url_imagen"}
