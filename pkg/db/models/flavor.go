package models

// Flavor is a row of sabores.
type Flavor struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Descripcion string `gorm:"column:descripcion;not null" json:"descripcion"`
}

func (Flavor) TableName() string { return "sabores" }
