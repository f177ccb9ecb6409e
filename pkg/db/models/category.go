package models

import "time"

// Category is a row of categorias.
type Category struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Descripcion string    `gorm:"column:descripcion;not null" json:"descripcion"`
	IsActivo    bool      `gorm:"column:isActivo;not null" json:"isActivo"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Category) TableName() string { return "categorias" }
