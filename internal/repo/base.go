package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by the catalog and admin repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx returns the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// InTx runs fn with a Base bound to a single transaction, committing when fn returns nil.
func (b Base) InTx(ctx context.Context, fn func(tx Base) error) error {
	return b.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Base{db: tx})
	})
}

// ActiveOnly keeps rows whose isActivo flag is set. The column is camelCase, so it is
// matched through a map to get it quoted.
func ActiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where(map[string]any{"isActivo": true})
}

// NewestFirst orders by creation time, newest first, breaking ties by id.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
