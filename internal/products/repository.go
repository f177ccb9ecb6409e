package product

import (
	"context"
	"errors"

	"github.com/proteinapura/storefront/internal/repo"
	"github.com/proteinapura/storefront/pkg/db/models"
	"gorm.io/gorm"
)

// ErrNoRows is returned when an update or lookup matches no product.
var ErrNoRows = errors.New("no product matched the given id")

// Repository persists products for the admin back-office.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns every product, active or not, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.DB(ctx).Scopes(repo.NewestFirst).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the column map to product id and returns the stored row. The write and the
// re-read share one transaction.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) (*models.Product, error) {
	var row models.Product
	err := r.InTx(ctx, func(tx repo.Base) error {
		if len(updates) > 0 {
			res := tx.DB(ctx).Model(&models.Product{}).Where(map[string]any{"id": id}).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNoRows
			}
		}
		if err := tx.DB(ctx).Where(map[string]any{"id": id}).Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoRows
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes product id. Deleting a missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.DB(ctx).Where(map[string]any{"id": id}).Delete(&models.Product{}).Error
}
