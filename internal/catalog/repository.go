package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/proteinapura/storefront/internal/repo"
	"github.com/proteinapura/storefront/pkg/db/models"
	"gorm.io/gorm"
)

// ProductQuery narrows an active product listing. The zero value lists every active product.
type ProductQuery struct {
	CategoryID *int64
	OnSaleOnly bool
	Search     string
	Limit      int
}

// Repository reads catalog rows through GORM.
type Repository struct {
	repo.Base
}

// NewRepository binds a catalog repository to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListProducts returns products with their category preloaded. Flavors are left empty;
// callers join them with FlavorsByIDs.
func (r *Repository) ListProducts(ctx context.Context, q ProductQuery) ([]models.ProductDetail, error) {
	tx := r.DB(ctx).Preload("CategoriaInfo").Scopes(repo.ActiveOnly)
	if q.CategoryID != nil {
		tx = tx.Where(map[string]any{"categoria": *q.CategoryID})
	}
	if q.OnSaleOnly {
		tx = tx.Where(map[string]any{"isOferta": true})
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		tx = tx.Where(
			"(LOWER(nombre) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(descripcion, '')) LIKE ? ESCAPE '\\')",
			pattern, pattern,
		)
	}
	tx = tx.Scopes(repo.NewestFirst)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []models.ProductDetail
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetProduct loads one product with its category. It returns gorm.ErrRecordNotFound when the
// row is missing or, with activeOnly, inactive.
func (r *Repository) GetProduct(ctx context.Context, id int64, activeOnly bool) (*models.ProductDetail, error) {
	tx := r.DB(ctx).Preload("CategoriaInfo").Where(map[string]any{"id": id})
	if activeOnly {
		tx = tx.Scopes(repo.ActiveOnly)
	}
	var row models.ProductDetail
	if err := tx.Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FlavorsByIDs fetches the given flavors in a single query. Order is unspecified.
func (r *Repository) FlavorsByIDs(ctx context.Context, ids []int64) ([]models.Flavor, error) {
	if len(ids) == 0 {
		return []models.Flavor{}, nil
	}
	var rows []models.Flavor
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCategories returns categories ordered by descripcion.
func (r *Repository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	tx := r.DB(ctx)
	if activeOnly {
		tx = tx.Scopes(repo.ActiveOnly)
	}
	var rows []models.Category
	if err := tx.Order("descripcion").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListFlavors returns every flavor ordered by descripcion.
func (r *Repository) ListFlavors(ctx context.Context) ([]models.Flavor, error) {
	var rows []models.Flavor
	if err := r.DB(ctx).Order("descripcion").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// joinFlavors resolves refs against byID in reference order, skipping unknown and repeated ids.
func joinFlavors(refs []int64, byID map[int64]models.Flavor) []models.Flavor {
	out := make([]models.Flavor, 0, len(refs))
	seen := make(map[int64]struct{}, len(refs))
	for _, id := range refs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if f, ok := byID[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

func flavorRefs(rows []models.ProductDetail) []int64 {
	seen := map[int64]struct{}{}
	ids := []int64{}
	for _, row := range rows {
		for _, id := range row.Sabores {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
