// Package cart keeps the shopper's cart and checkout contact in a local key/value store.
package cart

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/proteinapura/storefront/pkg/db/models"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// StorageKey is where the cart list lives.
const StorageKey = "proteina-pura-cart"

// LineItem is one product, optionally in a chosen flavor, with its quantity. The product is a
// snapshot taken when it was first added.
type LineItem struct {
	Producto          models.ProductDetail `json:"producto"`
	Quantity          int                  `json:"quantity"`
	SaborSeleccionado *models.Flavor       `json:"sabor_seleccionado,omitempty"`
}

// LineTotal is the snapshot price times the quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Producto.Precio.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) matches(productID int64, flavorID *int64) bool {
	if l.Producto.ID != productID {
		return false
	}
	if l.SaborSeleccionado == nil || flavorID == nil {
		return l.SaborSeleccionado == nil && flavorID == nil
	}
	return l.SaborSeleccionado.ID == *flavorID
}

// Store is the cart state. Storage failures are logged and never surface to callers.
type Store struct {
	mu      sync.Mutex
	storage Storage
	logg    *logger.Logger
	items   []LineItem
	loaded  bool
}

func NewStore(storage Storage, logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{storage: storage, logg: logg, items: []LineItem{}}
}

// Load reads the persisted cart once. Mutations made before Load are kept in memory only and
// are replaced by a valid persisted cart. Unreadable content is dropped from storage, and lines
// without a product or with a quantity below one are discarded.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return
	}
	s.loaded = true

	ctx := s.logg.WithField(context.Background(), "storage_key", StorageKey)
	raw, ok, err := s.storage.GetItem(StorageKey)
	if err != nil {
		s.logg.Error(ctx, "cart.load", err)
		return
	}
	if !ok {
		return
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		s.logg.Warn(ctx, "discarding unreadable cart")
		s.items = []LineItem{}
		if err := s.storage.RemoveItem(StorageKey); err != nil {
			s.logg.Error(ctx, "cart.remove_corrupt", err)
		}
		return
	}

	valid := make([]LineItem, 0, len(items))
	for _, l := range items {
		if l.Producto.ID == 0 || l.Quantity < 1 {
			continue
		}
		valid = append(valid, l)
	}
	s.items = valid
	if dropped := len(items) - len(valid); dropped > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "dropped_lines", dropped), "discarding invalid cart lines")
		s.persist()
	}
}

// Loaded reports whether Load has completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// AddToCart adds one unit of product in the given flavor, merging with an existing line.
func (s *Store) AddToCart(product models.ProductDetail, flavor *models.Flavor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flavorID *int64
	if flavor != nil {
		flavorID = &flavor.ID
	}
	for i := range s.items {
		if s.items[i].matches(product.ID, flavorID) {
			s.items[i].Quantity++
			s.persist()
			return
		}
	}

	line := LineItem{Producto: snapshot(product), Quantity: 1}
	if flavor != nil {
		f := *flavor
		line.SaborSeleccionado = &f
	}
	s.items = append(s.items, line)
	s.persist()
}

// snapshot copies product so later changes by the caller never reach the cart line.
func snapshot(p models.ProductDetail) models.ProductDetail {
	out := p
	if p.Descripcion != nil {
		d := *p.Descripcion
		out.Descripcion = &d
	}
	out.Sabores = slices.Clone(p.Sabores)
	out.GaleriaURLs = slices.Clone(p.GaleriaURLs)
	out.SaboresInfo = slices.Clone(p.SaboresInfo)
	if p.CategoriaInfo != nil {
		c := *p.CategoriaInfo
		out.CategoriaInfo = &c
	}
	return out
}

// RemoveFromCart drops every line with the given product and flavor.
func (s *Store) RemoveFromCart(productID int64, flavorID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(productID, flavorID)
	s.persist()
}

// UpdateQuantity sets the quantity of a line; n <= 0 removes it. Unknown lines are ignored.
func (s *Store) UpdateQuantity(productID int64, flavorID *int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		s.remove(productID, flavorID)
		s.persist()
		return
	}
	for i := range s.items {
		if s.items[i].matches(productID, flavorID) {
			s.items[i].Quantity = n
		}
	}
	s.persist()
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []LineItem{}
	s.persist()
}

// CartTotal sums price times quantity over every line.
func (s *Store) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.items)
}

func (s *Store) CartItemsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, l := range s.items {
		count += l.Quantity
	}
	return count
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) remove(productID int64, flavorID *int64) {
	kept := s.items[:0]
	for _, l := range s.items {
		if !l.matches(productID, flavorID) {
			kept = append(kept, l)
		}
	}
	s.items = kept
}

// persist writes the full list. Callers hold mu.
func (s *Store) persist() {
	if !s.loaded {
		return
	}
	ctx := s.logg.WithField(context.Background(), "storage_key", StorageKey)
	raw, err := json.Marshal(s.items)
	if err != nil {
		s.logg.Error(ctx, "cart.encode", err)
		return
	}
	if err := s.storage.SetItem(StorageKey, string(raw)); err != nil {
		s.logg.Error(ctx, "cart.save", err)
	}
}

func subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range items {
		total = total.Add(l.LineTotal())
	}
	return total
}
