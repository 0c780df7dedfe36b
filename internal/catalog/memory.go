package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local runs without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
}

// NewMemoryStore returns a store seeded with products.
func NewMemoryStore(products ...Product) *MemoryStore {
	s := &MemoryStore{products: make(map[uuid.UUID]Product, len(products))}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter, params ListParams) (Page, error) {
	s.mu.RLock()
	matched := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Active && matches(filter, p) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b Product) int {
		c := compareBy(params.Sort, a, b)
		if params.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	if params.Limit > 0 {
		start := min(params.offset(), total)
		end := min(start+params.Limit, total)
		matched = matched[start:end]
	}
	return Page{Items: matched, Total: total}, nil
}

func (s *MemoryStore) Create(_ context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skuTaken(p) {
		return Product{}, ErrDuplicateSKU
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *MemoryStore) Update(_ context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return Product{}, ErrNotFound
	}
	if s.skuTaken(p) {
		return Product{}, ErrDuplicateSKU
	}
	p.CreatedAt = existing.CreatedAt
	s.products[p.ID] = p
	return p, nil
}

func (s *MemoryStore) skuTaken(p Product) bool {
	if p.SKU == "" {
		return false
	}
	for id, other := range s.products {
		if id != p.ID && other.SKU == p.SKU {
			return true
		}
	}
	return false
}

func matches(f Filter, p Product) bool {
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		if !strings.Contains(strings.ToLower(p.Name), kw) && !strings.Contains(strings.ToLower(p.Description), kw) {
			return false
		}
	}
	if f.Category != "" && f.Category != p.Category {
		return false
	}
	if f.Brand != "" && f.Brand != p.Brand {
		return false
	}
	if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
		return false
	}
	if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}
	return true
}

func compareBy(field SortField, a, b Product) int {
	switch field {
	case SortName:
		return strings.Compare(a.Name, b.Name)
	case SortPrice:
		return a.Price.Cmp(b.Price)
	case SortStock:
		return cmp.Compare(a.Stock, b.Stock)
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
