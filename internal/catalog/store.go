package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a product id is unknown to the store.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrDuplicateSKU is returned when a write collides with an existing SKU.
	ErrDuplicateSKU = errors.New("catalog: duplicate sku")
)

// Store persists products. Get returns inactive products too; List only active ones.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	List(ctx context.Context, filter Filter, params ListParams) (Page, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
}
