package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Product is the stored catalog entry.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Active      bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ForPricing projects the fields the pricing engine reads.
func (p Product) ForPricing() pricing.Product {
	return pricing.Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
		Brand:    p.Brand,
		Active:   p.Active,
	}
}

// Input is the writable part of a product.
type Input struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	Category    string          `json:"category" validate:"max=50"`
	Brand       string          `json:"brand" validate:"max=100"`
	SKU         string          `json:"sku" validate:"max=20"`
	Active      *bool           `json:"isActive"`
}

func (in Input) normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Brand = strings.TrimSpace(in.Brand)
	in.SKU = strings.TrimSpace(in.SKU)
	return in
}

func (in Input) active() bool {
	return in.Active == nil || *in.Active
}

// Filter narrows product listings. Zero values do not filter.
type Filter struct {
	Keyword  string
	Category string
	Brand    string
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
}

// SortField is a whitelisted ordering column.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortName      SortField = "name"
	SortPrice     SortField = "price"
	SortStock     SortField = "stock"
)

// ListParams controls paging and ordering. Limit 0 returns every match.
type ListParams struct {
	Page  int
	Limit int
	Sort  SortField
	Desc  bool
}

func (p ListParams) offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Page is one page of a listing plus the total match count.
type Page struct {
	Items []Product
	Total int
}
