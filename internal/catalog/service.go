package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/common"
)

// Service implements product listing, search and maintenance.
type Service struct {
	store        Store
	cache        *Cache
	logger       zerolog.Logger
	now          func() time.Time
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	Logger       zerolog.Logger
	Now          func() time.Time
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		now:          now,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises paging and ordering query values.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit, Sort: SortCreatedAt, Desc: true}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.BadRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, common.BadRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = min(limit, s.maxLimit)
	}
	if v := strings.TrimSpace(values.Get("sort")); v != "" {
		field := SortField(v)
		if _, ok := sortColumns[field]; !ok {
			return params, common.BadRequest("sort", "sort must be one of createdAt, updatedAt, name, price, stock", nil)
		}
		params.Sort = field
	}
	switch strings.ToLower(strings.TrimSpace(values.Get("direction"))) {
	case "", "desc":
		params.Desc = true
	case "asc":
		params.Desc = false
	default:
		return params, common.BadRequest("direction", "direction must be asc or desc", nil)
	}
	return params, nil
}

// ParseFilter reads search filters from query values.
func (s *Service) ParseFilter(values url.Values) (Filter, error) {
	filter := Filter{
		Keyword:  strings.TrimSpace(values.Get("keyword")),
		Category: strings.TrimSpace(values.Get("category")),
		Brand:    strings.TrimSpace(values.Get("brand")),
	}
	var err error
	if filter.MinPrice, err = parsePrice(values, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parsePrice(values, "maxPrice"); err != nil {
		return filter, err
	}
	if filter.MinPrice.Valid && filter.MaxPrice.Valid && filter.MinPrice.Decimal.GreaterThan(filter.MaxPrice.Decimal) {
		return filter, common.BadRequest("price", "minPrice cannot be greater than maxPrice", fmt.Errorf("invalid price range"))
	}
	return filter, nil
}

// List returns active products, one page at a time.
func (s *Service) List(ctx context.Context, params ListParams) (Page, error) {
	return s.Search(ctx, Filter{}, params)
}

// Search returns active products matching filter.
func (s *Service) Search(ctx context.Context, filter Filter, params ListParams) (Page, error) {
	page, err := s.store.List(ctx, filter, params)
	if err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

// ByCategory returns every active product in category.
func (s *Service) ByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.all(ctx, Filter{Category: strings.TrimSpace(category)})
}

// ByBrand returns every active product of brand.
func (s *Service) ByBrand(ctx context.Context, brand string) ([]Product, error) {
	return s.all(ctx, Filter{Brand: strings.TrimSpace(brand)})
}

func (s *Service) all(ctx context.Context, filter Filter) ([]Product, error) {
	page, err := s.store.List(ctx, filter, ListParams{Sort: SortName})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return page.Items, nil
}

// Get returns an active product. Deactivated products are reported as not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, mapStoreError(err)
	}
	if !p.Active {
		return Product{}, common.NotFound("product not found", ErrNotFound)
	}
	return p, nil
}

// Create stores a new product.
func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	in = in.normalize()
	if err := validateInput(in); err != nil {
		return Product{}, err
	}
	now := s.now().UTC()
	created, err := s.store.Create(ctx, Product{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Brand:       in.Brand,
		SKU:         in.SKU,
		Active:      in.active(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Product{}, mapStoreError(err)
	}
	s.logger.Info().Str("product_id", created.ID.String()).Str("sku", created.SKU).Msg("product_created")
	return created, nil
}

// Update replaces the writable fields of an active product.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Product, error) {
	in = in.normalize()
	if err := validateInput(in); err != nil {
		return Product{}, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	existing.Name = in.Name
	existing.Description = in.Description
	existing.Price = in.Price
	existing.Stock = in.Stock
	existing.Category = in.Category
	existing.Brand = in.Brand
	existing.SKU = in.SKU
	existing.Active = in.active()
	existing.UpdatedAt = s.now().UTC()
	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		return Product{}, mapStoreError(err)
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// Delete deactivates an active product. Pricing treats it as absent afterwards.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	existing.Active = false
	existing.UpdatedAt = s.now().UTC()
	if _, err := s.store.Update(ctx, existing); err != nil {
		return mapStoreError(err)
	}
	s.invalidate(ctx, id)
	s.logger.Info().Str("product_id", id.String()).Msg("product_deactivated")
	return nil
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, productCacheKey(id)); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("catalog_cache_invalidate_failed")
	}
}

func validateInput(in Input) error {
	if err := common.ValidateStruct(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return common.BadRequest("price", "price must not be negative", nil)
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return common.BadRequest("price", "price must have at most two decimal places", nil)
	}
	return nil
}

func parsePrice(values url.Values, field string) (decimal.NullDecimal, error) {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, common.BadRequest(field, field+" must be a decimal number", err)
	}
	return decimal.NewNullDecimal(d), nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFound("product not found", err)
	case errors.Is(err, ErrDuplicateSKU):
		return common.Conflict("sku already exists", err)
	default:
		return err
	}
}

// Pagination builds the response metadata for a page.
func Pagination(params ListParams, page Page) common.Pagination {
	return common.NewPagination(params.Page, params.Limit, page.Total)
}
