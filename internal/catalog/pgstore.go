package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/toko-pricing/internal/db"
)

const productColumns = `id, name, COALESCE(description, ''), price, stock, COALESCE(category, ''),
	COALESCE(brand, ''), COALESCE(sku, ''), is_active, created_at, updated_at`

var sortColumns = map[SortField]string{
	SortCreatedAt: "created_at",
	SortUpdatedAt: "updated_at",
	SortName:      "name",
	SortPrice:     "price",
	SortStock:     "stock",
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB db.Querier
}

// NewPGStore constructs a PGStore.
func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{DB: q}
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *PGStore) List(ctx context.Context, filter Filter, params ListParams) (Page, error) {
	where, args := whereClause(filter)

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM products `+where, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products ` + where + ` ORDER BY ` + orderBy(params)
	if params.Limit > 0 {
		args = append(args, params.Limit, params.offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return Page{}, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	return Page{Items: items, Total: total}, nil
}

func (s *PGStore) Create(ctx context.Context, p Product) (Product, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, stock, category, brand, sku, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.Brand, p.SKU, p.Active, p.CreatedAt, p.UpdatedAt)
	created, err := scanProduct(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (s *PGStore) Update(ctx context.Context, p Product) (Product, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = NULLIF($3, ''), price = $4, stock = $5, category = NULLIF($6, ''),
			brand = NULLIF($7, ''), sku = NULLIF($8, ''), is_active = $9, updated_at = $10
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.Brand, p.SKU, p.Active, p.UpdatedAt)
	updated, err := scanProduct(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Product{}, ErrNotFound
		case db.IsUniqueViolation(err):
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category,
		&p.Brand, &p.SKU, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func whereClause(f Filter) (string, []any) {
	conds := []string{"is_active"}
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		ph := next("%" + kw + "%")
		conds = append(conds, "(name ILIKE "+ph+" OR description ILIKE "+ph+")")
	}
	if f.Category != "" {
		conds = append(conds, "category = "+next(f.Category))
	}
	if f.Brand != "" {
		conds = append(conds, "brand = "+next(f.Brand))
	}
	if f.MinPrice.Valid {
		conds = append(conds, "price >= "+next(f.MinPrice.Decimal))
	}
	if f.MaxPrice.Valid {
		conds = append(conds, "price <= "+next(f.MaxPrice.Decimal))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(p ListParams) string {
	col, ok := sortColumns[p.Sort]
	if !ok {
		col = sortColumns[SortCreatedAt]
	}
	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", id ASC"
}
