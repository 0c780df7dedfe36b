package discount

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/toko-pricing/internal/db"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

const policyColumns = `id, name, COALESCE(description, ''), discount_type, discount_target, discount_value,
	max_discount_amount, min_order_amount, min_quantity, max_quantity, target_product_id,
	target_category, target_brand, is_active, start_date, end_date`

// PGStore is the Postgres-backed Store. seq preserves insertion order.
type PGStore struct {
	DB db.Querier
}

// NewPGStore constructs a PGStore.
func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{DB: q}
}

func (s *PGStore) ActivePolicies(ctx context.Context, now time.Time) ([]pricing.Policy, error) {
	return s.query(ctx, `SELECT `+policyColumns+` FROM discount_policies
		WHERE is_active
			AND (start_date IS NULL OR start_date <= $1)
			AND (end_date IS NULL OR end_date >= $1)
		ORDER BY seq`, now)
}

func (s *PGStore) List(ctx context.Context) ([]pricing.Policy, error) {
	return s.query(ctx, `SELECT `+policyColumns+` FROM discount_policies ORDER BY seq`)
}

func (s *PGStore) Create(ctx context.Context, p pricing.Policy) (pricing.Policy, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO discount_policies (id, name, description, discount_type, discount_target, discount_value,
			max_discount_amount, min_order_amount, min_quantity, max_quantity, target_product_id,
			target_category, target_brand, is_active, start_date, end_date)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+policyColumns,
		p.ID, p.Name, p.Description, string(p.Type), string(p.Target), p.Value,
		p.MaxDiscountAmount, p.MinOrderAmount, p.MinQuantity, p.MaxQuantity, p.TargetProductID,
		p.TargetCategory, p.TargetBrand, p.Active, p.StartsAt, p.EndsAt)
	created, err := scanPolicy(row)
	if err != nil {
		return pricing.Policy{}, fmt.Errorf("insert discount policy: %w", err)
	}
	return created, nil
}

func (s *PGStore) query(ctx context.Context, sql string, args ...any) ([]pricing.Policy, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query discount policies: %w", err)
	}
	defer rows.Close()
	out := make([]pricing.Policy, 0)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discount policy: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query discount policies: %w", err)
	}
	return out, nil
}

func scanPolicy(row pgx.Row) (pricing.Policy, error) {
	var (
		p              pricing.Policy
		discountType   string
		discountTarget string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &discountType, &discountTarget, &p.Value,
		&p.MaxDiscountAmount, &p.MinOrderAmount, &p.MinQuantity, &p.MaxQuantity, &p.TargetProductID,
		&p.TargetCategory, &p.TargetBrand, &p.Active, &p.StartsAt, &p.EndsAt)
	if err != nil {
		return pricing.Policy{}, err
	}
	p.Type = pricing.DiscountType(discountType)
	p.Target = pricing.DiscountTarget(discountTarget)
	return p, nil
}
