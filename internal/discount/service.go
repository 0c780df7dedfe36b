package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Service validates and stores discount policies and exposes the active snapshot.
type Service struct {
	Store  Store
	Logger zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Active returns the policies the engine would apply right now, in source order.
func (s *Service) Active(ctx context.Context) ([]pricing.Policy, error) {
	if s.Store == nil {
		return nil, errors.New("discount store not configured")
	}
	policies, err := s.Store.ActivePolicies(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("active policies: %w", err)
	}
	return policies, nil
}

// List returns every stored policy.
func (s *Service) List(ctx context.Context) ([]pricing.Policy, error) {
	if s.Store == nil {
		return nil, errors.New("discount store not configured")
	}
	return s.Store.List(ctx)
}

// Create validates in and stores it as a new policy.
func (s *Service) Create(ctx context.Context, in Input) (pricing.Policy, error) {
	if s.Store == nil {
		return pricing.Policy{}, errors.New("discount store not configured")
	}
	if err := validateInput(in); err != nil {
		return pricing.Policy{}, err
	}
	created, err := s.Store.Create(ctx, in.policy(uuid.New()))
	if err != nil {
		return pricing.Policy{}, err
	}
	s.Logger.Info().
		Str("policy_id", created.ID.String()).
		Str("target", string(created.Target)).
		Str("type", string(created.Type)).
		Msg("discount_policy_created")
	return created, nil
}

func validateInput(in Input) error {
	if err := common.ValidateStruct(in); err != nil {
		return err
	}
	if !in.Value.IsPositive() {
		return common.BadRequest("discountValue", "discountValue must be greater than zero", nil)
	}
	if in.Type == pricing.DiscountPercentage && in.Value.GreaterThan(hundred) {
		return common.BadRequest("discountValue", "percentage must not exceed 100", nil)
	}
	if in.MaxDiscountAmount.Valid && in.MaxDiscountAmount.Decimal.IsNegative() {
		return common.BadRequest("maxDiscountAmount", "maxDiscountAmount must not be negative", nil)
	}
	if in.MinQuantity != nil && in.MaxQuantity != nil && *in.MinQuantity > *in.MaxQuantity {
		return common.BadRequest("maxQuantity", "maxQuantity must not be less than minQuantity", nil)
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		return common.BadRequest("endDate", "endDate must not be before startDate", nil)
	}
	if field, ok := selectorFields[in.Target]; ok && !in.hasSelector(in.Target) {
		return common.BadRequest(field, field+" is required for "+string(in.Target)+" policies", nil)
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

var selectorFields = map[pricing.DiscountTarget]string{
	pricing.TargetProduct:  "targetProductId",
	pricing.TargetCategory: "targetCategory",
	pricing.TargetBrand:    "targetBrand",
}

func (in Input) hasSelector(target pricing.DiscountTarget) bool {
	switch target {
	case pricing.TargetProduct:
		return in.TargetProductID != nil
	case pricing.TargetCategory:
		return in.TargetCategory != nil && *in.TargetCategory != ""
	case pricing.TargetBrand:
		return in.TargetBrand != nil && *in.TargetBrand != ""
	}
	return true
}
