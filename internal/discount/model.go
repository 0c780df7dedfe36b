package discount

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Input is the payload accepted when creating a policy.
type Input struct {
	Name              string                 `json:"name" validate:"required,max=100"`
	Description       string                 `json:"description" validate:"max=500"`
	Type              pricing.DiscountType   `json:"discountType" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	Target            pricing.DiscountTarget `json:"discountTarget" validate:"required,oneof=PRODUCT CATEGORY BRAND PRODUCT_GROUP QUANTITY ORDER_AMOUNT PRODUCT_AMOUNT"`
	Value             decimal.Decimal        `json:"discountValue"`
	MaxDiscountAmount decimal.NullDecimal    `json:"maxDiscountAmount"`
	MinOrderAmount    decimal.NullDecimal    `json:"minOrderAmount"`
	MinQuantity       *int                   `json:"minQuantity" validate:"omitempty,min=0"`
	MaxQuantity       *int                   `json:"maxQuantity" validate:"omitempty,min=0"`
	TargetProductID   *uuid.UUID             `json:"targetProductId"`
	TargetCategory    *string                `json:"targetCategory" validate:"omitempty,max=50"`
	TargetBrand       *string                `json:"targetBrand" validate:"omitempty,max=50"`
	Active            *bool                  `json:"isActive"`
	StartsAt          *time.Time             `json:"startDate"`
	EndsAt            *time.Time             `json:"endDate"`
}

func (in Input) policy(id uuid.UUID) pricing.Policy {
	active := in.Active == nil || *in.Active
	return pricing.Policy{
		ID:                id,
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		Type:              in.Type,
		Target:            in.Target,
		Value:             in.Value,
		MaxDiscountAmount: in.MaxDiscountAmount,
		MinOrderAmount:    in.MinOrderAmount,
		MinQuantity:       in.MinQuantity,
		MaxQuantity:       in.MaxQuantity,
		TargetProductID:   in.TargetProductID,
		TargetCategory:    in.TargetCategory,
		TargetBrand:       in.TargetBrand,
		Active:            active,
		StartsAt:          in.StartsAt,
		EndsAt:            in.EndsAt,
	}
}

// View is the JSON representation of a stored policy.
type View struct {
	ID                uuid.UUID              `json:"id"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description,omitempty"`
	Type              pricing.DiscountType   `json:"discountType"`
	Target            pricing.DiscountTarget `json:"discountTarget"`
	Value             decimal.Decimal        `json:"discountValue"`
	MaxDiscountAmount decimal.NullDecimal    `json:"maxDiscountAmount"`
	MinOrderAmount    decimal.NullDecimal    `json:"minOrderAmount"`
	MinQuantity       *int                   `json:"minQuantity"`
	MaxQuantity       *int                   `json:"maxQuantity"`
	TargetProductID   *uuid.UUID             `json:"targetProductId"`
	TargetCategory    *string                `json:"targetCategory"`
	TargetBrand       *string                `json:"targetBrand"`
	Active            bool                   `json:"isActive"`
	StartsAt          *time.Time             `json:"startDate"`
	EndsAt            *time.Time             `json:"endDate"`
}

// NewView converts a policy for rendering.
func NewView(p pricing.Policy) View {
	return View{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Type:              p.Type,
		Target:            p.Target,
		Value:             p.Value,
		MaxDiscountAmount: p.MaxDiscountAmount,
		MinOrderAmount:    p.MinOrderAmount,
		MinQuantity:       p.MinQuantity,
		MaxQuantity:       p.MaxQuantity,
		TargetProductID:   p.TargetProductID,
		TargetCategory:    p.TargetCategory,
		TargetBrand:       p.TargetBrand,
		Active:            p.Active,
		StartsAt:          p.StartsAt,
		EndsAt:            p.EndsAt,
	}
}

// NewViews converts policies for rendering, preserving order.
func NewViews(policies []pricing.Policy) []View {
	out := make([]View, 0, len(policies))
	for _, p := range policies {
		out = append(out, NewView(p))
	}
	return out
}
