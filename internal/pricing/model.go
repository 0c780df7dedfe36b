package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a policy turns its value into an amount.
type DiscountType string

const (
	// DiscountPercentage treats Value as percentage points of the base.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFixedAmount treats Value as a currency amount.
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

// DiscountTarget is the dimension a policy is scoped to.
type DiscountTarget string

const (
	TargetProduct       DiscountTarget = "PRODUCT"
	TargetCategory      DiscountTarget = "CATEGORY"
	TargetBrand         DiscountTarget = "BRAND"
	TargetProductGroup  DiscountTarget = "PRODUCT_GROUP"
	TargetQuantity      DiscountTarget = "QUANTITY"
	TargetOrderAmount   DiscountTarget = "ORDER_AMOUNT"
	TargetProductAmount DiscountTarget = "PRODUCT_AMOUNT"
)

// Product is the catalog snapshot the engine prices against.
type Product struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	Stock    int
	Category string
	Brand    string
	Active   bool
}

// CartLine is a requested product and quantity. Quantity is used as supplied.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Policy describes a discount rule. Nil/invalid optional fields mean "not set".
type Policy struct {
	ID                uuid.UUID
	Name              string
	Description       string
	Type              DiscountType
	Target            DiscountTarget
	Value             decimal.Decimal
	MaxDiscountAmount decimal.NullDecimal
	MinOrderAmount    decimal.NullDecimal
	MinQuantity       *int
	MaxQuantity       *int
	TargetProductID   *uuid.UUID
	TargetCategory    *string
	TargetBrand       *string
	Active            bool
	StartsAt          *time.Time
	EndsAt            *time.Time
}

// ActiveAt reports whether the policy is enabled and now falls within its window.
func (p Policy) ActiveAt(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// PricedLine is the pricing outcome for one surviving cart line.
type PricedLine struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Final     decimal.Decimal
}

// PricedCart aggregates line results with the order-level discount.
type PricedCart struct {
	Lines           []PricedLine
	Subtotal        decimal.Decimal
	ItemCount       int
	LineDiscount    decimal.Decimal
	OrderDiscount   decimal.Decimal
	Discount        decimal.Decimal
	Final           decimal.Decimal
	AppliedPolicies []AppliedPolicy
}

// AppliedPolicy records a policy that produced a discount during evaluation.
type AppliedPolicy struct {
	PolicyID  uuid.UUID
	Name      string
	Target    DiscountTarget
	Type      DiscountType
	ProductID *uuid.UUID
	Amount    decimal.Decimal
}
