package pricing

import (
	"github.com/shopspring/decimal"
)

// lineContext carries what a per-line predicate may inspect.
type lineContext struct {
	product  Product
	quantity int
	subtotal decimal.Decimal
}

type linePredicate func(p Policy, c lineContext) bool

// threshold is an optional bound. Unset bounds pass.
type threshold func() bool

func allOf(checks ...threshold) bool {
	for _, check := range checks {
		if !check() {
			return false
		}
	}
	return true
}

func minInt(limit *int, v int) threshold {
	return func() bool { return limit == nil || v >= *limit }
}

func maxInt(limit *int, v int) threshold {
	return func() bool { return limit == nil || v <= *limit }
}

func minAmount(limit decimal.NullDecimal, v decimal.Decimal) threshold {
	return func() bool { return !limit.Valid || v.GreaterThanOrEqual(limit.Decimal) }
}

func selectorEquals(selector *string, value string) bool {
	return selector != nil && *selector == value
}

// lineMatchers holds the per-line stage. Targets missing here never match per line.
var lineMatchers = map[DiscountTarget]linePredicate{
	TargetProduct: func(p Policy, c lineContext) bool {
		return p.TargetProductID != nil && *p.TargetProductID == c.product.ID
	},
	TargetCategory: func(p Policy, c lineContext) bool {
		return selectorEquals(p.TargetCategory, c.product.Category)
	},
	TargetBrand: func(p Policy, c lineContext) bool {
		return selectorEquals(p.TargetBrand, c.product.Brand)
	},
	TargetQuantity: func(p Policy, c lineContext) bool {
		return allOf(minInt(p.MinQuantity, c.quantity), maxInt(p.MaxQuantity, c.quantity))
	},
	TargetProductAmount: func(p Policy, c lineContext) bool {
		return allOf(minAmount(p.MinOrderAmount, c.subtotal))
	},
}

// MatchLine returns the policies, in source order, that apply to a single cart line.
func MatchLine(product Product, line CartLine, lineSubtotal decimal.Decimal, policies []Policy) []Policy {
	ctx := lineContext{product: product, quantity: line.Quantity, subtotal: lineSubtotal}
	var matched []Policy
	for _, p := range policies {
		match, ok := lineMatchers[p.Target]
		if !ok {
			continue
		}
		if match(p, ctx) {
			matched = append(matched, p)
		}
	}
	return matched
}

// MatchOrder returns ORDER_AMOUNT policies, in source order, satisfied by the cart subtotal.
// Callers apply only the first.
func MatchOrder(cartSubtotal decimal.Decimal, policies []Policy) []Policy {
	var matched []Policy
	for _, p := range policies {
		if p.Target != TargetOrderAmount {
			continue
		}
		if allOf(minAmount(p.MinOrderAmount, cartSubtotal)) {
			matched = append(matched, p)
		}
	}
	return matched
}
