package pricing

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits percentage discounts are rounded to.
const MoneyScale = 2

type amountFunc func(p Policy, base decimal.Decimal) decimal.Decimal

var calculators = map[DiscountType]amountFunc{
	// Fixed amounts ignore both the base and MaxDiscountAmount; a line or cart can go negative.
	DiscountFixedAmount: func(p Policy, _ decimal.Decimal) decimal.Decimal {
		return p.Value
	},
	DiscountPercentage: func(p Policy, base decimal.Decimal) decimal.Decimal {
		// Shift(-2) divides by 100 exactly; Round is half away from zero.
		amount := base.Mul(p.Value).Shift(-2).Round(MoneyScale)
		if p.MaxDiscountAmount.Valid {
			amount = decimal.Min(amount, p.MaxDiscountAmount.Decimal)
		}
		return amount
	},
}

// AmountFor computes the discount one policy produces against base.
// Unknown discount types produce zero.
func AmountFor(p Policy, base decimal.Decimal) decimal.Decimal {
	calc, ok := calculators[p.Type]
	if !ok {
		return decimal.Zero
	}
	return calc(p, base)
}
