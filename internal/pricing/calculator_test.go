package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAmountForPercentageRoundsHalfUp(t *testing.T) {
	policy := Policy{Type: DiscountPercentage, Value: dec("10")}
	got := AmountFor(policy, dec("3703.68"))
	requireDecimal(t, "370.37", got)

	// 0.125 rounds away from zero at two digits.
	got = AmountFor(Policy{Type: DiscountPercentage, Value: dec("12.5")}, dec("1"))
	requireDecimal(t, "0.13", got)
}

func TestAmountForPercentageCap(t *testing.T) {
	policy := Policy{
		Type:              DiscountPercentage,
		Value:             dec("50"),
		MaxDiscountAmount: nullDec("2000"),
	}
	requireDecimal(t, "2000", AmountFor(policy, dec("20000")))
	requireDecimal(t, "500", AmountFor(policy, dec("1000")))
}

func TestAmountForFixedIgnoresBase(t *testing.T) {
	policy := Policy{Type: DiscountFixedAmount, Value: dec("5000")}
	requireDecimal(t, "5000", AmountFor(policy, dec("100")))
	requireDecimal(t, "5000", AmountFor(policy, decimal.Zero))
}

func TestAmountForFixedIgnoresCap(t *testing.T) {
	policy := Policy{Type: DiscountFixedAmount, Value: dec("5000"), MaxDiscountAmount: nullDec("3000")}
	requireDecimal(t, "5000", AmountFor(policy, dec("100000")))
}

func TestAmountForUnknownType(t *testing.T) {
	policy := Policy{Type: DiscountType("BOGO"), Value: dec("10")}
	require.True(t, AmountFor(policy, dec("1000")).IsZero())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}
