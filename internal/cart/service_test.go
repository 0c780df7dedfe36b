package cart

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

type stubPricer struct {
	cart       pricing.PricedCart
	violations []pricing.Violation
	err        error
	calls      []string
}

func (s *stubPricer) Price(context.Context, []pricing.CartLine) (pricing.PricedCart, error) {
	s.calls = append(s.calls, "price")
	return s.cart, s.err
}

func (s *stubPricer) PriceWithValidation(context.Context, []pricing.CartLine) (pricing.PricedCart, error) {
	s.calls = append(s.calls, "price_with_validation")
	return s.cart, s.err
}

func (s *stubPricer) Validate(context.Context, []pricing.CartLine) ([]pricing.Violation, error) {
	s.calls = append(s.calls, "validate")
	return s.violations, s.err
}

func newTestService(p Pricer, logs *bytes.Buffer) *Service {
	logger := zerolog.Nop()
	if logs != nil {
		logger = zerolog.New(logs).Level(zerolog.DebugLevel)
	}
	return &Service{
		Engine:  p,
		Logger:  logger,
		Metrics: obs.NewPricingMetrics("test", prometheus.NewRegistry()),
	}
}

func TestCalculateDispatchesByMode(t *testing.T) {
	stub := &stubPricer{}
	svc := newTestService(stub, nil)

	_, err := svc.Calculate(context.Background(), nil)
	require.NoError(t, err)
	_, err = svc.CalculateWithoutValidation(context.Background(), nil)
	require.NoError(t, err)
	_, err = svc.Validate(context.Background(), nil)
	require.NoError(t, err)

	require.Equal(t, []string{"price_with_validation", "price", "validate"}, stub.calls)
	require.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Evaluations.WithLabelValues("validated", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Evaluations.WithLabelValues("lenient", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Evaluations.WithLabelValues("validate", "ok")))
}

func TestCalculateRecordsAppliedPolicies(t *testing.T) {
	productID := uuid.New()
	stub := &stubPricer{cart: pricing.PricedCart{
		AppliedPolicies: []pricing.AppliedPolicy{
			{PolicyID: uuid.New(), Target: pricing.TargetCategory, Type: pricing.DiscountPercentage, ProductID: &productID},
			{PolicyID: uuid.New(), Target: pricing.TargetOrderAmount, Type: pricing.DiscountFixedAmount},
		},
	}}
	svc := newTestService(stub, nil)

	_, err := svc.Calculate(context.Background(), []pricing.CartLine{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.PolicyApplied.WithLabelValues("CATEGORY", "PERCENTAGE")))
	require.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.PolicyApplied.WithLabelValues("ORDER_AMOUNT", "FIXED_AMOUNT")))
}

func TestCalculateRejectedCartIsCountedInvalid(t *testing.T) {
	verr := &pricing.ValidationError{Violations: []pricing.Violation{{ProductID: uuid.New(), Reason: "product not found"}}}
	stub := &stubPricer{err: verr}
	var logs bytes.Buffer
	svc := newTestService(stub, &logs)

	_, err := svc.Calculate(context.Background(), []pricing.CartLine{{ProductID: uuid.New(), Quantity: 1}})
	require.ErrorIs(t, err, pricing.ErrValidationFailed)
	require.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Evaluations.WithLabelValues("validated", "invalid")))
	require.Contains(t, logs.String(), "cart_rejected")
}

func TestCalculateCollaboratorFailure(t *testing.T) {
	boom := errors.New("catalog down")
	stub := &stubPricer{err: boom}
	var logs bytes.Buffer
	svc := newTestService(stub, &logs)

	_, err := svc.CalculateWithoutValidation(context.Background(), nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Evaluations.WithLabelValues("lenient", "error")))
	require.Contains(t, logs.String(), "cart_pricing_failed")
}

func TestValidateCountsViolations(t *testing.T) {
	stub := &stubPricer{violations: []pricing.Violation{{ProductID: uuid.New(), Reason: "quantity must be at least 1"}}}
	svc := newTestService(stub, nil)

	violations, err := svc.Validate(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Evaluations.WithLabelValues("validate", "invalid")))
}

func TestNegativeTotalsAreLogged(t *testing.T) {
	final := decimal.NewFromInt(-400)
	stub := &stubPricer{cart: pricing.PricedCart{
		Lines: []pricing.PricedLine{{ProductID: uuid.New(), Quantity: 1, Final: final}},
		Final: final,
	}}
	var logs bytes.Buffer
	svc := newTestService(stub, &logs)

	_, err := svc.CalculateWithoutValidation(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count(logs.Bytes(), []byte("negative_total")))
	require.Contains(t, logs.String(), "cart_priced")
}

func TestUnconfiguredService(t *testing.T) {
	var svc *Service
	_, err := svc.Calculate(context.Background(), nil)
	require.Error(t, err)
	_, err = (&Service{}).Validate(context.Background(), nil)
	require.Error(t, err)
}
