package cart

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Mode labels an evaluation for logs, metrics and spans.
type Mode string

const (
	ModeValidated Mode = "validated"
	ModeLenient   Mode = "lenient"
	ModeValidate  Mode = "validate"
)

const (
	resultOK      = "ok"
	resultInvalid = "invalid"
	resultError   = "error"
)

// Pricer is the pricing surface the cart service drives. *pricing.Engine satisfies it.
type Pricer interface {
	Price(ctx context.Context, lines []pricing.CartLine) (pricing.PricedCart, error)
	PriceWithValidation(ctx context.Context, lines []pricing.CartLine) (pricing.PricedCart, error)
	Validate(ctx context.Context, lines []pricing.CartLine) ([]pricing.Violation, error)
}

// Service wraps the pricing engine with logging, metrics and tracing.
type Service struct {
	Engine  Pricer
	Logger  zerolog.Logger
	Metrics *obs.PricingMetrics
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Calculate validates the cart and prices it. Invalid carts fail with *pricing.ValidationError.
func (s *Service) Calculate(ctx context.Context, lines []pricing.CartLine) (pricing.PricedCart, error) {
	return s.price(ctx, ModeValidated, lines)
}

// CalculateWithoutValidation prices the cart, dropping lines that cannot be priced.
func (s *Service) CalculateWithoutValidation(ctx context.Context, lines []pricing.CartLine) (pricing.PricedCart, error) {
	return s.price(ctx, ModeLenient, lines)
}

// Validate reports every violation in the cart without pricing it.
func (s *Service) Validate(ctx context.Context, lines []pricing.CartLine) ([]pricing.Violation, error) {
	if s == nil || s.Engine == nil {
		return nil, errors.New("cart service not configured")
	}
	ctx, span := s.start(ctx, ModeValidate, lines)
	defer span.End()
	start := s.now()

	violations, err := s.Engine.Validate(ctx, lines)
	result := resultOK
	switch {
	case err != nil:
		result = resultError
		span.RecordError(err)
		span.SetStatus(codes.Error, "validate cart")
		s.Logger.Error().Err(err).Str("mode", string(ModeValidate)).Msg("cart_validate_failed")
	case len(violations) > 0:
		result = resultInvalid
		span.SetAttributes(attribute.Int("cart.violations", len(violations)))
	}
	s.record(ModeValidate, result, start)
	return violations, err
}

func (s *Service) price(ctx context.Context, mode Mode, lines []pricing.CartLine) (pricing.PricedCart, error) {
	if s == nil || s.Engine == nil {
		return pricing.PricedCart{}, errors.New("cart service not configured")
	}
	ctx, span := s.start(ctx, mode, lines)
	defer span.End()
	start := s.now()

	var (
		cart pricing.PricedCart
		err  error
	)
	if mode == ModeValidated {
		cart, err = s.Engine.PriceWithValidation(ctx, lines)
	} else {
		cart, err = s.Engine.Price(ctx, lines)
	}
	if err != nil {
		var verr *pricing.ValidationError
		if errors.As(err, &verr) {
			span.SetAttributes(attribute.Int("cart.violations", len(verr.Violations)))
			s.Logger.Info().
				Str("mode", string(mode)).
				Strs("violations", verr.Messages()).
				Msg("cart_rejected")
			s.record(mode, resultInvalid, start)
			return pricing.PricedCart{}, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "price cart")
		s.Logger.Error().Err(err).Str("mode", string(mode)).Msg("cart_pricing_failed")
		s.record(mode, resultError, start)
		return pricing.PricedCart{}, err
	}

	span.SetAttributes(
		attribute.Int("cart.priced_lines", len(cart.Lines)),
		attribute.Int("cart.applied_policies", len(cart.AppliedPolicies)),
	)
	s.observeApplied(cart.AppliedPolicies)
	s.record(mode, resultOK, start)
	s.logPriced(mode, cart)
	return cart, nil
}

func (s *Service) start(ctx context.Context, mode Mode, lines []pricing.CartLine) (context.Context, trace.Span) {
	return otel.Tracer("pricing").Start(ctx, "pricing.evaluate", trace.WithAttributes(
		attribute.String("pricing.mode", string(mode)),
		attribute.Int("cart.lines", len(lines)),
	))
}

func (s *Service) record(mode Mode, result string, start time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.Evaluations.WithLabelValues(string(mode), result).Inc()
	s.Metrics.EvaluationDuration.WithLabelValues(string(mode)).Observe(obs.DurationMillis(s.now().Sub(start)))
}

func (s *Service) observeApplied(applied []pricing.AppliedPolicy) {
	if s.Metrics == nil {
		return
	}
	for _, a := range applied {
		s.Metrics.PolicyApplied.WithLabelValues(string(a.Target), string(a.Type)).Inc()
	}
}

func (s *Service) logPriced(mode Mode, cart pricing.PricedCart) {
	policyIDs := make([]string, 0, len(cart.AppliedPolicies))
	for _, a := range cart.AppliedPolicies {
		policyIDs = append(policyIDs, a.PolicyID.String())
	}
	s.Logger.Debug().
		Str("mode", string(mode)).
		Int("lines", len(cart.Lines)).
		Int("items", cart.ItemCount).
		Str("subtotal", cart.Subtotal.String()).
		Str("discount", cart.Discount.String()).
		Str("final", cart.Final.String()).
		Strs("applied_policies", policyIDs).
		Msg("cart_priced")

	// Fixed-amount discounts are never clamped, so totals may legitimately go negative.
	for _, line := range cart.Lines {
		if line.Final.IsNegative() {
			s.Logger.Warn().
				Str("product_id", line.ProductID.String()).
				Str("final", line.Final.String()).
				Msg("negative_total")
		}
	}
	if cart.Final.IsNegative() {
		s.Logger.Warn().Str("final", cart.Final.String()).Msg("negative_total")
	}
}
