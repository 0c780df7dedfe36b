package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultLookupConcurrency = 8

// CatalogLookup resolves a product id to its current snapshot. The bool reports presence.
type CatalogLookup interface {
	LookupProduct(ctx context.Context, id uuid.UUID) (Product, bool, error)
}

// PolicySource returns the policies active at now, in source order.
type PolicySource interface {
	ActivePolicies(ctx context.Context, now time.Time) ([]Policy, error)
}

// Engine prices carts against a catalog and the active discount policies.
// It keeps no state between calls.
type Engine struct {
	Catalog     CatalogLookup
	Policies    PolicySource
	Now         func() time.Time
	Concurrency int
}

func (e *Engine) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) concurrency() int {
	if e == nil || e.Concurrency <= 0 {
		return defaultLookupConcurrency
	}
	return e.Concurrency
}

func (e *Engine) configured() error {
	if e == nil || e.Catalog == nil || e.Policies == nil {
		return errors.New("pricing engine not configured")
	}
	return nil
}

// Price evaluates the cart leniently: lines whose product is unknown or inactive are dropped.
func (e *Engine) Price(ctx context.Context, lines []CartLine) (PricedCart, error) {
	if err := e.configured(); err != nil {
		return PricedCart{}, err
	}
	policies, err := e.snapshot(ctx)
	if err != nil {
		return PricedCart{}, err
	}
	products, err := resolveProducts(ctx, lines, e.Catalog, e.concurrency())
	if err != nil {
		return PricedCart{}, err
	}
	return evaluate(lines, products, policies), nil
}

// PriceWithValidation rejects the cart with a *ValidationError if any line is invalid,
// otherwise prices it against the same catalog snapshot used for validation.
func (e *Engine) PriceWithValidation(ctx context.Context, lines []CartLine) (PricedCart, error) {
	if err := e.configured(); err != nil {
		return PricedCart{}, err
	}
	products, err := resolveProducts(ctx, lines, e.Catalog, e.concurrency())
	if err != nil {
		return PricedCart{}, err
	}
	if violations := checkLines(lines, products); len(violations) > 0 {
		return PricedCart{}, &ValidationError{Violations: violations}
	}
	policies, err := e.snapshot(ctx)
	if err != nil {
		return PricedCart{}, err
	}
	return evaluate(lines, products, policies), nil
}

// Validate returns the violations for the cart without pricing it. Lookup failures are
// returned as errors, not violations.
func (e *Engine) Validate(ctx context.Context, lines []CartLine) ([]Violation, error) {
	if err := e.configured(); err != nil {
		return nil, err
	}
	products, err := resolveProducts(ctx, lines, e.Catalog, e.concurrency())
	if err != nil {
		return nil, err
	}
	return checkLines(lines, products), nil
}

func (e *Engine) snapshot(ctx context.Context) ([]Policy, error) {
	policies, err := e.Policies.ActivePolicies(ctx, e.now())
	if err != nil {
		return nil, fmt.Errorf("load active policies: %w", err)
	}
	return policies, nil
}

// Evaluate prices lines against an in-memory product set and policy snapshot.
// Products absent from the map or inactive are dropped.
func Evaluate(lines []CartLine, products map[uuid.UUID]Product, policies []Policy) PricedCart {
	resolved := make([]resolvedProduct, len(lines))
	for i, line := range lines {
		p, ok := products[line.ProductID]
		resolved[i] = resolvedProduct{product: p, found: ok}
	}
	return evaluate(lines, resolved, policies)
}

type resolvedProduct struct {
	product Product
	found   bool
}

// resolveProducts looks up every line's product concurrently, preserving cart order.
func resolveProducts(ctx context.Context, lines []CartLine, catalog CatalogLookup, limit int) ([]resolvedProduct, error) {
	out := make([]resolvedProduct, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, line := range lines {
		g.Go(func() error {
			p, ok, err := catalog.LookupProduct(gctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("lookup product %s: %w", line.ProductID, err)
			}
			out[i] = resolvedProduct{product: p, found: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func evaluate(lines []CartLine, products []resolvedProduct, policies []Policy) PricedCart {
	cart := PricedCart{
		Lines:         make([]PricedLine, 0, len(lines)),
		Subtotal:      decimal.Zero,
		LineDiscount:  decimal.Zero,
		OrderDiscount: decimal.Zero,
	}
	for i, line := range lines {
		rp := products[i]
		if !rp.found || !rp.product.Active {
			continue
		}
		product := rp.product
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		discount := decimal.Zero
		for _, policy := range MatchLine(product, line, subtotal, policies) {
			amount := AmountFor(policy, subtotal)
			discount = discount.Add(amount)
			productID := product.ID
			cart.AppliedPolicies = append(cart.AppliedPolicies, applied(policy, &productID, amount))
		}
		cart.Lines = append(cart.Lines, PricedLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
			Discount:  discount,
			Final:     subtotal.Sub(discount),
		})
		cart.Subtotal = cart.Subtotal.Add(subtotal)
		cart.LineDiscount = cart.LineDiscount.Add(discount)
		cart.ItemCount += line.Quantity
	}

	if matched := MatchOrder(cart.Subtotal, policies); len(matched) > 0 {
		first := matched[0]
		cart.OrderDiscount = AmountFor(first, cart.Subtotal)
		cart.AppliedPolicies = append(cart.AppliedPolicies, applied(first, nil, cart.OrderDiscount))
	}

	cart.Discount = cart.LineDiscount.Add(cart.OrderDiscount)
	cart.Final = cart.Subtotal.Sub(cart.Discount)
	return cart
}

func applied(p Policy, productID *uuid.UUID, amount decimal.Decimal) AppliedPolicy {
	return AppliedPolicy{
		PolicyID:  p.ID,
		Name:      p.Name,
		Target:    p.Target,
		Type:      p.Type,
		ProductID: productID,
		Amount:    amount,
	}
}
