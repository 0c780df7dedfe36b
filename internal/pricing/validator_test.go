package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestValidateReportsOneViolationPerLine(t *testing.T) {
	inStock := product("100", 5)
	inactive := product("100", 5)
	inactive.Active = false
	unknown := uuid.New()
	catalog := &fakeCatalog{products: map[uuid.UUID]Product{inStock.ID: inStock, inactive.ID: inactive}}

	engine := &Engine{Catalog: catalog, Policies: &fakePolicies{}}
	violations, err := engine.Validate(context.Background(), []CartLine{
		{ProductID: inStock.ID, Quantity: 5},
		{ProductID: inStock.ID, Quantity: 6},
		{ProductID: inStock.ID, Quantity: 0},
		{ProductID: unknown, Quantity: 0},
		{ProductID: inactive.ID, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, violations, 4)

	require.Equal(t, 1, violations[0].Index)
	require.Equal(t, "insufficient stock, requested 6, available 5", violations[0].Reason)
	require.Equal(t, 2, violations[1].Index)
	require.Equal(t, "quantity must be at least 1", violations[1].Reason)
	require.Equal(t, 3, violations[2].Index)
	require.Equal(t, "product not found", violations[2].Reason)
	require.Equal(t, unknown, violations[2].ProductID)
	require.Equal(t, 4, violations[3].Index)
	require.Equal(t, "product not found", violations[3].Reason)
}

func TestValidateEmptyCart(t *testing.T) {
	engine := &Engine{Catalog: &fakeCatalog{}, Policies: &fakePolicies{}}
	violations, err := engine.Validate(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestValidateNegativeQuantity(t *testing.T) {
	p := product("100", 5)
	engine, _, _ := newEngine([]Product{p})
	violations, err := engine.Validate(context.Background(), []CartLine{{ProductID: p.ID, Quantity: -3}})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, reasonQuantityTooLow, violations[0].Reason)
}

func TestValidationErrorMessages(t *testing.T) {
	id := uuid.MustParse("6f1c1d5e-2f4a-4d8b-9a55-0d7c1c3f0b11")
	err := &ValidationError{Violations: []Violation{
		{ProductID: id, Reason: "product not found"},
		{ProductID: id, Reason: "quantity must be at least 1"},
	}}
	require.Equal(t, []string{
		"product 6f1c1d5e-2f4a-4d8b-9a55-0d7c1c3f0b11: product not found",
		"product 6f1c1d5e-2f4a-4d8b-9a55-0d7c1c3f0b11: quantity must be at least 1",
	}, err.Messages())
	require.ErrorIs(t, err, ErrValidationFailed)
	require.Equal(t, "validation failed: "+err.Messages()[0]+", "+err.Messages()[1], err.Error())
}

type gatedCatalog struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (g *gatedCatalog) LookupProduct(_ context.Context, id uuid.UUID) (Product, bool, error) {
	g.mu.Lock()
	g.inFlight++
	g.peak = max(g.peak, g.inFlight)
	g.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return Product{ID: id, Price: dec("1"), Stock: 10, Active: true}, true, nil
}

func TestValidateHonoursEngineConcurrency(t *testing.T) {
	catalog := &gatedCatalog{}
	engine := &Engine{Catalog: catalog, Policies: &fakePolicies{}, Concurrency: 2}

	lines := make([]CartLine, 8)
	for i := range lines {
		lines[i] = CartLine{ProductID: uuid.New(), Quantity: 1}
	}
	violations, err := engine.Validate(context.Background(), lines)
	require.NoError(t, err)
	require.Empty(t, violations)
	require.LessOrEqual(t, catalog.peak, 2)
}
