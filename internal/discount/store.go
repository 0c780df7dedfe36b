package discount

import (
	"context"
	"time"

	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Store persists policies in creation order.
type Store interface {
	// ActivePolicies implements pricing.PolicySource.
	ActivePolicies(ctx context.Context, now time.Time) ([]pricing.Policy, error)
	List(ctx context.Context) ([]pricing.Policy, error)
	Create(ctx context.Context, p pricing.Policy) (pricing.Policy, error)
}
