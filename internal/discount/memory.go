package discount

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// MemoryStore keeps policies in a slice; insertion order is source order.
type MemoryStore struct {
	mu       sync.RWMutex
	policies []pricing.Policy
}

// NewMemoryStore returns a store holding policies in the given order.
func NewMemoryStore(policies ...pricing.Policy) *MemoryStore {
	return &MemoryStore{policies: append([]pricing.Policy(nil), policies...)}
}

func (s *MemoryStore) ActivePolicies(_ context.Context, now time.Time) ([]pricing.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pricing.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		if p.ActiveAt(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) List(context.Context) ([]pricing.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]pricing.Policy(nil), s.policies...), nil
}

func (s *MemoryStore) Create(_ context.Context, p pricing.Policy) (pricing.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, p)
	return p, nil
}
