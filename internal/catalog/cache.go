package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/resilience"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Delete removes keys from the cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func productCacheKey(id uuid.UUID) string {
	return "catalog:products:" + id.String()
}

// CachedLookup serves pricing lookups from Redis, falling back to Store.
// Cache failures degrade to the store; only store failures are returned.
// Without a cache every lookup goes straight to the store. An open Breaker
// skips Redis entirely until it recovers.
type CachedLookup struct {
	Store   Store
	Cache   *Cache
	Breaker *resilience.Breaker
	Metrics *obs.PricingMetrics
	Logger  zerolog.Logger
}

// LookupProduct implements pricing.CatalogLookup.
func (l *CachedLookup) LookupProduct(ctx context.Context, id uuid.UUID) (pricing.Product, bool, error) {
	if !l.Cache.enabled() {
		return l.fromStore(ctx, id)
	}
	if !l.Breaker.Allow(ctx) {
		l.Metrics.ObserveCache("bypass")
		return l.fromStore(ctx, id)
	}
	key := productCacheKey(id)
	var cached Product
	ok, err := l.Cache.GetJSON(ctx, key, &cached)
	l.Breaker.Report(ctx, err == nil)
	switch {
	case err != nil:
		l.Metrics.ObserveCache("error")
		l.Logger.Warn().Err(err).Str("product_id", id.String()).Msg("catalog_cache_read_failed")
		return l.fromStore(ctx, id)
	case ok:
		l.Metrics.ObserveCache("hit")
		return cached.ForPricing(), true, nil
	default:
		l.Metrics.ObserveCache("miss")
	}

	product, found, err := l.load(ctx, id)
	if err != nil || !found {
		return pricing.Product{}, found, err
	}
	if err := l.Cache.SetJSON(ctx, key, product); err != nil {
		l.Logger.Warn().Err(err).Str("product_id", id.String()).Msg("catalog_cache_write_failed")
	}
	return product.ForPricing(), true, nil
}

func (l *CachedLookup) fromStore(ctx context.Context, id uuid.UUID) (pricing.Product, bool, error) {
	product, found, err := l.load(ctx, id)
	if err != nil || !found {
		return pricing.Product{}, found, err
	}
	return product.ForPricing(), true, nil
}

func (l *CachedLookup) load(ctx context.Context, id uuid.UUID) (Product, bool, error) {
	product, err := l.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, false, nil
		}
		return Product{}, false, err
	}
	return product, true, nil
}
