package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/resilience"
)

type countingStore struct {
	catalog.Store
	gets int
	err  error
}

func (s *countingStore) Get(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	s.gets++
	if s.err != nil {
		return catalog.Product{}, s.err
	}
	return s.Store.Get(ctx, id)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedLookupServesHitsFromRedis(t *testing.T) {
	mr, client := newRedis(t)
	store := &countingStore{Store: seededStore()}
	metrics := obs.NewPricingMetrics("test", prometheus.NewRegistry())
	lookup := &catalog.CachedLookup{
		Store:   store,
		Cache:   catalog.NewCache(client, time.Minute),
		Metrics: metrics,
		Logger:  zerolog.Nop(),
	}
	ctx := context.Background()

	first, ok, err := lookup.LookupProduct(ctx, galaxyID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, first.Price.Equal(decimal.RequireFromString("1200000")))
	require.True(t, mr.Exists("catalog:products:"+galaxyID.String()))

	second, ok, err := lookup.LookupProduct(ctx, galaxyID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first.Name, second.Name)
	require.Equal(t, "Samsung", second.Brand)
	require.Equal(t, 1, store.gets)

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogCache.WithLabelValues("miss")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogCache.WithLabelValues("hit")))
}

func TestCachedLookupMissingProduct(t *testing.T) {
	mr, client := newRedis(t)
	lookup := &catalog.CachedLookup{Store: seededStore(), Cache: catalog.NewCache(client, time.Minute), Logger: zerolog.Nop()}

	unknown := uuid.New()
	_, ok, err := lookup.LookupProduct(context.Background(), unknown)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, mr.Exists("catalog:products:"+unknown.String()))
}

func TestCachedLookupKeepsInactiveProducts(t *testing.T) {
	_, client := newRedis(t)
	lookup := &catalog.CachedLookup{Store: seededStore(), Cache: catalog.NewCache(client, time.Minute), Logger: zerolog.Nop()}

	p, ok, err := lookup.LookupProduct(context.Background(), retiredID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, p.Active)
}

func TestCachedLookupFallsBackWhenRedisIsDown(t *testing.T) {
	mr, client := newRedis(t)
	store := &countingStore{Store: seededStore()}
	metrics := obs.NewPricingMetrics("test", prometheus.NewRegistry())
	lookup := &catalog.CachedLookup{Store: store, Cache: catalog.NewCache(client, time.Minute), Metrics: metrics, Logger: zerolog.Nop()}
	mr.Close()

	p, ok, err := lookup.LookupProduct(context.Background(), nikeID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Air Max", p.Name)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogCache.WithLabelValues("error")))
}

func TestCachedLookupBypassesRedisWhileBreakerIsOpen(t *testing.T) {
	mr, client := newRedis(t)
	store := &countingStore{Store: seededStore()}
	metrics := obs.NewPricingMetrics("test", prometheus.NewRegistry())
	breaker := resilience.NewBreaker(resilience.Config{
		Target:      "catalog_cache",
		MinRequests: 1,
		OpenFor:     time.Hour,
		Logger:      zerolog.Nop(),
	})
	lookup := &catalog.CachedLookup{
		Store:   store,
		Cache:   catalog.NewCache(client, time.Minute),
		Breaker: breaker,
		Metrics: metrics,
		Logger:  zerolog.Nop(),
	}
	mr.Close()
	ctx := context.Background()

	_, ok, err := lookup.LookupProduct(ctx, nikeID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, resilience.Open, breaker.State())

	_, ok, err = lookup.LookupProduct(ctx, galaxyID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, store.gets)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogCache.WithLabelValues("error")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogCache.WithLabelValues("bypass")))
}

func TestCachedLookupPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	lookup := &catalog.CachedLookup{Store: &countingStore{Store: seededStore(), err: boom}, Logger: zerolog.Nop()}

	_, _, err := lookup.LookupProduct(context.Background(), galaxyID)
	require.ErrorIs(t, err, boom)
}

func TestProductWritesInvalidateCache(t *testing.T) {
	mr, client := newRedis(t)
	store := seededStore()
	cache := catalog.NewCache(client, time.Minute)
	lookup := &catalog.CachedLookup{Store: store, Cache: cache, Logger: zerolog.Nop()}
	svc, err := catalog.NewService(catalog.ServiceConfig{Store: store, Cache: cache, Logger: zerolog.Nop()})
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = lookup.LookupProduct(ctx, iphoneID)
	require.NoError(t, err)
	require.True(t, mr.Exists("catalog:products:"+iphoneID.String()))

	require.NoError(t, svc.Delete(ctx, iphoneID))
	require.False(t, mr.Exists("catalog:products:"+iphoneID.String()))

	p, ok, err := lookup.LookupProduct(ctx, iphoneID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, p.Active)
}

func TestProductUpdateRefreshesCachedStockAndPrice(t *testing.T) {
	mr, client := newRedis(t)
	store := seededStore()
	cache := catalog.NewCache(client, time.Hour)
	lookup := &catalog.CachedLookup{Store: store, Cache: cache, Logger: zerolog.Nop()}
	svc, err := catalog.NewService(catalog.ServiceConfig{Store: store, Cache: cache, Logger: zerolog.Nop()})
	require.NoError(t, err)
	ctx := context.Background()

	before, ok, err := lookup.LookupProduct(ctx, iphoneID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 30, before.Stock)

	_, err = svc.Update(ctx, iphoneID, catalog.Input{
		Name:     "iPhone 15",
		Price:    decimal.RequireFromString("1400000"),
		Stock:    2,
		Category: "Electronics",
		Brand:    "Apple",
		SKU:      "APL-15",
	})
	require.NoError(t, err)
	require.False(t, mr.Exists("catalog:products:"+iphoneID.String()))

	after, ok, err := lookup.LookupProduct(ctx, iphoneID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, after.Stock)
	require.True(t, decimal.RequireFromString("1400000").Equal(after.Price))
}
