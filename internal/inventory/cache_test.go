package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.GetSummary(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)

	want := Summary{
		Products:    3,
		UnitsOnHand: 42,
		StockValue:  decimal.RequireFromString("99.50"),
		RetailValue: decimal.RequireFromString("150.25"),
		LowStock:    1,
	}
	require.NoError(t, cache.SetSummary(ctx, want))

	got, err := cache.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, want.Products, got.Products)
	require.Equal(t, want.UnitsOnHand, got.UnitsOnHand)
	require.True(t, want.StockValue.Equal(got.StockValue))
	require.True(t, want.RetailValue.Equal(got.RetailValue))
	require.Equal(t, want.LowStock, got.LowStock)
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSummary(ctx, Summary{Products: 1}))
	require.NoError(t, cache.Invalidate(ctx))

	_, err := cache.GetSummary(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSummary(ctx, Summary{Products: 1}))
	mr.FastForward(2 * time.Minute)

	_, err := cache.GetSummary(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheNilSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	_, err := cache.GetSummary(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, cache.SetSummary(ctx, Summary{}))
	require.NoError(t, cache.Invalidate(ctx))
}
