package cache

import (
	"context"
	"os"
	"testing"
	"time"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a live Redis: GPOS_TEST_REDIS_ADDR=localhost:6379
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("GPOS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GPOS_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisCartStore_RoundTrip(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	store := NewRedisCartStore(rdb, time.Minute)
	shop, user := "shop-"+uuid.NewString(), "user-1"

	empty, err := store.Load(ctx, shop, user)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	cart := domain.Cart{
		Items:    []domain.CartItem{{ItemID: "ring", UnitPrice: decimal.RequireFromString("1299.90"), Quantity: 1}},
		Customer: &domain.Customer{ID: "cust-1"},
		Notes:    "resize to 7",
	}
	require.NoError(t, store.Save(ctx, shop, user, cart))

	got, err := store.Load(ctx, shop, user)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, cart.Items[0].UnitPrice.Equal(got.Items[0].UnitPrice))
	assert.Equal(t, "resize to 7", got.Notes)

	require.NoError(t, store.Delete(ctx, shop, user))
	got, err = store.Load(ctx, shop, user)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestRedisIdempotencyStore_LockRememberRelease(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	s := NewRedisIdempotencyStore(rdb, time.Minute)
	scope, key := "shop:"+uuid.NewString(), "k"

	ok, err := s.TryLock(ctx, scope, key)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.TryLock(ctx, scope, key)
	assert.False(t, ok)

	require.NoError(t, s.Release(ctx, scope, key))
	ok, _ = s.TryLock(ctx, scope, key)
	assert.True(t, ok)

	_, found, err := s.Recall(ctx, scope, key)
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, s.Remember(ctx, scope, key, "sale-1"))
	v, found, err := s.Recall(ctx, scope, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sale-1", v)
}

func TestRedisCache_Status(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	c := NewRedisCache(rdb, time.Minute)
	id := uuid.NewString()

	v, err := c.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, v)
	require.NoError(t, c.SetStatus(ctx, id, "COMPLETED"))
	v, err = c.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", v)
}
