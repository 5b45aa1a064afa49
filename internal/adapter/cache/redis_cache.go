package cache

import (
	"context"
	"time"

	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps the latest known status per sale.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func statusKey(saleID string) string { return "sale:status:" + saleID }

func (r *RedisCache) SetStatus(ctx context.Context, saleID string, status string) error {
	return r.rdb.Set(ctx, statusKey(saleID), status, r.ttl).Err()
}

// GetStatus returns "" when nothing is cached.
func (r *RedisCache) GetStatus(ctx context.Context, saleID string) (string, error) {
	val, err := r.rdb.Get(ctx, statusKey(saleID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

var _ usecase.SaleStatusCache = (*RedisCache)(nil)
