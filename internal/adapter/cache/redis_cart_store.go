package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisCartStore keeps one JSON cart per shop and user.
type RedisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCartStore(rdb *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{rdb: rdb, ttl: ttl}
}

func cartKey(shopID, userID string) string { return "cart:" + shopID + ":" + userID }

// Load returns an empty cart when none is stored.
func (s *RedisCartStore) Load(ctx context.Context, shopID, userID string) (domain.Cart, error) {
	raw, err := s.rdb.Get(ctx, cartKey(shopID, userID)).Bytes()
	if err == redis.Nil {
		return domain.Cart{}, nil
	}
	if err != nil {
		return domain.Cart{}, err
	}
	var c domain.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

func (s *RedisCartStore) Save(ctx context.Context, shopID, userID string, c domain.Cart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.rdb.Set(ctx, cartKey(shopID, userID), b, s.ttl).Err()
}

func (s *RedisCartStore) Delete(ctx context.Context, shopID, userID string) error {
	return s.rdb.Del(ctx, cartKey(shopID, userID)).Err()
}

var _ usecase.CartStore = (*RedisCartStore)(nil)
