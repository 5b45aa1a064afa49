package usecase

import (
	"context"
	"sync"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
)

// StoredCart binds one shop/user cart in a CartStore to a checkout.
// Cart() serves the last loaded snapshot; call Refresh before each operation.
type StoredCart struct {
	store  CartStore
	shopID string
	userID string

	mu   sync.RWMutex
	snap domain.Cart
}

func NewStoredCart(store CartStore, shopID, userID string) *StoredCart {
	return &StoredCart{store: store, shopID: shopID, userID: userID}
}

func (c *StoredCart) Refresh(ctx context.Context) error {
	cart, err := c.store.Load(ctx, c.shopID, c.userID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.snap = cart
	c.mu.Unlock()
	return nil
}

func (c *StoredCart) Cart() domain.Cart {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *StoredCart) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.shopID, c.userID); err != nil {
		return err
	}
	c.mu.Lock()
	c.snap = domain.Cart{}
	c.mu.Unlock()
	return nil
}

var _ CartSource = (*StoredCart)(nil)
