package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aq2208/gpos-checkout/internal/adapter/http/middleware"
	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	carts   usecase.CartStore
	timeout time.Duration
}

func NewCartHandler(carts usecase.CartStore, timeout time.Duration) *CartHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &CartHandler{carts: carts, timeout: timeout}
}

// GET /v1/cart
func (h *CartHandler) Get(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.Load(ctx, p.ShopID, p.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	c.JSON(http.StatusOK, cart)
}

// PUT /v1/cart replaces the caller's cart.
func (h *CartHandler) Put(c *gin.Context) {
	var cart domain.Cart
	if err := c.ShouldBindJSON(&cart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	if msg := validateCart(cart); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cart", "message": msg})
		return
	}

	p, _ := middleware.PrincipalFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	if err := h.carts.Save(ctx, p.ShopID, p.UserID, cart); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// DELETE /v1/cart
func (h *CartHandler) Clear(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	if err := h.carts.Delete(ctx, p.ShopID, p.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func validateCart(cart domain.Cart) string {
	for _, it := range cart.Items {
		switch {
		case it.ItemID == "":
			return "item id required"
		case it.Quantity <= 0:
			return "quantity must be positive for item " + it.ItemID
		case it.UnitPrice.IsNegative():
			return "unit price must not be negative for item " + it.ItemID
		case !validDiscount(it.Discount):
			return "invalid discount for item " + it.ItemID
		}
	}
	if !validDiscount(cart.Discount) {
		return "invalid order discount"
	}
	return ""
}

func validDiscount(d *domain.Discount) bool {
	return d == nil || (d.Type.Valid() && !d.Value.IsNegative())
}
