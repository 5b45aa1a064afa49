package http

import (
	"github.com/aq2208/gpos-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/gpos-checkout/internal/logging"
	"github.com/aq2208/gpos-checkout/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Token    *TokenHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Sale     *SaleHandler
}

func NewRouter(h Handlers, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics(), middleware.Logging(logging.New("http")))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/token", h.Token.IssueToken)

		cart := v1.Group("/cart", authz.Require(security.PermCartWrite))
		cart.GET("", h.Cart.Get)
		cart.PUT("", h.Cart.Put)
		cart.DELETE("", h.Cart.Clear)

		co := v1.Group("/checkouts", authz.Require(security.PermCheckoutWrite))
		co.POST("", h.Checkout.Start)
		co.GET("/:id", h.Checkout.Get)
		co.POST("/:id/next", h.Checkout.Next)
		co.POST("/:id/back", h.Checkout.Back)
		co.POST("/:id/retry", h.Checkout.Retry)
		co.POST("/:id/goto", h.Checkout.GoTo)
		co.POST("/:id/sale", h.Checkout.CreateSale)
		co.POST("/:id/payments", h.Checkout.RecordPayments)
		co.POST("/:id/finalize", h.Checkout.Finalize)
		co.POST("/:id/complete", h.Checkout.Complete)
		co.DELETE("/:id", h.Checkout.Cancel)

		v1.GET("/sales/:id", authz.Require(security.PermSalesRead), h.Sale.GetByID)
	}
	return r
}
