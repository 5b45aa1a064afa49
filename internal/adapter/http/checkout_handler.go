package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aq2208/gpos-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/gpos-checkout/internal/adapter/notify"
	"github.com/aq2208/gpos-checkout/internal/adapter/observ"
	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/logging"
	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CheckoutDefaults are the shop-wide settings every session runs with.
type CheckoutDefaults struct {
	Currency       string
	TaxRate        decimal.Decimal
	RequestTimeout time.Duration
}

type CheckoutHandler struct {
	sales    usecase.SaleOperations
	carts    usecase.CartStore
	sessions *SessionRegistry
	metrics  *observ.CheckoutMetrics
	defaults CheckoutDefaults
}

func NewCheckoutHandler(sales usecase.SaleOperations, carts usecase.CartStore, sessions *SessionRegistry, metrics *observ.CheckoutMetrics, d CheckoutDefaults) *CheckoutHandler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 5 * time.Second
	}
	return &CheckoutHandler{sales: sales, carts: carts, sessions: sessions, metrics: metrics, defaults: d}
}

type checkoutView struct {
	ID         string                 `json:"id"`
	Active     bool                   `json:"active"`
	State      usecase.CheckoutState  `json:"state"`
	Totals     usecase.CheckoutTotals `json:"totals"`
	StepIndex  int                    `json:"stepIndex"`
	TotalSteps int                    `json:"totalSteps"`
	CanProceed bool                   `json:"canProceed"`
	CanGoBack  bool                   `json:"canGoBack"`
	Notices    []notify.Notice        `json:"notices"`
	Result     any                    `json:"result,omitempty"`
}

func (s *checkoutSession) view(result any) checkoutView {
	return checkoutView{
		ID:         s.id,
		Active:     s.ctrl.IsActive(),
		State:      s.ctrl.State(),
		Totals:     s.ctrl.Totals(),
		StepIndex:  s.ctrl.StepIndex(),
		TotalSteps: s.ctrl.TotalSteps(),
		CanProceed: s.ctrl.CanProceed(),
		CanGoBack:  s.ctrl.CanGoBack(),
		Notices:    s.notices.Drain(),
		Result:     result,
	}
}

func (h *CheckoutHandler) newSession(c *gin.Context, p middleware.Principal) *checkoutSession {
	s := &checkoutSession{
		id:      h.sessions.newID(),
		shopID:  p.ShopID,
		userID:  p.UserID,
		cart:    usecase.NewStoredCart(h.carts, p.ShopID, p.UserID),
		notices: notify.NewBuffer(logging.From(c)),
	}
	identity := domain.Identity{
		ShopID:   p.ShopID,
		UserID:   p.UserID,
		Currency: h.defaults.Currency,
		TaxRate:  h.defaults.TaxRate,
	}
	s.ctrl = usecase.NewCheckoutController(usecase.CheckoutDeps{
		Cart:     s.cart,
		Identity: usecase.IdentityFunc(func() domain.Identity { return identity }),
		Sales:    h.sales,
		Notify:   s.notices,
		Logger:   logging.New("checkout").With("session_id", s.id, "shop_id", p.ShopID),
	}, usecase.Callbacks{
		OnComplete: func(sale domain.Sale) {
			s.completed = &sale
			h.metrics.Completed()
		},
		OnCancel: h.metrics.Cancelled,
		OnError:  func(string) { h.metrics.Failed() },
	})
	return s
}

// POST /v1/checkouts
func (h *CheckoutHandler) Start(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	s := h.newSession(c, p)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.defaults.RequestTimeout)
	defer cancel()
	if err := s.cart.Refresh(ctx); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errCartUnavailable, err))
		return
	}
	if !s.ctrl.StartCheckout() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "empty_cart", "notices": s.notices.Drain()})
		return
	}
	h.sessions.add(s)
	h.metrics.Started()
	c.JSON(http.StatusCreated, s.view(nil))
}

// withSession runs fn under the session lock with a freshly loaded cart.
// fn returns the result payload and whether the operation succeeded.
// An error result is written through writeError in place of the view.
func (h *CheckoutHandler) withSession(c *gin.Context, fn func(ctx context.Context, s *checkoutSession) (any, bool)) {
	p, _ := middleware.PrincipalFrom(c)
	s, err := h.sessions.get(c.Param("id"), p.ShopID, p.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.defaults.RequestTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.Refresh(ctx); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errCartUnavailable, err))
		return
	}
	result, ok := fn(ctx, s)
	if err, isErr := result.(error); isErr {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, s.view(result))
}

// GET /v1/checkouts/:id
func (h *CheckoutHandler) Get(c *gin.Context) {
	h.withSession(c, func(context.Context, *checkoutSession) (any, bool) { return nil, true })
}

// POST /v1/checkouts/:id/next
func (h *CheckoutHandler) Next(c *gin.Context) {
	h.withSession(c, func(_ context.Context, s *checkoutSession) (any, bool) {
		moved := s.ctrl.NextStep()
		return gin.H{"moved": moved}, moved
	})
}

// POST /v1/checkouts/:id/back
func (h *CheckoutHandler) Back(c *gin.Context) {
	h.withSession(c, func(_ context.Context, s *checkoutSession) (any, bool) {
		moved := s.ctrl.PreviousStep()
		return gin.H{"moved": moved}, moved
	})
}

// POST /v1/checkouts/:id/retry
func (h *CheckoutHandler) Retry(c *gin.Context) {
	h.withSession(c, func(_ context.Context, s *checkoutSession) (any, bool) {
		moved := s.ctrl.RetryCheckout()
		return gin.H{"moved": moved}, moved
	})
}

type gotoReq struct {
	Step string `json:"step" binding:"required"`
}

// POST /v1/checkouts/:id/goto
func (h *CheckoutHandler) GoTo(c *gin.Context) {
	var req gotoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	step, ok := domain.ParseStep(req.Step)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_step"})
		return
	}
	h.withSession(c, func(_ context.Context, s *checkoutSession) (any, bool) {
		moved := s.ctrl.GoToStep(step)
		return gin.H{"moved": moved}, moved
	})
}

// POST /v1/checkouts/:id/sale
// The idempotency key is always scoped to the session; X-Idempotency-Key only narrows it.
func (h *CheckoutHandler) CreateSale(c *gin.Context) {
	header := c.GetHeader("X-Idempotency-Key")
	h.withSession(c, func(ctx context.Context, s *checkoutSession) (any, bool) {
		key := "checkout:" + s.id
		if header != "" {
			key += ":" + header
		}
		hadSale := s.ctrl.State().Sale != nil
		sale, outcomes := s.ctrl.CreateSaleFromCart(ctx, key)
		if sale == nil {
			return nil, false
		}
		if !hadSale {
			failed := 0
			for _, o := range outcomes {
				if o.Failed() {
					failed++
				}
			}
			h.metrics.LineItems(len(outcomes)-failed, failed)
		}
		return gin.H{"sale": sale, "items": outcomes}, true
	})
}

type paymentsReq struct {
	Payments []paymentReq `json:"payments" binding:"required,min=1,dive"`
}

type paymentReq struct {
	PaymentType domain.PaymentType `json:"paymentType" binding:"required"`
	Amount      decimal.Decimal    `json:"amount"`
	Reference   string             `json:"reference"`
	Notes       string             `json:"notes"`
}

// POST /v1/checkouts/:id/payments
func (h *CheckoutHandler) RecordPayments(c *gin.Context) {
	var req paymentsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	in := make([]usecase.PaymentInput, 0, len(req.Payments))
	for _, p := range req.Payments {
		if !p.PaymentType.Valid() || !p.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payment", "paymentType": p.PaymentType})
			return
		}
		in = append(in, usecase.PaymentInput{PaymentType: p.PaymentType, Amount: p.Amount, Reference: p.Reference, Notes: p.Notes})
	}

	h.withSession(c, func(ctx context.Context, s *checkoutSession) (any, bool) {
		ok, outcomes := s.ctrl.RecordPayments(ctx, in)
		var recorded, skipped, failed int
		for _, o := range outcomes {
			switch {
			case o.Skipped:
				skipped++
			case o.Error != "":
				failed++
			case o.Payment != nil:
				recorded++
			}
		}
		h.metrics.Payments(recorded, skipped, failed)
		return gin.H{"recorded": ok, "payments": outcomes}, ok
	})
}

// POST /v1/checkouts/:id/finalize
func (h *CheckoutHandler) Finalize(c *gin.Context) {
	h.withSession(c, func(ctx context.Context, s *checkoutSession) (any, bool) {
		if !s.ctrl.FinalizeSale(ctx) {
			return nil, false
		}
		return gin.H{"sale": s.completed}, true
	})
}

// POST /v1/checkouts/:id/complete
func (h *CheckoutHandler) Complete(c *gin.Context) {
	h.withSession(c, func(ctx context.Context, s *checkoutSession) (any, bool) {
		if s.ctrl.State().CurrentStep != domain.StepComplete {
			return errNotComplete, false
		}
		sale := s.completed
		s.ctrl.ClearAndComplete(ctx)
		h.sessions.remove(s.id)
		return gin.H{"sale": sale}, true
	})
}

// DELETE /v1/checkouts/:id
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	h.withSession(c, func(_ context.Context, s *checkoutSession) (any, bool) {
		s.ctrl.CancelCheckout()
		h.sessions.remove(s.id)
		return nil, true
	})
}
