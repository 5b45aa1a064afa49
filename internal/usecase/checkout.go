package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/logging"
)

const (
	msgEmptyCart        = "Cart is empty. Add items before checkout."
	msgCreateSaleFailed = "Failed to create sale"
	msgPaymentFailed    = "Failed to record payment"
	msgFinalizeFailed   = "Failed to complete sale"
	msgNoSale           = "No sale to complete"
	msgNoSaleForPayment = "No sale to record payments against"
)

type CheckoutDeps struct {
	Cart     CartSource
	Identity IdentitySource
	Sales    SaleOperations
	Notify   Notifier
	Logger   *slog.Logger
	// Now defaults to time.Now; the sale date is taken from it.
	Now func() time.Time
}

// CheckoutController turns a cart into a persisted, paid and completed sale.
// It is not safe for concurrent use; callers serialize access per session.
type CheckoutController struct {
	cart     CartSource
	identity IdentitySource
	sales    SaleOperations
	notify   Notifier
	cb       Callbacks
	log      *slog.Logger
	now      func() time.Time

	active bool
	state  CheckoutState
}

func NewCheckoutController(d CheckoutDeps, cb Callbacks) *CheckoutController {
	c := &CheckoutController{
		cart:     d.Cart,
		identity: d.Identity,
		sales:    d.Sales,
		notify:   d.Notify,
		cb:       cb,
		log:      d.Logger,
		now:      d.Now,
		state:    initialState(),
	}
	if c.log == nil {
		c.log = logging.New("checkout")
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.notify == nil {
		c.notify = nopNotifier{}
	}
	return c
}

// StartCheckout opens a fresh session. An empty cart leaves everything untouched.
func (c *CheckoutController) StartCheckout() bool {
	if c.cart.Cart().IsEmpty() {
		c.notify.Error(msgEmptyCart)
		return false
	}
	c.active = true
	c.state = initialState()
	c.log.Info("checkout started", "items", len(c.cart.Cart().Items))
	return true
}

func (c *CheckoutController) CancelCheckout() {
	c.active = false
	c.state = initialState()
	c.log.Info("checkout cancelled")
	if c.cb.OnCancel != nil {
		c.cb.OnCancel()
	}
}

// RetryCheckout leaves the error step for review, keeping the sale and payments.
// It does nothing from any other step.
func (c *CheckoutController) RetryCheckout() bool {
	if c.state.CurrentStep != domain.StepError {
		return false
	}
	c.state.CurrentStep = domain.StepReview
	c.state.Error = ""
	c.state.IsProcessing = false
	return true
}

// CreateSaleFromCart persists the sale header, then attaches each cart line in order.
// Line failures are recorded in the returned outcomes and do not abort the batch.
func (c *CheckoutController) CreateSaleFromCart(ctx context.Context, idempotencyKey string) (*domain.Sale, []LineItemOutcome) {
	if c.state.Sale != nil {
		sale := *c.state.Sale
		return &sale, c.state.ItemOutcomes
	}
	id := c.identity.Identity()
	if id.ShopID == "" || id.UserID == "" {
		c.fail(ErrMissingIdentity.Error())
		return nil, nil
	}

	cart := c.cart.Cart()
	totals := ComputeTotals(cart.Items, cart.Discount, id.TaxRate, c.paidAmount())

	c.state.IsProcessing = true
	in := CreateSaleInput{
		ShopID:         id.ShopID,
		SaleDate:       c.now().Format("2006-01-02"),
		Currency:       id.Currency,
		DiscountAmount: totals.OrderDiscount,
		TaxAmount:      totals.TaxAmount,
		Notes:          cart.Notes,
		CreatedBy:      id.UserID,
		IdempotencyKey: idempotencyKey,
	}
	if cart.Customer != nil && cart.Customer.ID != "" {
		cid := cart.Customer.ID
		in.CustomerID = &cid
	}
	if cart.Discount != nil {
		dt := cart.Discount.Type
		in.DiscountType = &dt
		in.DiscountValue = cart.Discount.Value
	}

	sale, err := c.sales.CreateSale(ctx, in)
	if err != nil || sale == nil {
		c.fail(errMessage(err, msgCreateSaleFailed))
		return nil, nil
	}

	outcomes := make([]LineItemOutcome, 0, len(cart.Items))
	failed := 0
	for _, it := range cart.Items {
		item, err := c.sales.AddSaleItem(ctx, AddSaleItemInput{
			ShopID:    id.ShopID,
			SaleID:    sale.ID,
			ItemID:    it.ItemID,
			SKU:       it.SKU,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Discount:  it.Discount,
		})
		if err != nil {
			failed++
			msg := errMessage(err, "failed to add item")
			c.log.Warn("add sale item failed", "sale_id", sale.ID, "item_id", it.ItemID, "error", msg)
			outcomes = append(outcomes, LineItemOutcome{ItemID: it.ItemID, Error: msg})
			continue
		}
		outcomes = append(outcomes, LineItemOutcome{ItemID: it.ItemID, Item: item})
	}

	c.state.Sale = sale
	c.state.ItemOutcomes = outcomes
	c.state.IsProcessing = false
	c.log.Info("sale created", "sale_id", sale.ID, "items", len(cart.Items), "failed_items", failed)
	if failed > 0 {
		c.notify.Warning(fmt.Sprintf("Sale %s created, but %d of %d items could not be added", sale.SaleNumber, failed, len(cart.Items)))
	} else {
		c.notify.Success(fmt.Sprintf("Sale %s created", sale.SaleNumber))
	}
	out := *sale
	return &out, outcomes
}

// RecordPayments records tenders one at a time in input order. Walk-in tenders
// are held locally and recorded when the sale is finalized.
func (c *CheckoutController) RecordPayments(ctx context.Context, payments []PaymentInput) (bool, []PaymentOutcome) {
	cart := c.cart.Cart()
	if c.state.Sale == nil || cart.Customer == nil || cart.Customer.ID == "" {
		if cart.Customer == nil || cart.Customer.ID == "" {
			outcomes := c.deferPayments(payments)
			c.notify.Info("Walk-in sale: payments will be recorded when the sale is completed")
			return true, outcomes
		}
		c.fail(msgNoSaleForPayment)
		return false, nil
	}

	id := c.identity.Identity()
	c.state.IsProcessing = true
	outcomes := make([]PaymentOutcome, 0, len(payments))
	recorded := 0
	for _, p := range payments {
		out := PaymentOutcome{PaymentType: p.PaymentType, Amount: p.Amount}
		if p.PaymentType == domain.PaymentRefund {
			out.Skipped = true
			c.log.Warn("refund skipped in checkout", "sale_id", c.state.Sale.ID, "amount", p.Amount.String())
			c.notify.Warning("Refunds are handled separately and were skipped")
			outcomes = append(outcomes, out)
			continue
		}
		sp, err := c.sales.RecordPayment(ctx, RecordPaymentInput{
			ShopID:      id.ShopID,
			SaleID:      c.state.Sale.ID,
			PaymentType: p.PaymentType,
			Amount:      p.Amount,
			Reference:   p.Reference,
			Notes:       p.Notes,
			CreatedBy:   id.UserID,
		})
		if err != nil || sp == nil {
			out.Error = errMessage(err, msgPaymentFailed)
			c.log.Warn("record payment failed", "sale_id", c.state.Sale.ID, "type", string(p.PaymentType), "error", out.Error)
			outcomes = append(outcomes, out)
			continue
		}
		out.Payment = sp
		c.state.Payments = append(c.state.Payments, *sp)
		recorded++
		outcomes = append(outcomes, out)
	}
	c.state.PaymentOutcomes = outcomes
	c.state.IsProcessing = false

	if recorded > 0 {
		c.notify.Success(fmt.Sprintf("%d payment(s) recorded", recorded))
	} else {
		c.notify.Warning("No payments were recorded")
	}
	return recorded > 0, outcomes
}

func (c *CheckoutController) deferPayments(payments []PaymentInput) []PaymentOutcome {
	outcomes := make([]PaymentOutcome, 0, len(payments))
	for _, p := range payments {
		out := PaymentOutcome{PaymentType: p.PaymentType, Amount: p.Amount}
		if p.PaymentType == domain.PaymentRefund {
			out.Skipped = true
			c.notify.Warning("Refunds are handled separately and were skipped")
		} else {
			c.state.DeferredPayments = append(c.state.DeferredPayments, p)
		}
		outcomes = append(outcomes, out)
	}
	c.state.PaymentOutcomes = outcomes
	return outcomes
}

// FinalizeSale records any held walk-in tenders and completes the sale.
func (c *CheckoutController) FinalizeSale(ctx context.Context) bool {
	if c.state.Sale == nil {
		c.fail(msgNoSale)
		return false
	}
	c.state.CurrentStep = domain.StepProcessing
	c.state.IsProcessing = true

	id := c.identity.Identity()
	if len(c.state.DeferredPayments) > 0 {
		pending := c.state.DeferredPayments
		c.state.DeferredPayments = nil
		for i, p := range pending {
			sp, err := c.sales.RecordPayment(ctx, RecordPaymentInput{
				ShopID:      id.ShopID,
				SaleID:      c.state.Sale.ID,
				PaymentType: p.PaymentType,
				Amount:      p.Amount,
				Reference:   p.Reference,
				Notes:       p.Notes,
				CreatedBy:   id.UserID,
			})
			if err != nil || sp == nil {
				// keep the unrecorded remainder so a retry can flush it
				c.state.DeferredPayments = append(c.state.DeferredPayments, pending[i:]...)
				c.fail(errMessage(err, msgPaymentFailed))
				return false
			}
			c.state.Payments = append(c.state.Payments, *sp)
		}
	}

	sale, err := c.sales.CompleteSale(ctx, CompleteSaleInput{ShopID: id.ShopID, SaleID: c.state.Sale.ID})
	if err != nil || sale == nil {
		c.fail(errMessage(err, msgFinalizeFailed))
		return false
	}
	c.state.Sale = sale
	c.state.CurrentStep = domain.StepComplete
	c.state.IsProcessing = false
	c.log.Info("sale completed", "sale_id", sale.ID, "total", sale.TotalAmount.String())
	c.notify.Success(fmt.Sprintf("Sale %s completed", sale.SaleNumber))
	if c.cb.OnComplete != nil {
		c.cb.OnComplete(*sale)
	}
	return true
}

// ClearAndComplete empties the source cart and closes the session.
func (c *CheckoutController) ClearAndComplete(ctx context.Context) {
	if err := c.cart.Clear(ctx); err != nil {
		c.log.Warn("clear cart failed", "error", err)
		c.notify.Warning("Sale completed, but the cart could not be cleared")
	}
	c.active = false
	c.state = initialState()
}

// errMessage normalizes a failed call into a user-facing message.
func errMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
func (nopNotifier) Info(string)    {}
func (nopNotifier) Warning(string) {}
