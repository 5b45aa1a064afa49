package usecase

import (
	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/shopspring/decimal"
)

// LineItemOutcome is the result of attaching one cart line to a created sale.
type LineItemOutcome struct {
	ItemID string           `json:"itemId"`
	Item   *domain.SaleItem `json:"item,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func (o LineItemOutcome) Failed() bool { return o.Error != "" }

type PaymentOutcome struct {
	PaymentType domain.PaymentType  `json:"paymentType"`
	Amount      decimal.Decimal     `json:"amount"`
	Payment     *domain.SalePayment `json:"payment,omitempty"`
	Skipped     bool                `json:"skipped,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// PaymentInput is one tender captured at the payment step.
type PaymentInput struct {
	PaymentType domain.PaymentType `json:"paymentType"`
	Amount      decimal.Decimal    `json:"amount"`
	Reference   string             `json:"reference,omitempty"`
	Notes       string             `json:"notes,omitempty"`
}

type CheckoutState struct {
	CurrentStep  domain.Step          `json:"currentStep"`
	Sale         *domain.Sale         `json:"sale"`
	Payments     []domain.SalePayment `json:"payments"`
	Error        string               `json:"error,omitempty"`
	IsProcessing bool                 `json:"isProcessing"`

	// Per-line results of the last create-sale batch.
	ItemOutcomes []LineItemOutcome `json:"itemOutcomes,omitempty"`
	// Per-payment results of the last record batch.
	PaymentOutcomes []PaymentOutcome `json:"paymentOutcomes,omitempty"`
	// Walk-in tenders held locally until the sale is finalized.
	DeferredPayments []PaymentInput `json:"deferredPayments,omitempty"`
}

func initialState() CheckoutState {
	return CheckoutState{CurrentStep: domain.StepReview}
}

// Totals recomputes the running figures from the cart and everything paid so far.
func (c *CheckoutController) Totals() CheckoutTotals {
	cart := c.cart.Cart()
	return ComputeTotals(cart.Items, cart.Discount, c.identity.Identity().TaxRate, c.paidAmount())
}

func (c *CheckoutController) paidAmount() decimal.Decimal {
	paid := SumPayments(c.state.Payments)
	for _, p := range c.state.DeferredPayments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

func (c *CheckoutController) StepIndex() int { return c.state.CurrentStep.Index() }

// TotalSteps counts the ordered steps a user walks through; complete is excluded.
func (c *CheckoutController) TotalSteps() int { return len(domain.StepOrder) - 1 }

func (c *CheckoutController) CanProceed() bool {
	switch c.state.CurrentStep {
	case domain.StepReview:
		return !c.cart.Cart().IsEmpty()
	case domain.StepCustomer:
		return true
	case domain.StepPayment:
		return c.Totals().Settled()
	default:
		return false
	}
}

func (c *CheckoutController) CanGoBack() bool {
	switch c.state.CurrentStep {
	case domain.StepProcessing, domain.StepComplete:
		return false
	}
	return c.StepIndex() > 0
}

// NextStep advances one position when the current step allows it.
func (c *CheckoutController) NextStep() bool {
	if !c.CanProceed() {
		return false
	}
	idx := c.StepIndex()
	if idx+1 >= len(domain.StepOrder) {
		return false
	}
	c.state.CurrentStep = domain.StepOrder[idx+1]
	return true
}

func (c *CheckoutController) PreviousStep() bool {
	if !c.CanGoBack() {
		return false
	}
	c.state.CurrentStep = domain.StepOrder[c.StepIndex()-1]
	c.state.Error = ""
	return true
}

// GoToStep only ever moves backwards.
func (c *CheckoutController) GoToStep(step domain.Step) bool {
	target := -1
	for i, s := range domain.StepOrder {
		if s == step {
			target = i
		}
	}
	if target < 0 || target >= c.StepIndex() {
		return false
	}
	c.state.CurrentStep = step
	c.state.Error = ""
	return true
}

// State returns a copy safe to hand to callers.
func (c *CheckoutController) State() CheckoutState {
	s := c.state
	if c.state.Sale != nil {
		sale := *c.state.Sale
		s.Sale = &sale
	}
	s.Payments = append([]domain.SalePayment(nil), c.state.Payments...)
	s.ItemOutcomes = append([]LineItemOutcome(nil), c.state.ItemOutcomes...)
	s.PaymentOutcomes = append([]PaymentOutcome(nil), c.state.PaymentOutcomes...)
	s.DeferredPayments = append([]PaymentInput(nil), c.state.DeferredPayments...)
	return s
}

func (c *CheckoutController) IsActive() bool { return c.active }

// fail parks the session in the error step.
func (c *CheckoutController) fail(msg string) {
	c.state.CurrentStep = domain.StepError
	c.state.Error = msg
	c.state.IsProcessing = false
	c.log.Error("checkout failed", "error", msg, "sale_id", c.saleID())
	c.notify.Error(msg)
	if c.cb.OnError != nil {
		c.cb.OnError(msg)
	}
}

func (c *CheckoutController) saleID() string {
	if c.state.Sale == nil {
		return ""
	}
	return c.state.Sale.ID
}
