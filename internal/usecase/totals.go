package usecase

import (
	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// CheckoutTotals is derived from cart and payments on every read and never stored.
type CheckoutTotals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	LineDiscounts    decimal.Decimal `json:"lineDiscounts"`
	OrderDiscount    decimal.Decimal `json:"orderDiscount"`
	TaxAmount        decimal.Decimal `json:"taxAmount"`
	GrandTotal       decimal.Decimal `json:"grandTotal"`
	PaidAmount       decimal.Decimal `json:"paidAmount"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// Settled reports whether the remaining balance is within domain.BalanceTolerance.
func (t CheckoutTotals) Settled() bool {
	return t.RemainingBalance.LessThanOrEqual(domain.BalanceTolerance)
}

func LineDiscount(it domain.CartItem) decimal.Decimal {
	return it.Discount.Apply(it.Gross()).Round(moneyPlaces)
}

// LineTotal is the gross line amount less its own discount.
func LineTotal(it domain.CartItem) decimal.Decimal {
	return it.Gross().Sub(LineDiscount(it))
}

// ComputeTotals applies line discounts, then the order discount on what remains,
// then tax on the discounted amount.
func ComputeTotals(items []domain.CartItem, orderDiscount *domain.Discount, taxRate decimal.Decimal, paid decimal.Decimal) CheckoutTotals {
	var t CheckoutTotals
	for _, it := range items {
		t.Subtotal = t.Subtotal.Add(it.Gross())
		t.LineDiscounts = t.LineDiscounts.Add(LineDiscount(it))
	}
	afterLines := t.Subtotal.Sub(t.LineDiscounts)
	t.OrderDiscount = orderDiscount.Apply(afterLines).Round(moneyPlaces)
	taxable := afterLines.Sub(t.OrderDiscount)
	if taxRate.GreaterThan(decimal.Zero) {
		t.TaxAmount = taxable.Mul(taxRate).Round(moneyPlaces)
	}
	t.GrandTotal = taxable.Add(t.TaxAmount)
	t.PaidAmount = paid
	t.RemainingBalance = decimal.Max(decimal.Zero, t.GrandTotal.Sub(paid))
	return t
}

func SumPayments(ps []domain.SalePayment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range ps {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// cartItemsFromSale rebuilds priceable lines from persisted sale items.
func cartItemsFromSale(items []domain.SaleItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		ci := domain.CartItem{ItemID: it.ItemID, UnitPrice: it.UnitPrice, Quantity: it.Quantity}
		if it.DiscountType != nil {
			ci.Discount = &domain.Discount{Type: *it.DiscountType, Value: it.DiscountValue}
		}
		out = append(out, ci)
	}
	return out
}
