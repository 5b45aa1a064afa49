package usecase

import (
	"testing"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	pct := func(v string) *domain.Discount { return &domain.Discount{Type: domain.DiscountPercentage, Value: money(v)} }
	fixed := func(v string) *domain.Discount { return &domain.Discount{Type: domain.DiscountFixed, Value: money(v)} }

	tests := []struct {
		name          string
		items         []domain.CartItem
		orderDiscount *domain.Discount
		taxRate       string
		paid          string
		want          CheckoutTotals
	}{
		{
			name:  "plain lines",
			items: []domain.CartItem{{UnitPrice: money("100"), Quantity: 2}},
			paid:  "0",
			want:  CheckoutTotals{Subtotal: money("200"), GrandTotal: money("200"), RemainingBalance: money("200")},
		},
		{
			name: "line discounts then order percentage then tax",
			items: []domain.CartItem{
				{UnitPrice: money("1200"), Quantity: 1, Discount: pct("10")},
				{UnitPrice: money("80"), Quantity: 3, Discount: fixed("40")},
			},
			orderDiscount: fixed("100"),
			taxRate:       "0.05",
			paid:          "500",
			// 1440 gross, 120+40 off lines = 1280, 100 off order = 1180, tax 59
			want: CheckoutTotals{
				Subtotal: money("1440"), LineDiscounts: money("160"), OrderDiscount: money("100"),
				TaxAmount: money("59"), GrandTotal: money("1239"), PaidAmount: money("500"), RemainingBalance: money("739"),
			},
		},
		{
			name:          "fixed discount larger than base is capped",
			items:         []domain.CartItem{{UnitPrice: money("30"), Quantity: 1, Discount: fixed("50")}},
			orderDiscount: fixed("10"),
			paid:          "0",
			want:          CheckoutTotals{Subtotal: money("30"), LineDiscounts: money("30")},
		},
		{
			name:  "overpayment never goes negative",
			items: []domain.CartItem{{UnitPrice: money("10"), Quantity: 1}},
			paid:  "25",
			want:  CheckoutTotals{Subtotal: money("10"), GrandTotal: money("10"), PaidAmount: money("25")},
		},
		{
			name:          "zero-valued discount is no discount",
			items:         []domain.CartItem{{UnitPrice: money("19.99"), Quantity: 3, Discount: &domain.Discount{Type: domain.DiscountPercentage}}},
			orderDiscount: &domain.Discount{Type: domain.DiscountFixed},
			taxRate:       "0.075",
			paid:          "0",
			// 59.97 * 0.075 = 4.49775 -> 4.50
			want: CheckoutTotals{Subtotal: money("59.97"), TaxAmount: money("4.5"), GrandTotal: money("64.47"), RemainingBalance: money("64.47")},
		},
		{
			name:  "non-positive quantity contributes nothing",
			items: []domain.CartItem{{UnitPrice: money("10"), Quantity: 0}, {UnitPrice: money("5"), Quantity: -2}},
			paid:  "0",
			want:  CheckoutTotals{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rate := decimal.Zero
			if tc.taxRate != "" {
				rate = money(tc.taxRate)
			}
			got := ComputeTotals(tc.items, tc.orderDiscount, rate, money(tc.paid))
			assertMoney(t, tc.want.Subtotal.String(), got.Subtotal, "subtotal")
			assertMoney(t, tc.want.LineDiscounts.String(), got.LineDiscounts, "lineDiscounts")
			assertMoney(t, tc.want.OrderDiscount.String(), got.OrderDiscount, "orderDiscount")
			assertMoney(t, tc.want.TaxAmount.String(), got.TaxAmount, "taxAmount")
			assertMoney(t, tc.want.GrandTotal.String(), got.GrandTotal, "grandTotal")
			assertMoney(t, tc.want.PaidAmount.String(), got.PaidAmount, "paidAmount")
			assertMoney(t, tc.want.RemainingBalance.String(), got.RemainingBalance, "remainingBalance")
			assert.False(t, got.RemainingBalance.IsNegative())
		})
	}
}

func TestRemainingBalanceNeverNegative(t *testing.T) {
	prices := []string{"0.01", "9.99", "150", "2499.50"}
	paid := []string{"0", "0.01", "100", "5000"}
	for _, p := range prices {
		for q := 1; q <= 3; q++ {
			for _, pd := range paid {
				items := []domain.CartItem{{UnitPrice: money(p), Quantity: q}}
				got := ComputeTotals(items, nil, money("0.1"), money(pd))
				want := decimal.Max(decimal.Zero, got.GrandTotal.Sub(got.PaidAmount))
				assert.True(t, want.Equal(got.RemainingBalance), "price=%s qty=%d paid=%s", p, q, pd)
				assert.False(t, got.RemainingBalance.IsNegative())
			}
		}
	}
}

func TestSettled(t *testing.T) {
	assert.True(t, CheckoutTotals{RemainingBalance: money("0")}.Settled())
	assert.True(t, CheckoutTotals{RemainingBalance: money("0.01")}.Settled())
	assert.False(t, CheckoutTotals{RemainingBalance: money("0.011")}.Settled())
}
