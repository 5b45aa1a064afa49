package domain

import "github.com/shopspring/decimal"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// BalanceTolerance is the largest remaining balance still treated as settled.
var BalanceTolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Apply returns the amount taken off base, never more than base and never negative.
func (d *Discount) Apply(base decimal.Decimal) decimal.Decimal {
	if d == nil || base.LessThanOrEqual(decimal.Zero) || d.Value.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	var amt decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		amt = base.Mul(d.Value).Div(hundred)
	case DiscountFixed:
		amt = d.Value
	default:
		return decimal.Zero
	}
	if amt.GreaterThan(base) {
		return base
	}
	return amt
}

type CartItem struct {
	ItemID    string          `json:"itemId"`
	SKU       string          `json:"sku,omitempty"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Discount  *Discount       `json:"discount,omitempty"`
}

// Gross is unit price times quantity, before any discount.
func (i CartItem) Gross() decimal.Decimal {
	if i.Quantity <= 0 {
		return decimal.Zero
	}
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Cart struct {
	Items    []CartItem `json:"items"`
	Customer *Customer  `json:"customer,omitempty"`
	Discount *Discount  `json:"discount,omitempty"`
	Notes    string     `json:"notes,omitempty"`
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Identity is the shop/user context a checkout runs under.
type Identity struct {
	ShopID   string
	UserID   string
	Currency string
	TaxRate  decimal.Decimal // fraction, 0.05 = 5%
}
