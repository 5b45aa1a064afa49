package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusVoided    SaleStatus = "VOIDED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type PaymentType string

const (
	PaymentCash         PaymentType = "cash"
	PaymentCard         PaymentType = "card"
	PaymentBankTransfer PaymentType = "bank_transfer"
	PaymentCheque       PaymentType = "cheque"
	PaymentStoreCredit  PaymentType = "store_credit"
	PaymentGoldExchange PaymentType = "gold_exchange"
	PaymentRefund       PaymentType = "refund"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentCash, PaymentCard, PaymentBankTransfer, PaymentCheque,
		PaymentStoreCredit, PaymentGoldExchange, PaymentRefund:
		return true
	}
	return false
}

var ErrInvalidAmount = errors.New("invalid amount")

type Sale struct {
	ID             string          `json:"id"`
	ShopID         string          `json:"shopId"`
	SaleNumber     string          `json:"saleNumber"`
	CustomerID     *string         `json:"customerId,omitempty"`
	SaleDate       string          `json:"saleDate"` // YYYY-MM-DD
	Currency       string          `json:"currency"`
	Status         SaleStatus      `json:"status"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	DiscountType   *DiscountType   `json:"discountType,omitempty"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	Notes          string          `json:"notes,omitempty"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

type SaleItem struct {
	ID            string          `json:"id"`
	SaleID        string          `json:"saleId"`
	ItemID        string          `json:"itemId"`
	SKU           string          `json:"sku,omitempty"`
	Name          string          `json:"name,omitempty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Quantity      int             `json:"quantity"`
	DiscountType  *DiscountType   `json:"discountType,omitempty"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type SalePayment struct {
	ID          string          `json:"id"`
	SaleID      string          `json:"saleId"`
	PaymentType PaymentType     `json:"paymentType"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PaymentStatusFor derives the settlement status of a sale total against the paid amount.
func PaymentStatusFor(total, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.LessThanOrEqual(decimal.Zero):
		return PaymentStatusUnpaid
	case paid.Add(BalanceTolerance).GreaterThanOrEqual(total):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}
