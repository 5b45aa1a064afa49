package usecase

import "github.com/shopspring/decimal"

// Published on sale.events when a sale completes
type SaleCompletedMsg struct {
	SaleID     string          `json:"saleId"`
	ShopID     string          `json:"shopId"`
	SaleNumber string          `json:"saleNumber"`
	CustomerID string          `json:"customerId,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Paid       decimal.Decimal `json:"paid"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
}

// Sent by back-office on Kafka
type SaleStatusChangedMsg struct {
	SaleID string `json:"saleId"`
	ShopID string `json:"shopId"`
	Status string `json:"status"` // e.g. "VOIDED"
	Reason string `json:"reason,omitempty"`
}
