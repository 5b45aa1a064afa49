package usecase

import "errors"

var (
	ErrDuplicate        = errors.New("duplicate idempotency key")
	ErrMissingIdentity  = errors.New("no shop or user")
	ErrInvalidCurrency  = errors.New("currency required")
	ErrInvalidDiscount  = errors.New("invalid discount")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidPrice     = errors.New("unit price must not be negative")
	ErrInvalidPayment   = errors.New("invalid payment type")
	ErrRefundNotAllowed = errors.New("refunds are not recorded through checkout")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrSaleNotPending   = errors.New("sale is not pending")
	ErrInvalidStatus    = errors.New("invalid status transition")
)
