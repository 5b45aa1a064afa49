package http

import (
	"errors"
	"net/http"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/logging"
	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/gin-gonic/gin"
)

var (
	errSessionNotFound = errors.New("checkout session not found")
	errCartUnavailable = errors.New("cart unavailable")
	errNotComplete     = errors.New("checkout has not reached the complete step")
)

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "server_error"
	switch {
	case errors.Is(err, errSessionNotFound), errors.Is(err, usecase.ErrSaleNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, errCartUnavailable):
		status, code = http.StatusServiceUnavailable, "cart_unavailable"
	case errors.Is(err, usecase.ErrDuplicate):
		status, code = http.StatusConflict, "duplicate_request"
	case errors.Is(err, usecase.ErrSaleNotPending):
		status, code = http.StatusConflict, "sale_not_pending"
	case errors.Is(err, errNotComplete):
		status, code = http.StatusConflict, "checkout_not_complete"
	case errors.Is(err, usecase.ErrInvalidQuantity),
		errors.Is(err, usecase.ErrInvalidPrice),
		errors.Is(err, usecase.ErrInvalidDiscount),
		errors.Is(err, usecase.ErrInvalidPayment),
		errors.Is(err, usecase.ErrInvalidCurrency),
		errors.Is(err, usecase.ErrRefundNotAllowed),
		errors.Is(err, usecase.ErrMissingIdentity),
		errors.Is(err, domain.ErrInvalidAmount):
		status, code = http.StatusBadRequest, "invalid_request"
	}
	if status >= http.StatusInternalServerError {
		logging.From(c).Error("request failed", "error", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": code})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": err.Error()})
}
