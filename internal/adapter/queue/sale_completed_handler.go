package queue

import (
	"context"
	"fmt"

	"github.com/aq2208/gpos-checkout/internal/usecase"
)

// SaleCompletedHandler keeps the sale status cache in step with completion events.
type SaleCompletedHandler struct {
	cache usecase.SaleStatusCache
}

func NewSaleCompletedHandler(cache usecase.SaleStatusCache) *SaleCompletedHandler {
	return &SaleCompletedHandler{cache: cache}
}

// HandleCompleted is meant for JSONHandler[usecase.SaleCompletedMsg].
func (h *SaleCompletedHandler) HandleCompleted(ctx context.Context, msg usecase.SaleCompletedMsg) error {
	if msg.SaleID == "" || msg.Status == "" {
		return fmt.Errorf("%w: sale id and status required", ErrPoison)
	}
	return h.cache.SetStatus(ctx, msg.SaleID, msg.Status)
}

// Handler wraps HandleCompleted for Router.Register.
func (h *SaleCompletedHandler) Handler() Handler {
	return JSONHandler[usecase.SaleCompletedMsg]{HandleFunc: h.HandleCompleted}
}
