package kafka

import (
	"context"
	"log/slog"
	"strings"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/logging"
	"github.com/aq2208/gpos-checkout/internal/usecase"
)

// StatusMarker applies a back-office status decision to a sale.
type StatusMarker interface {
	MarkStatus(ctx context.Context, saleID string, to domain.SaleStatus) (bool, error)
}

type SaleStatusChangedHandler struct {
	sales StatusMarker
	log   *slog.Logger
}

func NewSaleStatusChangedHandler(sales StatusMarker) *SaleStatusChangedHandler {
	return &SaleStatusChangedHandler{sales: sales, log: logging.New("sale-status")}
}

func (h *SaleStatusChangedHandler) Handle(ctx context.Context, ev usecase.SaleStatusChangedMsg) error {
	var to domain.SaleStatus
	switch strings.ToUpper(ev.Status) {
	case "VOIDED", "VOID":
		to = domain.SaleStatusVoided
	default:
		h.log.Info("ignoring status change", "sale_id", ev.SaleID, "status", ev.Status)
		return nil
	}
	if ev.SaleID == "" {
		h.log.Warn("status change without sale id", "status", ev.Status)
		return nil
	}

	ok, err := h.sales.MarkStatus(ctx, ev.SaleID, to)
	if err != nil {
		return err
	}
	if !ok {
		// already voided, still pending or unknown; nothing to redo on redelivery
		h.log.Info("status change not applied", "sale_id", ev.SaleID, "to", string(to))
		return nil
	}
	h.log.Info("sale status changed", "sale_id", ev.SaleID, "to", string(to), "reason", ev.Reason)
	return nil
}

var _ StatusMarker = (*usecase.SaleService)(nil)
