package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aq2208/gpos-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/gin-gonic/gin"
)

// SaleQuery is the read side the sale endpoint needs.
type SaleQuery interface {
	GetSaleDetail(ctx context.Context, shopID, id string) (*usecase.SaleDetail, error)
}

type SaleHandler struct {
	query SaleQuery
}

func NewSaleHandler(q SaleQuery) *SaleHandler {
	return &SaleHandler{query: q}
}

// GET /v1/sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	detail, err := h.query.GetSaleDetail(ctx, p.ShopID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

var _ SaleQuery = (*usecase.SaleService)(nil)
