// internal/handlers/pricehistory.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pricebot/pricebot/internal/query"
	"github.com/pricebot/pricebot/internal/utils"
)

// PriceHistoryHandler implements spec §4.9's price_history operation over
// HTTP: GET /price-history/product/{id} and GET /price-history/vendor/{id}.
type PriceHistoryHandler struct {
	query *query.Service
}

func NewPriceHistoryHandler(q *query.Service) *PriceHistoryHandler {
	return &PriceHistoryHandler{query: q}
}

func (h *PriceHistoryHandler) ByProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid product id", nil)
		return
	}
	limit := queryLimit(c, 100)
	spans, err := h.query.PriceHistoryByProduct(id, limit)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to load price history")
		return
	}
	utils.SuccessResponse(c, spans)
}

func (h *PriceHistoryHandler) ByVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid vendor id", nil)
		return
	}
	limit := queryLimit(c, 100)
	spans, err := h.query.PriceHistoryByVendor(id, limit)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to load price history")
		return
	}
	utils.SuccessResponse(c, spans)
}

func queryLimit(c *gin.Context, fallback int) int {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
