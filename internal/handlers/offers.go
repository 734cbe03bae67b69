// internal/handlers/offers.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/utils"
)

// OfferHandler implements GET /offers per spec §6's vendor_id/product_id/
// since/limit filter set.
type OfferHandler struct {
	db *gorm.DB
}

func NewOfferHandler(db *gorm.DB) *OfferHandler {
	return &OfferHandler{db: db}
}

func (h *OfferHandler) List(c *gin.Context) {
	filter := repository.OfferFilter{Limit: 50}

	if v := c.Query("vendor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			utils.BadRequestResponse(c, "invalid vendor_id", nil)
			return
		}
		filter.VendorID = &id
	}
	if v := c.Query("product_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			utils.BadRequestResponse(c, "invalid product_id", nil)
			return
		}
		filter.ProductID = &id
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.BadRequestResponse(c, "since must be RFC3339", nil)
			return
		}
		filter.Since = &since
	}
	if v := c.Query("condition"); v != "" {
		filter.Condition = &v
	}
	if v := c.Query("location"); v != "" {
		filter.Location = &v
	}
	params := utils.GetPaginationParams(c)
	filter.Limit = params.Limit
	filter.Offset = (params.Page - 1) * params.Limit

	offers := repository.NewOfferRepository(h.db)
	rows, total, err := offers.List(filter)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to list offers")
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}
