// internal/handlers/chattools.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pricebot/pricebot/internal/query"
	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/utils"
)

// ChatToolsHandler backs the two chat-tool-callable operations of spec
// §4.9: resolve_products and search_best_price.
type ChatToolsHandler struct {
	query *query.Service
}

func NewChatToolsHandler(q *query.Service) *ChatToolsHandler {
	return &ChatToolsHandler{query: q}
}

type resolveProductsRequest struct {
	Query  string `json:"query" binding:"required"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func (h *ChatToolsHandler) ResolveProducts(c *gin.Context) {
	var req resolveProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	result, err := h.query.ResolveProducts(c.Request.Context(), req.Query, req.Limit, req.Offset)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to resolve products")
		return
	}
	utils.SuccessResponse(c, result)
}

type searchBestPriceRequest struct {
	Query         string     `json:"query" binding:"required"`
	Limit         int        `json:"limit"`
	VendorID      *string    `json:"vendor_id,omitempty"`
	Condition     *string    `json:"condition,omitempty"`
	MinPrice      *float64   `json:"min_price,omitempty"`
	MaxPrice      *float64   `json:"max_price,omitempty"`
	Location      *string    `json:"location,omitempty"`
	CapturedSince *time.Time `json:"captured_since,omitempty"`
}

func (h *ChatToolsHandler) SearchBestPrice(c *gin.Context) {
	var req searchBestPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		utils.BadRequestResponse(c, "min_price must be less than or equal to max_price", nil)
		return
	}

	filter := repository.OfferFilter{
		Condition: req.Condition,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		Location:  req.Location,
		Since:     req.CapturedSince,
	}
	if req.VendorID != nil && *req.VendorID != "" {
		id, err := uuid.Parse(*req.VendorID)
		if err != nil {
			utils.BadRequestResponse(c, "invalid vendor_id", nil)
			return
		}
		filter.VendorID = &id
	}

	results, err := h.query.SearchBestPrice(c.Request.Context(), req.Query, filter, req.Limit)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to search best price")
		return
	}
	utils.SuccessResponse(c, results)
}
