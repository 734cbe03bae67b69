// internal/handlers/products.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/utils"
)

// ProductHandler implements GET /products and GET /products/{id}.
type ProductHandler struct {
	db *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

func (h *ProductHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	products := repository.NewProductRepository(h.db)

	if params.Search != "" {
		rows, total, err := products.SearchByText(params.Search, params.Limit, (params.Page-1)*params.Limit)
		if err != nil {
			utils.InternalErrorResponse(c, "failed to search products")
			return
		}
		utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
		return
	}

	rows, total, err := products.List(params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to list products")
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid product id", nil)
		return
	}
	products := repository.NewProductRepository(h.db)
	p, err := products.Get(id)
	if err != nil {
		utils.NotFoundResponse(c, "product")
		return
	}
	utils.SuccessResponse(c, p)
}
