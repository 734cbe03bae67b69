// internal/handlers/vendors.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/utils"
)

// VendorHandler implements GET /vendors and GET /vendors/{id}.
type VendorHandler struct {
	db *gorm.DB
}

func NewVendorHandler(db *gorm.DB) *VendorHandler {
	return &VendorHandler{db: db}
}

func (h *VendorHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	vendors := repository.NewVendorRepository(h.db)
	rows, total, err := vendors.List(params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to list vendors")
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}

func (h *VendorHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid vendor id", nil)
		return
	}
	vendors := repository.NewVendorRepository(h.db)
	v, err := vendors.Get(id)
	if err != nil {
		utils.NotFoundResponse(c, "vendor")
		return
	}
	utils.SuccessResponse(c, v)
}
