// internal/handlers/admin.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricebot/pricebot/internal/config"
	"github.com/pricebot/pricebot/internal/utils"
)

// AdminHandler issues the session JWT that AdminRequired checks on the
// document-management and WhatsApp chat-management routes, per spec
// §6's admin_username/admin_password configuration.
type AdminHandler struct {
	cfg config.AdminConfig
}

func NewAdminHandler(cfg config.AdminConfig) *AdminHandler {
	return &AdminHandler{cfg: cfg}
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "username and password are required", err.Error())
		return
	}

	if req.Username != h.cfg.Username || req.Password != h.cfg.Password {
		utils.UnauthorizedResponse(c, "invalid credentials")
		return
	}

	token, err := utils.GenerateAdminJWT(req.Username, 12*time.Hour)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to issue session token")
		return
	}
	utils.SuccessResponse(c, gin.H{"token": token, "expires_in": int((12 * time.Hour).Seconds())})
}
