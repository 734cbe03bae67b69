// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pricebot/pricebot/internal/utils"
)

// AdminRequired enforces the JWT session issued by POST /admin/login on the
// document-management and WhatsApp chat-management routes, per spec §6's admin_username/admin_password
// configuration. It replaces the teacher's bearer-token user auth (which
// carried UserType/VerificationLevel claims for an end-user identity model
// this service doesn't have) with a single admin principal.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateAdminJWT(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "invalid or expired session")
			c.Abort()
			return
		}

		c.Set("admin_username", claims.Username)
		c.Next()
	}
}
