// internal/middleware/cors.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the operator dashboard and chat-tool frontends (out of scope
// per spec §1) to call this API cross-origin. Collector-to-server traffic
// never goes through a browser, so this only needs to be permissive enough
// for read/query/admin tooling.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Ingest-Token", "X-Signature", "X-Signature-Timestamp"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
		MaxAge:           12 * time.Hour,
	})
}
