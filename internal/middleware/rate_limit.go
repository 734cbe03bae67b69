// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/pricebot/pricebot/internal/ratelimit"
)

// Default per-IP limiters for the general admin/query surface, grounded on
// the teacher's three-tier rate limit setup (general/auth/upload) but built
// on the shared ratelimit.Limiter rather than a bespoke visitor map, so the
// same primitive backs the WhatsApp ingest per-client limiter too.
var (
	generalLimiter = ratelimit.New(rate.Every(time.Second), 10, 0)
	authLimiter    = ratelimit.New(rate.Every(time.Minute), 5, 0)
	uploadLimiter  = ratelimit.New(rate.Every(time.Minute), 10, 0)
)

func rateLimitMiddleware(l *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func GeneralRateLimit() gin.HandlerFunc { return rateLimitMiddleware(generalLimiter) }
func AuthRateLimit() gin.HandlerFunc    { return rateLimitMiddleware(authLimiter) }
func UploadRateLimit() gin.HandlerFunc  { return rateLimitMiddleware(uploadLimiter) }
