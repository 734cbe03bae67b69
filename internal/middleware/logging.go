// internal/middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger replaces the teacher's AuditLogMiddleware (which persisted
// an AuditLog row per mutating request keyed to a User) with structured
// logrus output keyed by a generated request id, since this service has no
// audit-log table and no user identity to attribute requests to — admin
// sessions are the only principal and are logged by username when present.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		fields := logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration_ms": duration.Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if username, ok := c.Get("admin_username"); ok {
			fields["admin_username"] = username
		}

		entry := log.WithFields(fields)
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
		} else {
			entry.Info("request handled")
		}
	}
}
