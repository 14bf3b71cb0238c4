package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency":    time.Since(start),
			"ip":         c.ClientIP(),
			"request_id": c.GetString(CtxRequestID),
		})
		if tenantID := c.GetUint(CtxTenantID); tenantID != 0 {
			entry = entry.WithField("tenant_id", tenantID)
		}

		if status >= 500 {
			entry.Error("request failed")
			return
		}
		entry.Info("request")
	}
}
