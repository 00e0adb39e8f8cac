package middlewares

import (
	"time"

	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":    c.Request.Method,
			"path":      path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if user, ok := CurrentUser(c); ok {
			fields["user"] = user.Username
		}

		switch {
		case status >= 500:
			utils.ErrorLogger.WithFields(fields).Error(c.Errors.String())
		case status >= 400:
			utils.InfoLogger.WithFields(fields).Warn("request failed")
		default:
			utils.InfoLogger.WithFields(fields).Info("request")
		}
	}
}
