package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/mediagrab-go/pkg/logger"
	"go.uber.org/zap"
)

// Logger returns a gin middleware for logging. Requests that fail with a
// server error are also written to the error category log when errLog is set.
func Logger(log *zap.Logger, errLog *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("client_ip", clientIP),
		}

		// Status polling would flood the log
		if strings.HasSuffix(path, "/status") && statusCode < 400 {
			log.Debug("HTTP request", fields...)
		} else {
			log.Info("HTTP request", fields...)
		}

		if statusCode >= 500 && errLog != nil {
			errLog.LogAppError("HTTP error response", fields...)
		}
	}
}
