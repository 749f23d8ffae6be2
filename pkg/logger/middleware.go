package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Middleware returns a Gin middleware function that logs requests
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generate a request ID if one doesn't exist
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header("X-Request-ID", requestID)
		}

		// Create a request-scoped logger and store it in the context
		reqLogger := logger.WithRequestID(requestID)
		c.Set("logger", reqLogger)

		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		method := c.Request.Method

		reqLogger.LogRequest(method, path, status, latency)

		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				reqLogger.LogError(err.Err, "request error",
					"method", method,
					"path", path,
					"error_type", err.Type,
				)
			}
		}
	}
}

// FromContext returns the request-scoped logger from a Gin context,
// falling back to the global logger when none was set
func FromContext(c *gin.Context) *Logger {
	if l, exists := c.Get("logger"); exists {
		if log, ok := l.(*Logger); ok {
			return log
		}
	}
	return GetGlobal()
}
