package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-tracker/api/apperr"
	"expense-tracker/api/logger"
	"expense-tracker/api/observability"
)

// AccessLogMiddleware logs one line per request. Bodies and credentials are
// never logged.
func AccessLogMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", RequestID(c)),
		zap.String("client_ip", c.ClientIP()),
	}
	if p, ok := Principal(c); ok {
		fields = append(fields, zap.String("user_id", p.UserID))
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Get().Error("request completed", fields...)
	case status >= http.StatusBadRequest:
		logger.Get().Warn("request completed", fields...)
	default:
		logger.Get().Info("request completed", fields...)
	}
}

// RecoveryMiddleware turns a panic into an unexpected-error response.
func RecoveryMiddleware(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("panic recovered",
				zap.Any("panic", r),
				zap.String("request_id", RequestID(c)),
				zap.ByteString("stack", debug.Stack()))
			if c.Writer.Written() {
				c.Abort()
				return
			}
			RespondError(c, apperr.Wrap(apperr.KindUnexpected, apperr.CodeUnexpected, fmt.Errorf("panic: %v", r)))
			c.Abort()
		}
	}()
	c.Next()
}

// MetricsMiddleware records request counts and latencies by route template.
func MetricsMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	observability.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	observability.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
}
