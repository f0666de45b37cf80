package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/natours/api/internal/errors"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
	"github.com/natours/api/pkg/metrics"
)

// LoggingMiddleware logs every request once it has been answered.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		status := c.Writer.Status()
		ctx := c.Request.Context()

		var entry *logger.ContextLogBuilder
		switch {
		case status >= 500:
			entry = logger.ErrorWithContext(ctx, "Server error")
		case status >= 400:
			entry = logger.WarnWithContext(ctx, "Client error")
		case latency > 2*time.Second:
			entry = logger.WarnWithContext(ctx, "Slow request")
		default:
			entry = logger.InfoWithContext(ctx, "Request completed")
		}

		entry.
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			String("query", c.Request.URL.RawQuery).
			String("user_agent", ctxutil.GetUserAgent(ctx)).
			StatusCode(status).
			Int("response_size", c.Writer.Size()).
			Duration(latency).
			Log()
	}
}

// RecoveryMiddleware turns a panic into an internal error for
// ErrorMiddleware to render.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(recovered)

		_ = c.Error(apperrors.NewInternalError("panic recovered", fmt.Errorf("%v", recovered)))
		c.Abort()
	})
}

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.RequestStarted()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done(c.Request.Method, route, c.Writer.Status())
	}
}
