package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/natours/api/internal/constants"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
)

// ContextMiddleware attaches the typed request context every later layer
// reads: request id, client address and, once authenticated, the user.
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.WithRequestContext(c.Request.Context(), &ctxutil.RequestContext{
			RequestID: requestID,
			ClientIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			StartTime: time.Now(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderXRequestID, requestID)

		c.Next()
	}
}

// RequestTimeoutMiddleware bounds how long handlers may spend on a request.
func RequestTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := ctxutil.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() != nil {
			logger.WarnWithContext(ctx, "Request exceeded its deadline").
				String("path", c.Request.URL.Path).
				Duration(timeout).
				Log()
		}
	}
}
