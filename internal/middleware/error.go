package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/constants"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/pkg/logger"
)

// ErrorMiddleware renders the last error a handler attached with c.Error.
// In production only operational messages reach the client.
func ErrorMiddleware(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperrors.ToHTTPStatus(err)
		operational := apperrors.IsOperational(err)
		ctx := c.Request.Context()

		if operational {
			logger.DebugWithContext(ctx, "Request failed").
				StatusCode(status).
				Err(err).
				Log()
		} else {
			logger.ErrorWithContext(ctx, "Unexpected error").
				StatusCode(status).
				String("path", c.Request.URL.Path).
				Err(err).
				Log()
		}

		if production {
			if !operational {
				c.JSON(http.StatusInternalServerError,
					constants.BuildErrorResponse(http.StatusInternalServerError, constants.MsgSomethingWentWrong))
				return
			}
			c.JSON(status, constants.BuildErrorResponse(status, apperrors.GetErrorMessage(err)))
			return
		}

		body := constants.BuildErrorResponse(status, apperrors.GetErrorMessage(err))
		body[constants.ResponseFieldError] = err.Error()
		code := apperrors.CodeInternal
		if d := apperrors.GetDomainError(err); d != nil {
			code = d.Code
		}
		body[constants.ResponseFieldCode] = code
		c.JSON(status, body)
	}
}

// NoRoute answers unknown paths with 404.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperrors.NewDomainError(apperrors.CodeNotFound,
			fmt.Sprintf(constants.MsgRouteNotFound, c.Request.URL.String())))
	}
}

// SecurityHeaders sets the response headers browsers use to harden pages.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "0")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		if c.Request.TLS != nil || c.GetHeader(constants.HeaderXForwardedProto) == "https" {
			h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}
		c.Next()
	}
}
