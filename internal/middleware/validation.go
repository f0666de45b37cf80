package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/natours/api/internal/constants"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/pkg/logger"
	"github.com/natours/api/pkg/validation"
	"go.uber.org/zap"
)

const bodyKey = "request_body"

type ValidationMiddleware struct {
	validate *validator.Validate
}

func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{validate: validation.New()}
}

// ValidateBody decodes the JSON body into a fresh T, checks its rules and
// stores it for Body. Failures end the request with a ValidationError.
func ValidateBody[T any](m *ValidationMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
						constants.BuildErrorResponse(http.StatusRequestEntityTooLarge, constants.MsgRequestTooLarge))
					return
				}
				logger.GetLogger().Error("Middleware: Failed to read request body",
					zap.String("client_ip", clientIP),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				_ = c.Error(apperrors.WrapError(apperrors.ErrInvalidInput, err))
				c.Abort()
				return
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		if len(bytes.TrimSpace(bodyBytes)) == 0 {
			bodyBytes = []byte("{}")
		}

		request := new(T)
		if err := json.Unmarshal(bodyBytes, request); err != nil {
			logger.GetLogger().Debug("Middleware: JSON unmarshaling failed",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.Int("body_size", len(bodyBytes)),
				zap.Error(err),
			)
			_ = c.Error(apperrors.WrapError(apperrors.ErrInvalidInput, err))
			c.Abort()
			return
		}

		if err := m.validate.Struct(request); err != nil {
			translated := validation.Translate(err)

			logger.GetLogger().Debug("Middleware: Request validation failed",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.Strings("validation_errors", validation.Messages(err)),
			)

			_ = c.Error(translated)
			c.Abort()
			return
		}

		c.Set(bodyKey, request)
		c.Next()
	}
}

// Body returns the request validated by ValidateBody.
func Body[T any](c *gin.Context) (*T, bool) {
	v, ok := c.Get(bodyKey)
	if !ok {
		return nil, false
	}
	body, ok := v.(*T)
	return body, ok
}

// BodyLimit caps request bodies at limit bytes.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
