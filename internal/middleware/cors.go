// middleware/cors.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/constants"
	"github.com/natours/api/pkg/logger"
	"go.uber.org/zap"
)

// CORS allows the configured origins; "*" allows any.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			constants.HeaderContentType,
			constants.HeaderAuthorization,
			constants.HeaderXRequestID,
		},
		ExposeHeaders: []string{constants.HeaderXRequestID},
		MaxAge:        12 * time.Hour,
	}

	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}

	logger.GetLogger().Debug("Middleware: CORS configured",
		zap.Strings("allowed_origins", allowedOrigins),
		zap.Bool("allow_all", cfg.AllowAllOrigins),
	)

	return cors.New(cfg)
}
