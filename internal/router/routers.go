package router

import (
	"github.com/gin-gonic/gin"
	"github.com/natours/api/config"
	"github.com/natours/api/internal/handler"
	"github.com/natours/api/internal/middleware"
	"github.com/natours/api/pkg/metrics"
)

type Router struct {
	tourHandler   *handler.TourHandler
	userHandler   *handler.UserHandler
	reviewHandler *handler.ReviewHandler
	authHandler   *handler.AuthHandler
	cacheHandler  *handler.CacheHandler
	healthHandler *handler.HealthHandler

	validMw *middleware.ValidationMiddleware
	authMw  *middleware.Authenticator
	limiter *middleware.RateLimiter
	Config  *config.Config
}

func NewRouter(
	tour *handler.TourHandler,
	user *handler.UserHandler,
	review *handler.ReviewHandler,
	auth *handler.AuthHandler,
	cache *handler.CacheHandler,
	health *handler.HealthHandler,

	validMw *middleware.ValidationMiddleware,
	authMw *middleware.Authenticator,
	limiter *middleware.RateLimiter,
	config *config.Config,
) *Router {
	return &Router{
		tourHandler:   tour,
		userHandler:   user,
		reviewHandler: review,
		authHandler:   auth,
		cacheHandler:  cache,
		healthHandler: health,

		validMw: validMw,
		authMw:  authMw,
		limiter: limiter,
		Config:  config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	// Request context first so every later layer can log with it; errors
	// are rendered by ErrorMiddleware once the chain unwinds.
	router.Use(middleware.ContextMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.ErrorMiddleware(r.Config.IsProduction()))
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(r.Config.CORS.AllowedOrigins))
	router.Use(middleware.BodyLimit(r.Config.App.BodyLimit))
	if r.Config.App.Timeout > 0 {
		router.Use(middleware.RequestTimeoutMiddleware(r.Config.App.Timeout))
	}

	router.NoRoute(middleware.NoRoute())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.Use(r.limiter.Middleware())
		api.GET("/health", r.healthHandler.HealthCheck)

		v1 := api.Group("/v1")
		{
			r.tourRoutes(v1)
			r.userRoutes(v1)
			r.reviewRoutes(v1)
			r.cacheRoutes(v1)
		}
	}

	return router
}
