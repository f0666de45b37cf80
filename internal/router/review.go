package router

import (
	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/dto"
	"github.com/natours/api/internal/middleware"
	"github.com/natours/api/internal/model"
)

func (r *Router) reviewRoutes(version *gin.RouterGroup) {
	reviews := version.Group("/reviews")
	reviews.Use(r.authMw.Protect())
	{
		reviews.GET("", r.reviewHandler.List)
		reviews.GET("/:id", r.reviewHandler.Get)
		reviews.POST("",
			middleware.Restrict(model.RoleUser),
			middleware.ValidateBody[dto.CreateReviewRequest](r.validMw),
			r.reviewHandler.Create)

		owners := reviews.Group("")
		owners.Use(middleware.Restrict(model.RoleUser, model.RoleAdmin))
		{
			owners.PATCH("/:id", middleware.ValidateBody[dto.UpdateReviewRequest](r.validMw), r.reviewHandler.Update)
			owners.DELETE("/:id", r.reviewHandler.Delete)
		}
	}
}

// cacheRoutes are admin-only cache maintenance endpoints.
func (r *Router) cacheRoutes(version *gin.RouterGroup) {
	cache := version.Group("/cache")
	cache.Use(r.authMw.Protect(), middleware.Restrict(model.RoleAdmin))
	{
		cache.GET("/stats", r.cacheHandler.GetCacheStats)
		cache.DELETE("", r.cacheHandler.ClearAllCache)
		cache.DELETE("/:resource", r.cacheHandler.InvalidateCache)
	}
}
