package router

import (
	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/dto"
	"github.com/natours/api/internal/handler"
	"github.com/natours/api/internal/middleware"
	"github.com/natours/api/internal/model"
)

func (r *Router) tourRoutes(version *gin.RouterGroup) {
	tours := version.Group("/tours")
	{
		// Public reads
		tours.GET("/top-5-cheap", handler.AliasTopTours(), r.tourHandler.List)
		tours.GET("/tour-stats", r.tourHandler.Stats)
		tours.GET("", r.tourHandler.List)
		tours.GET("/:id", r.tourHandler.Get)

		protected := tours.Group("")
		protected.Use(r.authMw.Protect())
		{
			protected.GET("/monthly-plan/:year",
				middleware.Restrict(model.RoleAdmin, model.RoleLeadGuide, model.RoleGuide),
				r.tourHandler.MonthlyPlan)

			// Reviews of one tour
			protected.GET("/:id/reviews", r.reviewHandler.List)
			protected.POST("/:id/reviews",
				middleware.Restrict(model.RoleUser),
				middleware.ValidateBody[dto.CreateReviewRequest](r.validMw),
				r.reviewHandler.Create)

			staff := protected.Group("")
			staff.Use(middleware.Restrict(model.RoleAdmin, model.RoleLeadGuide))
			{
				staff.POST("", middleware.ValidateBody[dto.CreateTourRequest](r.validMw), r.tourHandler.Create)
				staff.PATCH("/:id", middleware.ValidateBody[dto.UpdateTourRequest](r.validMw), r.tourHandler.Update)
				staff.DELETE("/:id", r.tourHandler.Delete)
			}
		}
	}
}
