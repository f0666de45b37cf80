package router

import (
	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/dto"
	"github.com/natours/api/internal/middleware"
	"github.com/natours/api/internal/model"
)

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		r.authRoutes(users)

		// Routes below require a logged-in user
		protected := users.Group("")
		protected.Use(r.authMw.Protect())
		{
			protected.PATCH("/updateMyPassword",
				middleware.ValidateBody[dto.UpdatePasswordRequest](r.validMw),
				r.authHandler.UpdatePassword)
			protected.GET("/me", r.userHandler.Me)
			protected.PATCH("/updateMe", middleware.ValidateBody[dto.UpdateMeRequest](r.validMw), r.userHandler.UpdateMe)
			protected.DELETE("/deleteMe", r.userHandler.DeleteMe)

			admin := protected.Group("")
			admin.Use(middleware.Restrict(model.RoleAdmin))
			{
				admin.GET("", r.userHandler.List)
				admin.POST("", r.userHandler.Create)
				admin.GET("/:id", r.userHandler.Get)
				admin.PATCH("/:id", middleware.ValidateBody[dto.UpdateUserRequest](r.validMw), r.userHandler.Update)
				admin.DELETE("/:id", r.userHandler.Delete)
			}
		}
	}
}
