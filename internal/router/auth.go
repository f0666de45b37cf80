package router

import (
	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/dto"
	"github.com/natours/api/internal/middleware"
)

// authRoutes are the public account routes under /users.
func (r *Router) authRoutes(users *gin.RouterGroup) {
	users.POST("/signup", middleware.ValidateBody[dto.SignupRequest](r.validMw), r.authHandler.Signup)
	users.POST("/login", middleware.ValidateBody[dto.LoginRequest](r.validMw), r.authHandler.Login)
	users.GET("/logout", r.authHandler.Logout)
	users.POST("/forgotPassword", middleware.ValidateBody[dto.ForgotPasswordRequest](r.validMw), r.authHandler.ForgotPassword)
	users.PATCH("/resetPassword/:token",
		middleware.ValidateBody[dto.ResetPasswordRequest](r.validMw),
		r.authHandler.ResetPassword)
}
