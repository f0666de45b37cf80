package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/dto"
	"github.com/natours/api/internal/service"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
)

// AuthFlows is the account lifecycle the AuthHandler exposes.
type AuthFlows interface {
	Signup(ctx context.Context, in *dto.SignupRequest) (*service.AuthResult, error)
	Login(ctx context.Context, in *dto.LoginRequest) (*service.AuthResult, error)
	ForgotPassword(ctx context.Context, in *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, plainToken string, in *dto.ResetPasswordRequest) (*service.AuthResult, error)
	UpdatePassword(ctx context.Context, in *dto.UpdatePasswordRequest) (*service.AuthResult, error)
}

var _ AuthFlows = (*service.AuthService)(nil)

type AuthHandler struct {
	auth      AuthFlows
	cookieTTL time.Duration
}

func NewAuthHandler(auth AuthFlows, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		cookieTTL: cookieTTL,
	}
}

// Signup creates an account and logs it in.
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Signup")

	in, err := body[dto.SignupRequest](c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.auth.Signup(ctx, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.sendToken(c, http.StatusCreated, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Login")

	in, err := body[dto.LoginRequest](c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.auth.Login(ctx, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.sendToken(c, http.StatusOK, result)
}

// Logout overwrites the session cookie with a short-lived placeholder.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Logout")

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.AuthCookieName, constants.LoggedOutCookie,
		int(constants.LoggedOutCookieTTL.Seconds()), "/", "", secureRequest(c), true)

	logger.InfoWithContext(ctx, "User logged out").Log()

	c.JSON(http.StatusOK, gin.H{constants.ResponseFieldStatus: constants.StatusSuccess})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ForgotPassword")

	in, err := body[dto.ForgotPasswordRequest](c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.auth.ForgotPassword(ctx, in); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Token sent to email!"))
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResetPassword")

	in, err := body[dto.ResetPasswordRequest](c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.auth.ResetPassword(ctx, c.Param("token"), in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.sendToken(c, http.StatusOK, result)
}

// UpdatePassword needs a protected route; the fresh token replaces the
// one invalidated by the change.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdatePassword")

	in, err := body[dto.UpdatePasswordRequest](c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.auth.UpdatePassword(ctx, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.sendToken(c, http.StatusOK, result)
}

func (h *AuthHandler) sendToken(c *gin.Context, status int, result *service.AuthResult) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.AuthCookieName, result.Token, int(h.cookieTTL.Seconds()), "/", "", secureRequest(c), true)

	c.JSON(status, constants.BuildTokenResponse(result.Token, result.User))
}

func secureRequest(c *gin.Context) bool {
	return c.Request.TLS != nil || c.GetHeader(constants.HeaderXForwardedProto) == "https"
}
