package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/dto"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/service"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
)

// Accounts is the user management surface: admin CRUD plus the
// self-service operations on the caller's own account.
type Accounts interface {
	Resource[model.User, dto.CreateUserRequest, dto.UpdateUserRequest]
	Me(ctx context.Context) (*model.User, error)
	UpdateMe(ctx context.Context, in *dto.UpdateMeRequest) (*model.User, error)
	DeleteMe(ctx context.Context) error
}

var _ Accounts = (*service.UserService)(nil)

type UserHandler struct {
	*ResourceHandler[model.User, dto.CreateUserRequest, dto.UpdateUserRequest]
	users Accounts
}

func NewUserHandler(users Accounts) *UserHandler {
	return &UserHandler{
		ResourceHandler: NewResourceHandler[model.User, dto.CreateUserRequest, dto.UpdateUserRequest](users, "user", "users"),
		users:           users,
	}
}

// Me returns the caller's own account.
func (h *UserHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Me")

	user, err := h.users.Me(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildEntityResponse("user", user))
}

// UpdateMe edits name and email; password fields are refused.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateMe")

	in, err := body[dto.UpdateMeRequest](c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.users.UpdateMe(ctx, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildEntityResponse("user", user))
}

// DeleteMe deactivates the caller's account.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "DeleteMe")

	if err := h.users.DeleteMe(ctx); err != nil {
		_ = c.Error(err)
		return
	}

	logger.InfoWithContext(ctx, "Account deactivated").Log()

	c.Status(http.StatusNoContent)
}
