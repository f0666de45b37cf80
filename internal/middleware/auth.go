package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/constants"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/pipeline"
	"github.com/natours/api/internal/service"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
	"github.com/natours/api/pkg/metrics"
	"gorm.io/gorm"
)

// TokenVerifier checks a session token.
type TokenVerifier interface {
	Verify(token string) (*service.Session, error)
}

// IdentityLoader loads the user a token was issued to.
type IdentityLoader interface {
	Get(ctx context.Context, id uint, scopes ...pipeline.Scope) (*model.User, error)
}

// Authenticator gates routes behind a valid, current session token.
type Authenticator struct {
	tokens TokenVerifier
	users  IdentityLoader
}

func NewAuthenticator(tokens TokenVerifier, users IdentityLoader) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Protect rejects requests without a usable token with 401. On success the
// user is attached to the request context.
func (a *Authenticator) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithFunction(c.Request.Context(), "middleware", "Protect")

		token := extractToken(c)
		if token == "" {
			reject(c, "missing", apperrors.ErrNotLoggedIn)
			return
		}

		session, err := a.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				reject(c, "expired", apperrors.WrapError(apperrors.ErrTokenExpired, err))
				return
			}
			reject(c, "invalid", apperrors.WrapError(apperrors.ErrInvalidToken, err))
			return
		}

		user, err := a.users.Get(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				reject(c, "user_gone", apperrors.WrapError(apperrors.ErrUserGone, err))
				return
			}
			_ = c.Error(apperrors.FromDatabase(err, constants.ResourceUser))
			c.Abort()
			return
		}

		if user.ChangedPasswordAfter(session.IssuedAt) {
			reject(c, "stale", apperrors.ErrPasswordChanged)
			return
		}

		if !ctxutil.SetIdentity(c.Request.Context(), user) {
			c.Request = c.Request.WithContext(ctxutil.WithRequestContext(c.Request.Context(), &ctxutil.RequestContext{
				ClientIP:  c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
				User:      user,
			}))
		}

		logger.DebugWithContext(c.Request.Context(), "User authenticated").
			String("role", string(user.Role)).
			Log()

		c.Next()
	}
}

// Restrict lets only the given roles through; others get 403. It must run
// after Protect.
func Restrict(roles ...model.Role) gin.HandlerFunc {
	allowed := model.NewRoleSet(roles...)
	return func(c *gin.Context) {
		user, ok := ctxutil.CurrentUser(c.Request.Context())
		if !ok {
			reject(c, "missing", apperrors.ErrNotLoggedIn)
			return
		}
		if !allowed.Contains(user.Role) {
			reject(c, "role", apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// extractToken reads the bearer header first, then the session cookie.
func extractToken(c *gin.Context) string {
	if header := c.GetHeader(constants.HeaderAuthorization); strings.HasPrefix(header, constants.BearerPrefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix)); token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(constants.AuthCookieName); err == nil && cookie != constants.LoggedOutCookie {
		return cookie
	}
	return ""
}

func reject(c *gin.Context, reason string, err error) {
	metrics.AuthRejected(reason)
	logger.WarnWithContext(c.Request.Context(), "Request rejected by auth").
		String("reason", reason).
		String("path", c.Request.URL.Path).
		Log()

	_ = c.Error(err)
	c.Abort()
}
