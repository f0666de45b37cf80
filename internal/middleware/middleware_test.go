package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/natours/api/internal/constants"
	apperrors "github.com/natours/api/internal/errors"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func failingRouter(production bool, err error) *gin.Engine {
	router := gin.New()
	router.Use(ContextMiddleware(), ErrorMiddleware(production), RecoveryMiddleware())
	router.GET("/fail", func(c *gin.Context) { _ = c.Error(err) })
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	router.NoRoute(NoRoute())
	return router
}

func TestErrorMiddleware_Modes(t *testing.T) {
	tests := []struct {
		name        string
		production  bool
		err         error
		wantStatus  int
		wantEnvelop string
		wantMessage string
		wantDetail  bool
	}{
		{"dev operational", false, apperrors.ErrForbidden, 403, "fail", constants.MsgForbidden, true},
		{"dev internal", false, apperrors.WrapError(apperrors.ErrInternal, errors.New("db down")), 500, "error", constants.MsgSomethingWentWrong, true},
		{"prod operational", true, apperrors.NewValidationError("Invalid id: abc."), 400, "fail", "Invalid id: abc.", false},
		{"prod internal hides cause", true, errors.New("pq: relation does not exist"), 500, "error", constants.MsgSomethingWentWrong, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			failingRouter(tt.production, tt.err).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.wantEnvelop, body["status"])
			assert.Equal(t, tt.wantMessage, body["message"])
			_, hasDetail := body["error"]
			assert.Equal(t, tt.wantDetail, hasDetail)
			assert.NotContains(t, w.Body.String(), "pq: relation")
		})
	}
}

func TestRecoveryMiddleware_RendersInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	failingRouter(true, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, constants.MsgSomethingWentWrong, decode(t, w)["message"])
}

func TestNoRoute(t *testing.T) {
	w := httptest.NewRecorder()
	failingRouter(true, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere?x=1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Can't find /api/v1/nowhere?x=1 on this server!", decode(t, w)["message"])
}

func TestContextMiddleware_RequestID(t *testing.T) {
	router := gin.New()
	router.Use(ContextMiddleware())
	var agent string
	router.GET("/", func(c *gin.Context) {
		agent = ctxutil.GetUserAgent(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.Header.Set("User-Agent", "natours-test")
	router.ServeHTTP(w, first)
	_, err := uuid.Parse(w.Header().Get(constants.HeaderXRequestID))
	assert.NoError(t, err)
	assert.Equal(t, "natours-test", agent)

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.HeaderXRequestID, given)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, given, w.Header().Get(constants.HeaderXRequestID))
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Hour)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1")
		assert.True(t, ok, "request %d", i)
	}
	ok, remaining := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok, "other clients have their own bucket")

	now = now.Add(20 * time.Minute)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok, "a third of the window refills one token")

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 2, rl.Sweep())
	assert.Equal(t, 0, rl.Len())
}

func TestRateLimiter_Middleware(t *testing.T) {
	router := gin.New()
	router.Use(NewRateLimiter(1, time.Hour).Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, constants.MsgTooManyRequests, decode(t, w)["message"])
}

type signup struct {
	Name            string `json:"name" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

func validatingRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(ContextMiddleware(), ErrorMiddleware(true), BodyLimit(limit))
	router.POST("/signup", ValidateBody[signup](NewValidationMiddleware()), func(c *gin.Context) {
		body, ok := Body[signup](c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"name": body.Name})
	})
	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidateBody(t *testing.T) {
	router := validatingRouter(1024)

	w := post(router, `{"name":"Jonas","password":"pass1234","passwordConfirm":"pass1234"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Jonas", decode(t, w)["name"])

	w = post(router, `{"name":"Jonas","password":"short","passwordConfirm":"other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg, _ := decode(t, w)["message"].(string)
	assert.True(t, strings.HasPrefix(msg, "Invalid input data."), msg)
	assert.Contains(t, msg, "password")

	w = post(router, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(router, ``)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateBody_TooLarge(t *testing.T) {
	router := validatingRouter(16)

	w := post(router, `{"name":"`+strings.Repeat("x", 64)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, constants.MsgRequestTooLarge, decode(t, w)["message"])
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.HeaderXForwardedProto, "https")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}
