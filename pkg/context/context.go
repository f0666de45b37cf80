package ctxutil

import (
	"context"
	"time"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/model"
)

// Re-export ContextKey type
type ContextKey = constants.ContextKey

// Re-export context keys
const (
	RequestKey   = constants.CtxKeyRequest
	StartTimeKey = constants.CtxKeyStartTime
	ModuleKey    = constants.CtxKeyModule
	FunctionKey  = constants.CtxKeyFunction
)

// RequestContext is the per-request state shared by middleware and handlers.
// User is nil until the auth middleware has loaded an identity.
type RequestContext struct {
	RequestID string
	ClientIP  string
	UserAgent string
	StartTime time.Time
	User      *model.User
}

// WithRequestContext stores rc in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	if rc.StartTime.IsZero() {
		rc.StartTime = time.Now()
	}
	return context.WithValue(ctx, RequestKey, rc)
}

// FromContext returns the request context, or nil outside a request.
func FromContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return nil
	}
	if rc, ok := ctx.Value(RequestKey).(*RequestContext); ok {
		return rc
	}
	return nil
}

// SetIdentity attaches an authenticated user. It returns false when ctx
// carries no request context.
func SetIdentity(ctx context.Context, user *model.User) bool {
	rc := FromContext(ctx)
	if rc == nil {
		return false
	}
	rc.User = user
	return true
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	if rc := FromContext(ctx); rc != nil && rc.User != nil {
		return rc.User, true
	}
	return nil, false
}

// WithTimeout creates context with timeout
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// Getter functions
func GetRequestID(ctx context.Context) string {
	if rc := FromContext(ctx); rc != nil {
		return rc.RequestID
	}
	return ""
}

func GetClientIP(ctx context.Context) string {
	if rc := FromContext(ctx); rc != nil {
		return rc.ClientIP
	}
	return ""
}

func GetUserAgent(ctx context.Context) string {
	if rc := FromContext(ctx); rc != nil {
		return rc.UserAgent
	}
	return ""
}

func GetUserID(ctx context.Context) (uint, bool) {
	if user, ok := CurrentUser(ctx); ok {
		return user.ID, true
	}
	return 0, false
}

func GetStartTime(ctx context.Context) time.Time {
	if val, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return val
	}
	if rc := FromContext(ctx); rc != nil {
		return rc.StartTime
	}
	return time.Time{}
}

func GetModule(ctx context.Context) string {
	if val, ok := ctx.Value(ModuleKey).(string); ok {
		return val
	}
	return ""
}

func GetFunction(ctx context.Context) string {
	if val, ok := ctx.Value(FunctionKey).(string); ok {
		return val
	}
	return ""
}

// GetDuration calculates duration from start time
func GetDuration(ctx context.Context) time.Duration {
	startTime := GetStartTime(ctx)
	if !startTime.IsZero() {
		return time.Since(startTime)
	}
	return 0
}

// WithFunction tags ctx with the layer and function for log extraction.
func WithFunction(ctx context.Context, module, function string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ModuleKey, module)
	return context.WithValue(ctx, FunctionKey, function)
}

// NewContextWithRequest creates a handler context and starts its timer.
func NewContextWithRequest(ctx context.Context, module, function string) context.Context {
	ctx = WithFunction(ctx, module, function)
	return context.WithValue(ctx, StartTimeKey, time.Now())
}
