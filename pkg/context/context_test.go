package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/natours/api/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRequestContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))
	assert.Empty(t, GetRequestID(ctx))
	assert.False(t, SetIdentity(ctx, &model.User{}))

	ctx = WithRequestContext(ctx, &RequestContext{
		RequestID: "req-1",
		ClientIP:  "10.0.0.1",
		UserAgent: "curl/8.0",
	})
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "10.0.0.1", GetClientIP(ctx))
	assert.Equal(t, "curl/8.0", GetUserAgent(ctx))
	assert.False(t, GetStartTime(ctx).IsZero())

	_, ok := CurrentUser(ctx)
	assert.False(t, ok)

	assert.True(t, SetIdentity(ctx, &model.User{Model: model.Model{ID: 42}}))
	id, ok := GetUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}

func TestNewContextWithRequest(t *testing.T) {
	ctx := NewContextWithRequest(context.Background(), "handler", "GetTour")

	assert.Equal(t, "handler", GetModule(ctx))
	assert.Equal(t, "GetTour", GetFunction(ctx))
	assert.WithinDuration(t, time.Now(), GetStartTime(ctx), time.Second)
	assert.GreaterOrEqual(t, GetDuration(ctx), time.Duration(0))

	assert.Equal(t, "jobs", GetModule(WithFunction(nil, "jobs", "Run")))
	assert.Zero(t, GetDuration(context.Background()))
}
