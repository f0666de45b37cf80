package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/constants"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/middleware"
	"github.com/natours/api/internal/query"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
	"github.com/natours/api/pkg/validation"
)

// Resource is the CRUD surface a ResourceHandler drives. C and U are the
// create and update request bodies.
type Resource[T, C, U any] interface {
	List(ctx context.Context, d query.Descriptor) ([]T, int64, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, in *C) (*T, error)
	Update(ctx context.Context, id uint, in *U) (*T, error)
	Delete(ctx context.Context, id uint) error
}

// ListScope narrows a list request using route parameters.
type ListScope func(c *gin.Context, d query.Descriptor) (query.Descriptor, error)

// CreateDefaults fills request fields that come from the route.
type CreateDefaults[C any] func(c *gin.Context, in *C) error

// ResourceHandler serves list, get, create, update and delete for one
// resource.
type ResourceHandler[T, C, U any] struct {
	resource  Resource[T, C, U]
	singular  string
	plural    string
	queryOpts []query.Option
	listScope ListScope
	defaults  CreateDefaults[C]
}

func NewResourceHandler[T, C, U any](resource Resource[T, C, U], singular, plural string, opts ...query.Option) *ResourceHandler[T, C, U] {
	return &ResourceHandler[T, C, U]{
		resource:  resource,
		singular:  singular,
		plural:    plural,
		queryOpts: opts,
	}
}

func (h *ResourceHandler[T, C, U]) WithListScope(scope ListScope) *ResourceHandler[T, C, U] {
	h.listScope = scope
	return h
}

func (h *ResourceHandler[T, C, U]) WithCreateDefaults(defaults CreateDefaults[C]) *ResourceHandler[T, C, U] {
	h.defaults = defaults
	return h
}

func (h *ResourceHandler[T, C, U]) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "List")

	d := query.Parse(c.Request.URL.Query(), h.queryOpts...)
	if h.listScope != nil {
		var err error
		if d, err = h.listScope(c, d); err != nil {
			_ = c.Error(err)
			return
		}
	}

	items, total, err := h.resource.List(ctx, d)
	if err != nil {
		_ = c.Error(err)
		return
	}

	logger.DebugWithContext(ctx, "List served").
		String("resource", h.singular).
		Int("page", d.Page()).
		Int("limit", d.Limit()).
		Int("returned_count", len(items)).
		Log()

	c.JSON(http.StatusOK, constants.BuildListResponse(h.plural, items, len(items), total, d.Page()))
}

func (h *ResourceHandler[T, C, U]) Get(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Get")

	id, err := ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	entity, err := h.resource.Get(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildEntityResponse(h.singular, entity))
}

func (h *ResourceHandler[T, C, U]) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Create")

	in, err := body[C](c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if h.defaults != nil {
		if err := h.defaults(c, in); err != nil {
			_ = c.Error(err)
			return
		}
	}

	entity, err := h.resource.Create(ctx, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, constants.BuildEntityResponse(h.singular, entity))
}

func (h *ResourceHandler[T, C, U]) Update(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Update")

	id, err := ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	in, err := body[U](c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	entity, err := h.resource.Update(ctx, id, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildEntityResponse(h.singular, entity))
}

// Delete answers 204 with no body, or 404 when nothing was there.
func (h *ResourceHandler[T, C, U]) Delete(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Delete")

	id, err := ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.resource.Delete(ctx, id); err != nil {
		_ = c.Error(err)
		return
	}

	logger.InfoWithContext(ctx, "Record deleted").
		String("resource", h.singular).
		Uint("id", id).
		Log()

	c.Status(http.StatusNoContent)
}

// ParseID reads a positive integer route parameter.
func ParseID(c *gin.Context, param string) (uint, error) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidationError("Invalid id: %s.", raw)
	}
	return uint(id), nil
}

// body returns the request validated by middleware, or binds it here when
// the route has no validation step.
func body[T any](c *gin.Context) (*T, error) {
	if in, ok := middleware.Body[T](c); ok {
		return in, nil
	}
	in := new(T)
	if err := c.ShouldBindJSON(in); err != nil {
		return nil, validation.Translate(err)
	}
	return in, nil
}
