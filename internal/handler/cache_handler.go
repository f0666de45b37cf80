package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/constants"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/service"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
)

// CacheAdmin is the cache maintenance surface.
type CacheAdmin interface {
	Invalidate(ctx context.Context, resource string)
	ClearAll(ctx context.Context) (int, error)
	Stats() map[string]interface{}
}

var _ CacheAdmin = (*service.CacheService)(nil)

type CacheHandler struct {
	cache CacheAdmin
}

func NewCacheHandler(cache CacheAdmin) *CacheHandler {
	return &CacheHandler{cache: cache}
}

var cachedResources = map[string]bool{
	constants.ResourceTour:   true,
	constants.ResourceUser:   true,
	constants.ResourceReview: true,
}

// InvalidateCache drops the cached entries of one resource.
func (h *CacheHandler) InvalidateCache(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "InvalidateCache")

	resource := c.Param("resource")
	if !cachedResources[resource] {
		_ = c.Error(apperrors.NewValidationError("Unknown cache resource: %s.", resource))
		return
	}

	h.cache.Invalidate(ctx, resource)

	logger.InfoWithContext(ctx, "Cache invalidated").
		String("resource", resource).
		Log()

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Cache invalidated successfully"))
}

func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, constants.BuildDataResponse(gin.H{"cache": h.cache.Stats()}))
}

// ClearAllCache needs ?confirm=true.
func (h *CacheHandler) ClearAllCache(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ClearAllCache")

	if c.Query("confirm") != "true" {
		_ = c.Error(apperrors.NewValidationError("Add ?confirm=true to clear the whole cache."))
		return
	}

	deleted, err := h.cache.ClearAll(ctx)
	if err != nil {
		_ = c.Error(apperrors.NewInternalError("failed to clear cache", err))
		return
	}

	logger.WarnWithContext(ctx, "All cache cleared").
		Int("deleted_keys", deleted).
		Log()

	c.JSON(http.StatusOK, constants.BuildDataResponse(gin.H{"deleted": deleted}))
}
