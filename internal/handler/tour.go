package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/dto"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/query"
	"github.com/natours/api/internal/service"
	ctxutil "github.com/natours/api/pkg/context"
)

// Tours is the tour surface: CRUD plus the two aggregate reports.
type Tours interface {
	Resource[model.Tour, dto.CreateTourRequest, dto.UpdateTourRequest]
	Stats(ctx context.Context) ([]model.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlan, error)
}

var _ Tours = (*service.TourService)(nil)

type TourHandler struct {
	*ResourceHandler[model.Tour, dto.CreateTourRequest, dto.UpdateTourRequest]
	tours Tours
}

func NewTourHandler(tours Tours) *TourHandler {
	return &TourHandler{
		ResourceHandler: NewResourceHandler[model.Tour, dto.CreateTourRequest, dto.UpdateTourRequest](
			tours, "tour", "tours", query.WithMultiValue(constants.HPPWhitelist...),
		),
		tours: tours,
	}
}

// AliasTopTours presets the query for the five cheapest best-rated tours.
// It runs in front of List.
func AliasTopTours() gin.HandlerFunc {
	return func(c *gin.Context) {
		values := c.Request.URL.Query()
		values.Set(constants.QueryParamLimit, constants.TopCheapLimit)
		values.Set(constants.QueryParamSort, constants.TopCheapSort)
		values.Set(constants.QueryParamFields, constants.TopCheapFields)
		c.Request.URL.RawQuery = values.Encode()
		c.Next()
	}
}

func (h *TourHandler) Stats(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "TourStats")

	stats, err := h.tours.Stats(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse(gin.H{"stats": stats}))
}

func (h *TourHandler) MonthlyPlan(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "MonthlyPlan")

	raw := c.Param("year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		_ = c.Error(apperrors.NewValidationError("Invalid year: %s.", raw))
		return
	}

	plan, err := h.tours.MonthlyPlan(ctx, year)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse(gin.H{"plan": plan}))
}
