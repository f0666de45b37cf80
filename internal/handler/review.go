package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/dto"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/query"
	"github.com/natours/api/internal/service"
)

// TourParam is the route parameter carrying the parent tour on nested
// review routes.
const TourParam = "id"

var _ Resource[model.Review, dto.CreateReviewRequest, dto.UpdateReviewRequest] = (*service.ReviewService)(nil)

type ReviewHandler struct {
	*ResourceHandler[model.Review, dto.CreateReviewRequest, dto.UpdateReviewRequest]
}

func NewReviewHandler(reviews Resource[model.Review, dto.CreateReviewRequest, dto.UpdateReviewRequest]) *ReviewHandler {
	h := NewResourceHandler[model.Review, dto.CreateReviewRequest, dto.UpdateReviewRequest](reviews, "review", "reviews")
	h.WithListScope(scopeToTour).WithCreateDefaults(tourFromRoute)
	return &ReviewHandler{ResourceHandler: h}
}

// scopeToTour limits the list to the parent tour when nested.
func scopeToTour(c *gin.Context, d query.Descriptor) (query.Descriptor, error) {
	if c.Param(TourParam) == "" {
		return d, nil
	}
	tourID, err := ParseID(c, TourParam)
	if err != nil {
		return d, err
	}
	return d.WithFilter("tour", strconv.FormatUint(uint64(tourID), 10)), nil
}

// tourFromRoute lets the nested route supply the tour.
func tourFromRoute(c *gin.Context, in *dto.CreateReviewRequest) error {
	if c.Param(TourParam) == "" {
		return nil
	}
	tourID, err := ParseID(c, TourParam)
	if err != nil {
		return err
	}
	in.Tour = tourID
	return nil
}
