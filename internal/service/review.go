package service

import (
	"context"
	"strings"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/dto"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/pipeline"
	"github.com/natours/api/internal/query"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
)

// RatingsRefresher recomputes a tour's rating summary.
type RatingsRefresher interface {
	Get(ctx context.Context, id uint, scopes ...pipeline.Scope) (*model.Tour, error)
	RefreshRatings(ctx context.Context, tourID uint) error
}

var errReviewNeedsTour = apperrors.NewValidationError("Review must belong to a tour.")

// TrimReview rejects reviews that are only whitespace.
func TrimReview(_ context.Context, review *model.Review) error {
	review.Review = strings.TrimSpace(review.Review)
	if review.Review == "" {
		return apperrors.NewValidationError("Invalid input data. Review can not be empty!")
	}
	return nil
}

type ReviewService struct {
	base  *ResourceService[model.Review]
	tours RatingsRefresher
	cache *CacheService
}

func NewReviewService(reviews Store[model.Review], tours RatingsRefresher, cache *CacheService) *ReviewService {
	return &ReviewService{
		base:  NewResourceService[model.Review](reviews, constants.ResourceReview),
		tours: tours,
		cache: cache,
	}
}

func (s *ReviewService) List(ctx context.Context, d query.Descriptor) ([]model.Review, int64, error) {
	return s.base.List(ctx, d)
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*model.Review, error) {
	return s.base.Get(ctx, id)
}

// Create writes a review by the current user.
func (s *ReviewService) Create(ctx context.Context, in *dto.CreateReviewRequest) (*model.Review, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateReview")

	user, ok := ctxutil.CurrentUser(ctx)
	if !ok {
		return nil, apperrors.ErrNotLoggedIn
	}
	if in.Tour == 0 {
		return nil, errReviewNeedsTour
	}
	if _, err := s.tours.Get(ctx, in.Tour); err != nil {
		return nil, apperrors.FromDatabase(err, constants.ResourceTour)
	}

	review, err := s.base.Create(ctx, &model.Review{
		Review: in.Review,
		Rating: in.Rating,
		TourID: in.Tour,
		UserID: user.ID,
	}, TrimReview)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeDuplicateKey) {
			logger.WarnWithContext(ctx, "Second review of the same tour rejected").
				Uint("tour_id", in.Tour).
				Uint("user_id", user.ID).
				Log()
		}
		return nil, err
	}

	s.refresh(ctx, review.TourID)
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, id uint, in *dto.UpdateReviewRequest) (*model.Review, error) {
	review, err := s.base.Update(ctx, id, in.Changes())
	if err != nil {
		return nil, err
	}
	if in.Rating != nil {
		s.refresh(ctx, review.TourID)
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	review, err := s.base.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.base.Delete(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx, review.TourID)
	return nil
}

// refresh keeps tour ratings in step with its reviews. Failures are logged;
// the review write itself already succeeded.
func (s *ReviewService) refresh(ctx context.Context, tourID uint) {
	if err := s.tours.RefreshRatings(ctx, tourID); err != nil {
		logger.ErrorWithContext(ctx, "Tour ratings are stale").
			Uint("tour_id", tourID).
			Err(err).
			Log()
		return
	}
	s.cache.Invalidate(ctx, constants.ResourceTour)
}
