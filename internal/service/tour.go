package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/dto"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/pipeline"
	"github.com/natours/api/internal/query"
	"github.com/natours/api/internal/repository"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
)

// TourStore is the tour persistence TourService needs.
type TourStore interface {
	Store[model.Tour]
	UpdateTour(ctx context.Context, id uint, changes map[string]interface{}, guideIDs *[]uint) (*model.Tour, error)
	Stats(ctx context.Context, minRating float64) ([]model.TourStats, error)
	Schedules(ctx context.Context) ([]model.Tour, error)
}

var _ TourStore = (*repository.TourRepository)(nil)

// NormalizeSlug derives the slug from the name.
func NormalizeSlug(_ context.Context, tour *model.Tour) error {
	tour.Slug = pipeline.Slugify(tour.Name)
	return nil
}

// RoundRatings keeps ratingsAverage at one decimal place.
func RoundRatings(_ context.Context, tour *model.Tour) error {
	tour.RatingsAverage = model.RoundRating(tour.RatingsAverage)
	return nil
}

type tourPage struct {
	Items []model.Tour `json:"items"`
	Total int64        `json:"total"`
}

type TourService struct {
	tours TourStore
	base  *ResourceService[model.Tour]
	cache *CacheService
}

func NewTourService(tours TourStore, cache *CacheService) *TourService {
	return &TourService{
		tours: tours,
		base:  NewResourceService[model.Tour](tours, constants.ResourceTour),
		cache: cache,
	}
}

func (s *TourService) List(ctx context.Context, d query.Descriptor) ([]model.Tour, int64, error) {
	page, err := Remember(ctx, s.cache, constants.ResourceTour, "list:"+d.Key(), func() (tourPage, error) {
		items, total, err := s.base.List(ctx, d)
		return tourPage{Items: items, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

// Get returns a tour with its guides and reviews.
func (s *TourService) Get(ctx context.Context, id uint) (*model.Tour, error) {
	return Remember(ctx, s.cache, constants.ResourceTour, "get:"+strconv.FormatUint(uint64(id), 10), func() (*model.Tour, error) {
		return s.base.Get(ctx, id, repository.WithReviews())
	})
}

func (s *TourService) Create(ctx context.Context, in *dto.CreateTourRequest) (*model.Tour, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateTour")

	tour, err := s.base.Create(ctx, in.ToModel(), NormalizeSlug, RoundRatings)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, constants.ResourceTour)

	logger.InfoWithContext(ctx, "Tour created").
		Uint("tour_id", tour.ID).
		String("slug", tour.Slug).
		Log()
	return tour, nil
}

func (s *TourService) Update(ctx context.Context, id uint, in *dto.UpdateTourRequest) (*model.Tour, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateTour")

	if in.Price != nil && in.PriceDiscount != nil && *in.PriceDiscount >= *in.Price {
		return nil, apperrors.NewValidationError(
			"Invalid input data. Discount price (%s) should be below regular price.",
			strconv.FormatFloat(*in.PriceDiscount, 'f', -1, 64),
		)
	}

	changes := in.Changes()
	if in.Name != nil {
		changes["slug"] = pipeline.Slugify(*in.Name)
	}

	tour, err := s.tours.UpdateTour(ctx, id, changes, in.Guides)
	if err != nil {
		return nil, apperrors.FromDatabase(err, constants.ResourceTour)
	}
	s.cache.Invalidate(ctx, constants.ResourceTour)

	logger.InfoWithContext(ctx, "Tour updated").
		Uint("tour_id", id).
		Int("changed_fields", len(changes)).
		Bool("guides_replaced", in.Guides != nil).
		Log()
	return tour, nil
}

func (s *TourService) Delete(ctx context.Context, id uint) error {
	if err := s.base.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, constants.ResourceTour)
	return nil
}

// Stats reports rating and price figures per difficulty for tours rated
// 4.5 or higher.
func (s *TourService) Stats(ctx context.Context) ([]model.TourStats, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "TourStats")

	return Remember(ctx, s.cache, constants.ResourceTour, "stats", func() ([]model.TourStats, error) {
		stats, err := s.tours.Stats(ctx, constants.StatsMinRating)
		if err != nil {
			return nil, apperrors.FromDatabase(err, constants.ResourceTour)
		}
		for i := range stats {
			stats[i].AvgRating = model.RoundRating(stats[i].AvgRating)
		}
		return stats, nil
	})
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlan, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "MonthlyPlan")

	tours, err := s.tours.Schedules(ctx)
	if err != nil {
		return nil, apperrors.FromDatabase(err, constants.ResourceTour)
	}

	plan := BuildMonthlyPlan(tours, year)

	logger.DebugWithContext(ctx, "Monthly plan built").
		Int("year", year).
		Int("months", len(plan)).
		Log()
	return plan, nil
}

// BuildMonthlyPlan groups the start dates falling in year by month. Months
// are ordered by number of starts, then by month; at most 12 are returned.
func BuildMonthlyPlan(tours []model.Tour, year int) []model.MonthlyPlan {
	byMonth := map[time.Month]*model.MonthlyPlan{}
	for _, tour := range tours {
		for _, start := range tour.StartDates {
			start = start.UTC()
			if start.Year() != year {
				continue
			}
			entry, ok := byMonth[start.Month()]
			if !ok {
				entry = &model.MonthlyPlan{Month: int(start.Month()), Tours: []string{}}
				byMonth[start.Month()] = entry
			}
			entry.NumTourStarts++
			entry.Tours = append(entry.Tours, tour.Name)
		}
	}

	plan := make([]model.MonthlyPlan, 0, len(byMonth))
	for _, entry := range byMonth {
		plan = append(plan, *entry)
	}
	sort.Slice(plan, func(i, j int) bool {
		if plan[i].NumTourStarts != plan[j].NumTourStarts {
			return plan[i].NumTourStarts > plan[j].NumTourStarts
		}
		return plan[i].Month < plan[j].Month
	})
	if len(plan) > 12 {
		plan = plan[:12]
	}
	return plan
}
