package repository

import (
	"context"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/pipeline"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
	"gorm.io/gorm"
)

// UserPrivateColumns never leave the users table through a populate.
var UserPrivateColumns = []string{
	"password",
	"password_changed_at",
	"password_reset_token",
	"password_reset_expires",
	"active",
	"version",
}

// TourSchema hides secret tours and populates guides on every find.
func TourSchema() Schema {
	return Schema{
		Resource: constants.ResourceTour,
		Columns: BaseColumns(map[string]string{
			"name":            "name",
			"slug":            "slug",
			"duration":        "duration",
			"maxGroupSize":    "max_group_size",
			"difficulty":      "difficulty",
			"ratingsAverage":  "ratings_average",
			"ratingsQuantity": "ratings_quantity",
			"price":           "price",
			"priceDiscount":   "price_discount",
			"summary":         "summary",
			"description":     "description",
			"imageCover":      "image_cover",
			"images":          "images",
			"startDates":      "start_dates",
			"startLocation":   "start_location",
			"locations":       "locations",
		}),
		Kinds: map[string]Kind{
			"duration":        KindInt,
			"maxGroupSize":    KindInt,
			"ratingsQuantity": KindInt,
			"ratingsAverage":  KindFloat,
			"price":           KindFloat,
			"priceDiscount":   KindFloat,
			"images":          KindJSON,
			"startDates":      KindJSON,
			"startLocation":   KindJSON,
			"locations":       KindJSON,
		},
		Required:   []string{"id"},
		References: []string{"Guides"},
		Filters:    []pipeline.Scope{pipeline.SoftDeleteFilter("secret_tour", true)},
		Populate:   []pipeline.Scope{pipeline.Populate("Guides", UserPrivateColumns...)},
	}
}

// tourGuide is a row of the tours/users join table.
type tourGuide struct {
	TourID uint `gorm:"column:tour_id;primaryKey"`
	UserID uint `gorm:"column:user_id;primaryKey"`
}

func (tourGuide) TableName() string { return "tour_guides" }

type TourRepository struct {
	*Store[model.Tour]
}

func NewTourRepository(db *gorm.DB) *TourRepository {
	return &TourRepository{Store: NewStore[model.Tour](db, TourSchema())}
}

// WithReviews populates a tour's reviews and their authors.
func WithReviews() pipeline.Scope {
	return pipeline.Populate("Reviews.User", UserPrivateColumns...)
}

// Stats groups highly rated tours by difficulty, cheapest bucket first.
func (r *TourRepository) Stats(ctx context.Context, minRating float64) ([]model.TourStats, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "Stats")

	stats := []model.TourStats{}
	err := pipeline.Timed(ctx, constants.ResourceTour, "stats", func() error {
		return r.query(ctx, nil).
			Select(`UPPER(difficulty) AS difficulty,
				COUNT(*) AS num_tours,
				COALESCE(SUM(ratings_quantity), 0) AS num_ratings,
				AVG(ratings_average) AS avg_rating,
				AVG(price) AS avg_price,
				MIN(price) AS min_price,
				MAX(price) AS max_price`).
			Where("ratings_average >= ?", minRating).
			Group("UPPER(difficulty)").
			Order("avg_price ASC").
			Scan(&stats).Error
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to aggregate tour stats").
			Err(err).
			Log()
		return nil, err
	}
	return stats, nil
}

// Schedules loads just the names and start dates of every visible tour.
func (r *TourRepository) Schedules(ctx context.Context) ([]model.Tour, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "Schedules")

	tours := []model.Tour{}
	err := pipeline.Timed(ctx, constants.ResourceTour, "schedules", func() error {
		return r.query(ctx, nil).
			Select("id", "name", "start_dates").
			Find(&tours).Error
	})
	if err != nil {
		return nil, err
	}
	return tours, nil
}

// UpdateTour writes changes and, when guideIDs is set, the complete guide
// list in one transaction. The write honours the secret-tour filter; the
// read-back does not, so a tour hidden by this very update is still returned.
func (r *TourRepository) UpdateTour(ctx context.Context, id uint, changes map[string]interface{}, guideIDs *[]uint) (*model.Tour, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdateTour")

	err := r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.withDB(tx).UpdateColumns(ctx, id, changes); err != nil {
			return err
		}
		if guideIDs == nil {
			return nil
		}
		return pipeline.Timed(ctx, constants.ResourceTour, "replace_guides", func() error {
			return replaceGuides(tx, id, *guideIDs)
		})
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Tour update rolled back").
			Uint("tour_id", id).
			Err(err).
			Log()
		return nil, err
	}

	var tour model.Tour
	err = pipeline.Timed(ctx, constants.ResourceTour, "get", func() error {
		return r.unfiltered(ctx).
			Scopes(byID(id)).
			Scopes(r.schema.Populate...).
			First(&tour).Error
	})
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

// replaceGuides makes guideIDs the complete guide list of a tour.
func replaceGuides(tx *gorm.DB, tourID uint, guideIDs []uint) error {
	if err := tx.Where("tour_id = ?", tourID).Delete(&tourGuide{}).Error; err != nil {
		return err
	}
	if len(guideIDs) == 0 {
		return nil
	}
	rows := make([]tourGuide, 0, len(guideIDs))
	seen := make(map[uint]bool, len(guideIDs))
	for _, id := range guideIDs {
		if !seen[id] {
			seen[id] = true
			rows = append(rows, tourGuide{TourID: tourID, UserID: id})
		}
	}
	return tx.Create(&rows).Error
}

// RefreshRatings recomputes a tour's rating summary from its reviews. It
// ignores the secret-tour filter; hidden tours still keep accurate ratings.
func (r *TourRepository) RefreshRatings(ctx context.Context, tourID uint) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "RefreshRatings")

	var agg struct {
		Count   int64
		Average *float64
	}

	err := pipeline.Timed(ctx, constants.ResourceTour, "refresh_ratings", func() error {
		db := r.DB().WithContext(ctx)
		if err := db.Model(&model.Review{}).
			Select("COUNT(*) AS count, AVG(rating) AS average").
			Where("tour_id = ?", tourID).
			Scan(&agg).Error; err != nil {
			return err
		}

		average := constants.DefaultRatingsAverage
		if agg.Count > 0 && agg.Average != nil {
			average = model.RoundRating(*agg.Average)
		}

		return db.Model(&model.Tour{}).
			Where("id = ?", tourID).
			Updates(map[string]interface{}{
				"ratings_quantity": agg.Count,
				"ratings_average":  average,
			}).Error
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to refresh tour ratings").
			Uint("tour_id", tourID).
			Err(err).
			Log()
		return err
	}

	logger.DebugWithContext(ctx, "Tour ratings refreshed").
		Uint("tour_id", tourID).
		Int64("ratings_quantity", agg.Count).
		Log()
	return nil
}
