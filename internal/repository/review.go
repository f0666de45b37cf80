package repository

import (
	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/pipeline"
	"gorm.io/gorm"
)

// ReviewSchema populates the author of every review.
func ReviewSchema() Schema {
	return Schema{
		Resource: constants.ResourceReview,
		Columns: BaseColumns(map[string]string{
			"review": "review",
			"rating": "rating",
			"tour":   "tour_id",
			"user":   "user_id",
		}),
		Kinds: map[string]Kind{
			"rating": KindFloat,
			"tour":   KindInt,
			"user":   KindInt,
		},
		Required: []string{"id", "tour_id", "user_id"},
		Populate: []pipeline.Scope{pipeline.Populate("User", UserPrivateColumns...)},
	}
}

func NewReviewRepository(db *gorm.DB) *Store[model.Review] {
	return NewStore[model.Review](db, ReviewSchema())
}
