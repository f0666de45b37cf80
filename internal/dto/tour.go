package dto

import (
	"strings"
	"time"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/model"
	"gorm.io/datatypes"
)

type CreateTourRequest struct {
	Name            string           `json:"name" binding:"required,min=10,max=40"`
	Duration        int              `json:"duration" binding:"required,gt=0"`
	MaxGroupSize    int              `json:"maxGroupSize" binding:"required,gt=0"`
	Difficulty      string           `json:"difficulty" binding:"required,oneof=easy medium difficult"`
	RatingsAverage  *float64         `json:"ratingsAverage" binding:"omitempty,gte=1,lte=5"`
	RatingsQuantity *int             `json:"ratingsQuantity" binding:"omitempty,gte=0"`
	Price           float64          `json:"price" binding:"required,gt=0"`
	PriceDiscount   *float64         `json:"priceDiscount" binding:"omitempty,gte=0,ltfield=Price"`
	Summary         string           `json:"summary" binding:"required"`
	Description     string           `json:"description"`
	ImageCover      string           `json:"imageCover" binding:"required"`
	Images          []string         `json:"images"`
	StartDates      []time.Time      `json:"startDates"`
	SecretTour      bool             `json:"secretTour"`
	StartLocation   *model.Location  `json:"startLocation"`
	Locations       []model.Location `json:"locations"`
	Guides          []uint           `json:"guides"`
}

// ToModel builds the tour to insert. Guides become reference-only rows.
func (r *CreateTourRequest) ToModel() *model.Tour {
	tour := &model.Tour{
		Name:           strings.TrimSpace(r.Name),
		Duration:       r.Duration,
		MaxGroupSize:   r.MaxGroupSize,
		Difficulty:     model.Difficulty(r.Difficulty),
		RatingsAverage: constants.DefaultRatingsAverage,
		Price:          r.Price,
		PriceDiscount:  r.PriceDiscount,
		Summary:        strings.TrimSpace(r.Summary),
		Description:    strings.TrimSpace(r.Description),
		ImageCover:     r.ImageCover,
		Images:         datatypes.JSONSlice[string](r.Images),
		StartDates:     datatypes.JSONSlice[time.Time](r.StartDates),
		SecretTour:     r.SecretTour,
		Locations:      datatypes.JSONSlice[model.Location](r.Locations),
	}
	if r.RatingsAverage != nil {
		tour.RatingsAverage = *r.RatingsAverage
	}
	if r.RatingsQuantity != nil {
		tour.RatingsQuantity = *r.RatingsQuantity
	}
	if r.StartLocation != nil {
		tour.StartLocation = datatypes.NewJSONType(*r.StartLocation)
	}
	for _, id := range r.Guides {
		tour.Guides = append(tour.Guides, model.User{Model: model.Model{ID: id}})
	}
	return tour
}

// UpdateTourRequest is a partial update; nil fields are left alone.
type UpdateTourRequest struct {
	Name            *string           `json:"name" binding:"omitempty,min=10,max=40"`
	Duration        *int              `json:"duration" binding:"omitempty,gt=0"`
	MaxGroupSize    *int              `json:"maxGroupSize" binding:"omitempty,gt=0"`
	Difficulty      *string           `json:"difficulty" binding:"omitempty,oneof=easy medium difficult"`
	RatingsAverage  *float64          `json:"ratingsAverage" binding:"omitempty,gte=1,lte=5"`
	RatingsQuantity *int              `json:"ratingsQuantity" binding:"omitempty,gte=0"`
	Price           *float64          `json:"price" binding:"omitempty,gt=0"`
	PriceDiscount   *float64          `json:"priceDiscount" binding:"omitempty,gte=0"`
	Summary         *string           `json:"summary" binding:"omitempty,min=1"`
	Description     *string           `json:"description"`
	ImageCover      *string           `json:"imageCover" binding:"omitempty,min=1"`
	Images          *[]string         `json:"images"`
	StartDates      *[]time.Time      `json:"startDates"`
	SecretTour      *bool             `json:"secretTour"`
	StartLocation   *model.Location   `json:"startLocation"`
	Locations       *[]model.Location `json:"locations"`
	Guides          *[]uint           `json:"guides"`
}

// Changes maps the present fields onto columns. Slug and guides are
// handled by the service.
func (r *UpdateTourRequest) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if r.Name != nil {
		changes["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Duration != nil {
		changes["duration"] = *r.Duration
	}
	if r.MaxGroupSize != nil {
		changes["max_group_size"] = *r.MaxGroupSize
	}
	if r.Difficulty != nil {
		changes["difficulty"] = *r.Difficulty
	}
	if r.RatingsAverage != nil {
		changes["ratings_average"] = model.RoundRating(*r.RatingsAverage)
	}
	if r.RatingsQuantity != nil {
		changes["ratings_quantity"] = *r.RatingsQuantity
	}
	if r.Price != nil {
		changes["price"] = *r.Price
	}
	if r.PriceDiscount != nil {
		changes["price_discount"] = *r.PriceDiscount
	}
	if r.Summary != nil {
		changes["summary"] = strings.TrimSpace(*r.Summary)
	}
	if r.Description != nil {
		changes["description"] = strings.TrimSpace(*r.Description)
	}
	if r.ImageCover != nil {
		changes["image_cover"] = *r.ImageCover
	}
	if r.Images != nil {
		changes["images"] = datatypes.JSONSlice[string](*r.Images)
	}
	if r.StartDates != nil {
		changes["start_dates"] = datatypes.JSONSlice[time.Time](*r.StartDates)
	}
	if r.SecretTour != nil {
		changes["secret_tour"] = *r.SecretTour
	}
	if r.StartLocation != nil {
		changes["start_location"] = datatypes.NewJSONType(*r.StartLocation)
	}
	if r.Locations != nil {
		changes["locations"] = datatypes.JSONSlice[model.Location](*r.Locations)
	}
	return changes
}
