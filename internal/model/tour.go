package model

import (
	"encoding/json"
	"math"
	"time"

	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Location is a GeoJSON point with optional tour metadata.
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

type Tour struct {
	Model
	Name            string                         `gorm:"column:name;size:40;uniqueIndex;not null" json:"name"`
	Slug            string                         `gorm:"column:slug;size:64;index" json:"slug"`
	Duration        int                            `gorm:"column:duration;not null" json:"duration"`
	MaxGroupSize    int                            `gorm:"column:max_group_size;not null" json:"maxGroupSize"`
	Difficulty      Difficulty                     `gorm:"column:difficulty;type:varchar(20);not null" json:"difficulty"`
	RatingsAverage  float64                        `gorm:"column:ratings_average;default:4.5" json:"ratingsAverage"`
	RatingsQuantity int                            `gorm:"column:ratings_quantity;default:0" json:"ratingsQuantity"`
	Price           float64                        `gorm:"column:price;not null;index" json:"price"`
	PriceDiscount   *float64                       `gorm:"column:price_discount" json:"priceDiscount,omitempty"`
	Summary         string                         `gorm:"column:summary;not null" json:"summary"`
	Description     string                         `gorm:"column:description;type:text" json:"description,omitempty"`
	ImageCover      string                         `gorm:"column:image_cover;not null" json:"imageCover"`
	Images          datatypes.JSONSlice[string]    `gorm:"column:images" json:"images,omitempty"`
	StartDates      datatypes.JSONSlice[time.Time] `gorm:"column:start_dates" json:"startDates,omitempty"`
	SecretTour      bool                           `gorm:"column:secret_tour;not null;default:false" json:"secretTour"`
	StartLocation   datatypes.JSONType[Location]   `gorm:"column:start_location" json:"startLocation"`
	Locations       datatypes.JSONSlice[Location]  `gorm:"column:locations" json:"locations,omitempty"`
	Guides          []User                         `gorm:"many2many:tour_guides;constraint:OnDelete:CASCADE" json:"guides,omitempty"`
	Reviews         []Review                       `json:"reviews,omitempty"`
}

// DurationWeeks is derived, never stored.
func (t Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// RoundRating keeps one decimal place, e.g. 4.666 becomes 4.7.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

func (t Tour) MarshalJSON() ([]byte, error) {
	type alias Tour
	return json.Marshal(struct {
		alias
		DurationWeeks float64 `json:"durationWeeks"`
	}{alias(t), t.DurationWeeks()})
}

// TourStats is one difficulty bucket of the ratings report.
type TourStats struct {
	Difficulty string  `json:"_id"`
	NumTours   int64   `json:"numTours"`
	NumRatings int64   `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlan is the number of tour starts in one month of a year.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}
