package dto

import (
	"testing"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/model"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestCreateTourRequest_ToModel(t *testing.T) {
	req := &CreateTourRequest{
		Name:          "  The Forest Hiker ",
		Duration:      5,
		MaxGroupSize:  25,
		Difficulty:    "easy",
		Price:         397,
		Summary:       " Breathtaking hike ",
		ImageCover:    "tour-1-cover.jpg",
		Images:        []string{"tour-1-1.jpg"},
		StartLocation: &model.Location{Type: "Point", Coordinates: []float64{-115.57, 51.17}},
		Guides:        []uint{3, 7},
	}

	tour := req.ToModel()
	assert.Equal(t, "The Forest Hiker", tour.Name)
	assert.Equal(t, "Breathtaking hike", tour.Summary)
	assert.Equal(t, model.DifficultyEasy, tour.Difficulty)
	assert.Equal(t, constants.DefaultRatingsAverage, tour.RatingsAverage)
	assert.Equal(t, "Point", tour.StartLocation.Data().Type)
	assert.Len(t, tour.Guides, 2)
	assert.Equal(t, uint(7), tour.Guides[1].ID)

	req.RatingsAverage = ptr(4.8)
	req.RatingsQuantity = ptr(12)
	tour = req.ToModel()
	assert.Equal(t, 4.8, tour.RatingsAverage)
	assert.Equal(t, 12, tour.RatingsQuantity)
}

func TestUpdateTourRequest_Changes(t *testing.T) {
	assert.Empty(t, (&UpdateTourRequest{}).Changes())

	changes := (&UpdateTourRequest{
		Name:           ptr(" The Sea Explorer "),
		MaxGroupSize:   ptr(15),
		RatingsAverage: ptr(4.666),
		SecretTour:     ptr(true),
		Guides:         &[]uint{1},
	}).Changes()

	assert.Equal(t, map[string]interface{}{
		"name":            "The Sea Explorer",
		"max_group_size":  15,
		"ratings_average": 4.7,
		"secret_tour":     true,
	}, changes)
}

func TestUpdateMeRequest(t *testing.T) {
	req := &UpdateMeRequest{Name: ptr(" Jonas "), Email: ptr(" Jonas@Example.COM ")}
	assert.False(t, req.HasPassword())
	assert.Equal(t, map[string]interface{}{
		"name":  "Jonas",
		"email": "jonas@example.com",
	}, req.Changes())

	assert.True(t, (&UpdateMeRequest{PasswordConfirm: ptr("secret123")}).HasPassword())
}

func TestUpdateUserRequest_Changes(t *testing.T) {
	changes := (&UpdateUserRequest{Role: ptr("guide"), Photo: ptr("user-2.jpg")}).Changes()
	assert.Equal(t, map[string]interface{}{"role": "guide", "photo": "user-2.jpg"}, changes)
}

func TestUpdateReviewRequest_Changes(t *testing.T) {
	changes := (&UpdateReviewRequest{Review: ptr(" Loved it "), Rating: ptr(5.0)}).Changes()
	assert.Equal(t, map[string]interface{}{"review": "Loved it", "rating": 5.0}, changes)
}
