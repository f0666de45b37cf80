package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/natours/api/internal/dto"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/middleware"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	router := gin.New()
	router.Use(middleware.ContextMiddleware(), middleware.ErrorMiddleware(true))
	return router
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type fakeTours struct {
	tours   map[uint]*model.Tour
	lastQ   query.Descriptor
	created *dto.CreateTourRequest
	year    int
}

func newFakeTours() *fakeTours {
	return &fakeTours{tours: map[uint]*model.Tour{
		1: {Model: model.Model{ID: 1}, Name: "The Forest Hiker", Price: 397},
		2: {Model: model.Model{ID: 2}, Name: "The Sea Explorer", Price: 497},
	}}
}

func (f *fakeTours) List(_ context.Context, d query.Descriptor) ([]model.Tour, int64, error) {
	f.lastQ = d
	out := make([]model.Tour, 0, len(f.tours))
	for _, t := range f.tours {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTours) Get(_ context.Context, id uint) (*model.Tour, error) {
	t, ok := f.tours[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("tour")
	}
	return t, nil
}

func (f *fakeTours) Create(_ context.Context, in *dto.CreateTourRequest) (*model.Tour, error) {
	f.created = in
	t := in.ToModel()
	t.ID = 3
	return t, nil
}

func (f *fakeTours) Update(_ context.Context, id uint, in *dto.UpdateTourRequest) (*model.Tour, error) {
	t, ok := f.tours[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("tour")
	}
	if in.Price != nil {
		t.Price = *in.Price
	}
	return t, nil
}

func (f *fakeTours) Delete(_ context.Context, id uint) error {
	if _, ok := f.tours[id]; !ok {
		return apperrors.NewNotFoundError("tour")
	}
	delete(f.tours, id)
	return nil
}

func (f *fakeTours) Stats(context.Context) ([]model.TourStats, error) {
	return []model.TourStats{{Difficulty: "EASY", NumTours: 2, AvgRating: 4.7}}, nil
}

func (f *fakeTours) MonthlyPlan(_ context.Context, year int) ([]model.MonthlyPlan, error) {
	f.year = year
	return []model.MonthlyPlan{{Month: 7, NumTourStarts: 3, Tours: []string{"a", "b", "c"}}}, nil
}

func tourRouter(tours *fakeTours) *gin.Engine {
	h := NewTourHandler(tours)
	router := newEngine()
	g := router.Group("/api/v1/tours")
	g.GET("/top-5-cheap", AliasTopTours(), h.List)
	g.GET("/tour-stats", h.Stats)
	g.GET("/monthly-plan/:year", h.MonthlyPlan)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return router
}

func TestTourHandler_List(t *testing.T) {
	tours := newFakeTours()
	w := do(tourRouter(tours), http.MethodGet, "/api/v1/tours?page=2&limit=1&difficulty=easy&difficulty=medium", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["results"])
	assert.EqualValues(t, 2, body["page"])
	assert.Len(t, body["data"].(map[string]any)["tours"], 2)

	require.Len(t, tours.lastQ.Filter(), 1)
	assert.Equal(t, []string{"easy", "medium"}, tours.lastQ.Filter()[0].Values)
}

func TestAliasTopTours(t *testing.T) {
	tours := newFakeTours()
	w := do(tourRouter(tours), http.MethodGet, "/api/v1/tours/top-5-cheap?limit=50", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, tours.lastQ.Limit())
	assert.Equal(t, []string{"name", "price", "ratingsAverage", "summary", "difficulty"}, tours.lastQ.Projection().Include)
	require.Len(t, tours.lastQ.Sort(), 2)
	assert.Equal(t, "ratingsAverage", tours.lastQ.Sort()[0].Field)
}

func TestTourHandler_Get(t *testing.T) {
	router := tourRouter(newFakeTours())

	tests := []struct {
		name        string
		target      string
		wantStatus  int
		wantMessage string
	}{
		{"found", "/api/v1/tours/1", http.StatusOK, ""},
		{"not a number", "/api/v1/tours/abc", http.StatusBadRequest, "Invalid id: abc."},
		{"zero", "/api/v1/tours/0", http.StatusBadRequest, "Invalid id: 0."},
		{"missing", "/api/v1/tours/42", http.StatusNotFound, "No tour found with that ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decode(t, w)["message"])
			}
		})
	}
}

func TestTourHandler_CreateUpdateDelete(t *testing.T) {
	tours := newFakeTours()
	router := tourRouter(tours)

	w := do(router, http.MethodPost, "/api/v1/tours", `{
		"name": "The Park Camper",
		"duration": 10,
		"maxGroupSize": 15,
		"difficulty": "medium",
		"price": 1497,
		"summary": "Breathing in Nature",
		"imageCover": "tour-5-cover.jpg"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "The Park Camper", tours.created.Name)
	tour := decode(t, w)["data"].(map[string]any)["tour"].(map[string]any)
	assert.EqualValues(t, 3, tour["id"])

	w = do(router, http.MethodPost, "/api/v1/tours", `{"name": "short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPatch, "/api/v1/tours/1", `{"price": 500}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500.0, tours.tours[1].Price)

	w = do(router, http.MethodDelete, "/api/v1/tours/2", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(router, http.MethodDelete, "/api/v1/tours/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTourHandler_Reports(t *testing.T) {
	tours := newFakeTours()
	router := tourRouter(tours)

	w := do(router, http.MethodGet, "/api/v1/tours/tour-stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].(map[string]any)["stats"], 1)

	w = do(router, http.MethodGet, "/api/v1/tours/monthly-plan/2021", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2021, tours.year)
	assert.Len(t, decode(t, w)["data"].(map[string]any)["plan"], 1)

	w = do(router, http.MethodGet, "/api/v1/tours/monthly-plan/next", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid year: next.", decode(t, w)["message"])
}

type fakeReviews struct {
	lastQ   query.Descriptor
	created *dto.CreateReviewRequest
}

func (f *fakeReviews) List(_ context.Context, d query.Descriptor) ([]model.Review, int64, error) {
	f.lastQ = d
	return []model.Review{}, 0, nil
}

func (f *fakeReviews) Get(context.Context, uint) (*model.Review, error) {
	return nil, apperrors.NewNotFoundError("review")
}

func (f *fakeReviews) Create(_ context.Context, in *dto.CreateReviewRequest) (*model.Review, error) {
	f.created = in
	return &model.Review{Model: model.Model{ID: 9}, Review: in.Review, Rating: in.Rating, TourID: in.Tour}, nil
}

func (f *fakeReviews) Update(context.Context, uint, *dto.UpdateReviewRequest) (*model.Review, error) {
	return nil, apperrors.NewNotFoundError("review")
}

func (f *fakeReviews) Delete(context.Context, uint) error { return nil }

func reviewRouter(reviews *fakeReviews) *gin.Engine {
	h := NewReviewHandler(reviews)
	router := newEngine()
	router.GET("/api/v1/reviews", h.List)
	router.POST("/api/v1/reviews", h.Create)
	router.GET("/api/v1/tours/:id/reviews", h.List)
	router.POST("/api/v1/tours/:id/reviews", h.Create)
	return router
}

func TestReviewHandler_NestedUnderTour(t *testing.T) {
	reviews := &fakeReviews{}
	router := reviewRouter(reviews)

	w := do(router, http.MethodGet, "/api/v1/tours/7/reviews?rating%5Bgte%5D=4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, reviews.lastQ.Filter(), query.Condition{Field: "tour", Op: query.OpEq, Values: []string{"7"}})
	assert.Len(t, reviews.lastQ.Filter(), 2)

	w = do(router, http.MethodPost, "/api/v1/tours/7/reviews", `{"review":"Amazing","rating":5,"tour":3}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint(7), reviews.created.Tour, "route wins over body")

	w = do(router, http.MethodGet, "/api/v1/tours/x/reviews", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_Flat(t *testing.T) {
	reviews := &fakeReviews{}
	router := reviewRouter(reviews)

	w := do(router, http.MethodGet, "/api/v1/reviews", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, reviews.lastQ.Filter())

	w = do(router, http.MethodPost, "/api/v1/reviews", `{"review":"Fine","rating":4,"tour":3}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint(3), reviews.created.Tour)

	w = do(router, http.MethodPost, "/api/v1/reviews", `{"review":"Too good","rating":6,"tour":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeCacheAdmin struct {
	invalidated []string
	cleared     bool
	err         error
}

func (f *fakeCacheAdmin) Invalidate(_ context.Context, resource string) {
	f.invalidated = append(f.invalidated, resource)
}

func (f *fakeCacheAdmin) ClearAll(context.Context) (int, error) {
	f.cleared = true
	return 4, f.err
}

func (f *fakeCacheAdmin) Stats() map[string]interface{} {
	return map[string]interface{}{"enabled": true}
}

func TestCacheHandler(t *testing.T) {
	admin := &fakeCacheAdmin{}
	h := NewCacheHandler(admin)
	router := newEngine()
	router.GET("/cache/stats", h.GetCacheStats)
	router.DELETE("/cache", h.ClearAllCache)
	router.DELETE("/cache/:resource", h.InvalidateCache)

	w := do(router, http.MethodDelete, "/cache/tour", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tour"}, admin.invalidated)

	w = do(router, http.MethodDelete, "/cache/bookings", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodDelete, "/cache", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, admin.cleared)

	w = do(router, http.MethodDelete, "/cache?confirm=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, decode(t, w)["data"].(map[string]any)["deleted"])

	admin.err = errors.New("redis down")
	w = do(router, http.MethodDelete, "/cache?confirm=true", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = do(router, http.MethodGet, "/cache/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
