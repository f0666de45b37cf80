package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/natours/api/internal/dto"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/query"
	"github.com/natours/api/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 9, 0, 0, 0, time.UTC)
}

func TestBuildMonthlyPlan(t *testing.T) {
	tours := []model.Tour{
		{Name: "The Forest Hiker", StartDates: datatypes.JSONSlice[time.Time]{
			day(2021, time.April, 25), day(2021, time.July, 20), day(2021, time.October, 5),
		}},
		{Name: "The Sea Explorer", StartDates: datatypes.JSONSlice[time.Time]{
			day(2021, time.June, 19), day(2021, time.July, 20), day(2022, time.July, 1),
		}},
		{Name: "The Snow Adventurer", StartDates: datatypes.JSONSlice[time.Time]{
			day(2021, time.January, 5), day(2021, time.July, 19),
		}},
	}

	plan := BuildMonthlyPlan(tours, 2021)

	require.Len(t, plan, 5)
	assert.Equal(t, model.MonthlyPlan{
		Month:         7,
		NumTourStarts: 3,
		Tours:         []string{"The Forest Hiker", "The Sea Explorer", "The Snow Adventurer"},
	}, plan[0])

	// ties are broken by month
	var months []int
	for _, p := range plan[1:] {
		assert.Equal(t, 1, p.NumTourStarts)
		months = append(months, p.Month)
	}
	assert.Equal(t, []int{1, 4, 6, 10}, months)
}

func TestBuildMonthlyPlan_EmptyYear(t *testing.T) {
	plan := BuildMonthlyPlan([]model.Tour{{Name: "x", StartDates: datatypes.JSONSlice[time.Time]{day(2020, 1, 1)}}}, 1999)
	assert.NotNil(t, plan)
	assert.Empty(t, plan)
}

func TestTourStages(t *testing.T) {
	tour := &model.Tour{Name: "  The Park Camper!  ", RatingsAverage: 4.666}

	require.NoError(t, NormalizeSlug(context.Background(), tour))
	require.NoError(t, RoundRatings(context.Background(), tour))

	assert.Equal(t, "the-park-camper", tour.Slug)
	assert.Equal(t, 4.7, tour.RatingsAverage)
}

func TestTourService_Create(t *testing.T) {
	store := newFakeTours()
	svc := NewTourService(store, nil)

	tour, err := svc.Create(context.Background(), &dto.CreateTourRequest{
		Name: "The City Wanderer", Duration: 9, MaxGroupSize: 20, Difficulty: "easy",
		Price: 1197, Summary: "Living the life of Wanderlust in the US", ImageCover: "tour-6-cover.jpg",
		Guides: []uint{4, 5},
	})
	require.NoError(t, err)

	assert.Equal(t, uint(1), tour.ID)
	assert.Equal(t, "the-city-wanderer", tour.Slug)
	assert.Equal(t, 4.5, tour.RatingsAverage)
	assert.Len(t, tour.Guides, 2)
}

func TestTourService_Update_RejectsDiscountAbovePrice(t *testing.T) {
	store := newFakeTours(model.Tour{Model: model.Model{ID: 1}, Name: "The Wine Taster", Price: 1997})
	svc := NewTourService(store, nil)

	price, discount := 100.0, 150.0
	_, err := svc.Update(context.Background(), 1, &dto.UpdateTourRequest{Price: &price, PriceDiscount: &discount})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Contains(t, apperrors.GetErrorMessage(err), "Discount price (150) should be below regular price.")
	assert.Nil(t, store.changes)
}

func TestTourService_Update_RenamesAndReplacesGuides(t *testing.T) {
	store := newFakeTours(model.Tour{Model: model.Model{ID: 1}, Name: "The Wine Taster", Slug: "the-wine-taster"})
	svc := NewTourService(store, nil)

	name := "The Northern Lights"
	guides := []uint{7, 8}
	tour, err := svc.Update(context.Background(), 1, &dto.UpdateTourRequest{Name: &name, Guides: &guides})
	require.NoError(t, err)

	assert.Equal(t, "the-northern-lights", store.changes["slug"])
	assert.Equal(t, "The Northern Lights", tour.Name)
	assert.True(t, store.replaced)
	assert.Equal(t, []uint{7, 8}, store.guides)
}

func TestTourService_Update_SecretTourIsReturned(t *testing.T) {
	store := newFakeTours(model.Tour{Model: model.Model{ID: 3}, Name: "The Snow Adventurer"})
	svc := NewTourService(store, nil)

	secret := true
	tour, err := svc.Update(context.Background(), 3, &dto.UpdateTourRequest{SecretTour: &secret})
	require.NoError(t, err)

	assert.Equal(t, uint(3), tour.ID)
	assert.True(t, tour.SecretTour)
	assert.Equal(t, 0, store.gets, "the stored tour is returned without a filtered re-read")
}

func TestTourService_Update_GuideFailureKeepsColumns(t *testing.T) {
	store := newFakeTours(model.Tour{Model: model.Model{ID: 1}, Name: "The Wine Taster", Price: 1997})
	store.guideErr = gorm.ErrForeignKeyViolated
	svc := NewTourService(store, nil)

	price := 10.0
	guides := []uint{404}
	_, err := svc.Update(context.Background(), 1, &dto.UpdateTourRequest{Price: &price, Guides: &guides})

	assert.Equal(t, 400, apperrors.ToHTTPStatus(err))
	assert.Equal(t, 1997.0, store.tours[1].Price)
	assert.False(t, store.replaced)
}

func TestTourService_Update_NotFound(t *testing.T) {
	svc := NewTourService(newFakeTours(), nil)

	price := 10.0
	_, err := svc.Update(context.Background(), 42, &dto.UpdateTourRequest{Price: &price})
	assert.Equal(t, 404, apperrors.ToHTTPStatus(err))
}

func TestTourService_Delete_NotFound(t *testing.T) {
	svc := NewTourService(newFakeTours(), nil)

	err := svc.Delete(context.Background(), 99)
	assert.Equal(t, 404, apperrors.ToHTTPStatus(err))
	assert.Equal(t, "No tour found with that ID", apperrors.GetErrorMessage(err))
}

func TestTourService_ListIsCachedUntilWrite(t *testing.T) {
	store := newFakeTours(model.Tour{Model: model.Model{ID: 1}, Name: "The Star Gazer"})
	mem := cache.NewCache(0)
	defer mem.Close()
	svc := NewTourService(store, NewCacheService(mem, time.Minute))

	d := query.Parse(url.Values{"price[lt]": {"1000"}})

	for i := 0; i < 3; i++ {
		items, total, err := svc.List(context.Background(), d)
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, int64(1), total)
	}
	assert.Equal(t, 1, store.lists)

	require.NoError(t, svc.Delete(context.Background(), 1))

	items, _, err := svc.List(context.Background(), d)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 2, store.lists)
}

func TestTourService_Stats_RoundsAverage(t *testing.T) {
	store := newFakeTours()
	store.stats = []model.TourStats{{Difficulty: "EASY", NumTours: 4, AvgRating: 4.6333, AvgPrice: 1272}}
	svc := NewTourService(store, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 4.6, stats[0].AvgRating)
	assert.Equal(t, "EASY", stats[0].Difficulty)
}

func TestTourService_MonthlyPlan(t *testing.T) {
	store := newFakeTours()
	store.schedules = []model.Tour{
		{Name: "The Sports Lover", StartDates: datatypes.JSONSlice[time.Time]{day(2021, time.July, 19)}},
	}
	svc := NewTourService(store, nil)

	plan, err := svc.MonthlyPlan(context.Background(), 2021)
	require.NoError(t, err)
	assert.Equal(t, []model.MonthlyPlan{{Month: 7, NumTourStarts: 1, Tours: []string{"The Sports Lover"}}}, plan)
}
