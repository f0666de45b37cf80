package service

import (
	"context"
	"testing"
	"time"

	"github.com/natours/api/internal/dto"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture() (*UserService, *fakeUsers, *model.User) {
	users := newFakeUsers()
	me := users.add(model.User{Name: "Miyah Myles", Email: "miyah@example.com", Role: model.RoleUser, Active: true})
	return NewUserService(users, nil), users, me
}

func TestUserService_Create_IsNotDefined(t *testing.T) {
	svc, _, _ := newUserFixture()

	_, err := svc.Create(context.Background(), &dto.CreateUserRequest{})
	assert.ErrorIs(t, err, apperrors.ErrRouteNotDefined)
	assert.Equal(t, 500, apperrors.ToHTTPStatus(err))
}

func TestUserService_Me(t *testing.T) {
	svc, _, me := newUserFixture()

	got, err := svc.Me(withUser(me))
	require.NoError(t, err)
	assert.Equal(t, me.Email, got.Email)

	_, err = svc.Me(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotLoggedIn)
}

func TestUserService_UpdateMe(t *testing.T) {
	name := "Miyah M."
	email := " MIYAH.M@example.com "
	password := "sneaky123"

	tests := []struct {
		name    string
		in      dto.UpdateMeRequest
		wantErr error
		check   func(t *testing.T, u *model.User)
	}{
		{
			name:    "password rejected",
			in:      dto.UpdateMeRequest{Name: &name, Password: &password},
			wantErr: apperrors.ErrPasswordRoute,
		},
		{
			name:    "confirm alone rejected",
			in:      dto.UpdateMeRequest{PasswordConfirm: &password},
			wantErr: apperrors.ErrPasswordRoute,
		},
		{
			name: "name and email applied",
			in:   dto.UpdateMeRequest{Name: &name, Email: &email},
			check: func(t *testing.T, u *model.User) {
				assert.Equal(t, "Miyah M.", u.Name)
				assert.Equal(t, "miyah.m@example.com", u.Email)
				assert.Equal(t, model.RoleUser, u.Role)
			},
		},
		{
			name: "empty body returns current user",
			in:   dto.UpdateMeRequest{},
			check: func(t *testing.T, u *model.User) {
				assert.Equal(t, "Miyah Myles", u.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, me := newUserFixture()

			got, err := svc.UpdateMe(withUser(me), &tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 400, apperrors.ToHTTPStatus(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestUserService_DeleteMe_Deactivates(t *testing.T) {
	svc, users, me := newUserFixture()

	require.NoError(t, svc.DeleteMe(withUser(me)))

	assert.False(t, users.raw(me.ID).Active)
	_, err := svc.Get(context.Background(), me.ID)
	assert.Equal(t, 404, apperrors.ToHTTPStatus(err))
}

func TestUserService_AdminUpdate(t *testing.T) {
	svc, _, me := newUserFixture()

	role := "guide"
	got, err := svc.Update(context.Background(), me.ID, &dto.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, model.RoleGuide, got.Role)

	_, err = svc.Update(context.Background(), 999, &dto.UpdateUserRequest{Role: &role})
	assert.Equal(t, 404, apperrors.ToHTTPStatus(err))
}

func TestUserService_WritesRetireCachedTours(t *testing.T) {
	name := "Lead Guide Renamed"
	role := "lead-guide"

	tests := []struct {
		name  string
		write func(ctx context.Context, svc *UserService, me *model.User) error
	}{
		{"update me", func(ctx context.Context, svc *UserService, _ *model.User) error {
			_, err := svc.UpdateMe(ctx, &dto.UpdateMeRequest{Name: &name})
			return err
		}},
		{"delete me", func(ctx context.Context, svc *UserService, _ *model.User) error {
			return svc.DeleteMe(ctx)
		}},
		{"admin update", func(ctx context.Context, svc *UserService, me *model.User) error {
			_, err := svc.Update(ctx, me.ID, &dto.UpdateUserRequest{Role: &role})
			return err
		}},
		{"admin delete", func(ctx context.Context, svc *UserService, me *model.User) error {
			return svc.Delete(ctx, me.ID)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := cache.NewCache(0)
			defer mem.Close()
			caches := NewCacheService(mem, time.Minute)

			users := newFakeUsers()
			me := users.add(model.User{Name: "Steve T.", Email: "steve@example.com", Role: model.RoleGuide, Active: true})
			svc := NewUserService(users, caches)
			tours := newFakeTours(model.Tour{Model: model.Model{ID: 1}, Name: "The Forest Hiker"})
			tourSvc := NewTourService(tours, caches)
			ctx := withUser(me)

			_, err := tourSvc.Get(ctx, 1)
			require.NoError(t, err)
			_, err = tourSvc.Get(ctx, 1)
			require.NoError(t, err)
			require.Equal(t, 1, tours.gets)

			require.NoError(t, tt.write(ctx, svc, me))

			_, err = tourSvc.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 2, tours.gets)
		})
	}
}
