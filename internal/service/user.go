package service

import (
	"context"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/dto"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/query"
	"github.com/natours/api/internal/repository"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
)

// AccountStore is the user persistence UserService needs.
type AccountStore interface {
	Store[model.User]
	Deactivate(ctx context.Context, id uint) error
}

var _ AccountStore = (*repository.UserRepository)(nil)

// UserService covers admin account management and the current user's own
// profile. Cached tours embed guide and reviewer profiles, so every account
// write retires the tour cache.
type UserService struct {
	users AccountStore
	base  *ResourceService[model.User]
	cache *CacheService
}

func NewUserService(users AccountStore, cache *CacheService) *UserService {
	return &UserService{
		users: users,
		base:  NewResourceService[model.User](users, constants.ResourceUser),
		cache: cache,
	}
}

func (s *UserService) List(ctx context.Context, d query.Descriptor) ([]model.User, int64, error) {
	return s.base.List(ctx, d)
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	return s.base.Get(ctx, id)
}

// Create always fails; accounts are made through signup.
func (s *UserService) Create(ctx context.Context, _ *dto.CreateUserRequest) (*model.User, error) {
	logger.WarnWithContext(ctx, "Admin user creation attempted").Log()
	return nil, apperrors.ErrRouteNotDefined
}

func (s *UserService) Update(ctx context.Context, id uint, in *dto.UpdateUserRequest) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateUser")

	user, err := s.base.Update(ctx, id, in.Changes())
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, constants.ResourceTour)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.base.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, constants.ResourceTour)
	return nil
}

// Me re-reads the authenticated user.
func (s *UserService) Me(ctx context.Context) (*model.User, error) {
	id, ok := ctxutil.GetUserID(ctx)
	if !ok {
		return nil, apperrors.ErrNotLoggedIn
	}
	return s.base.Get(ctx, id)
}

// UpdateMe changes the current user's name and email. Password fields are
// refused.
func (s *UserService) UpdateMe(ctx context.Context, in *dto.UpdateMeRequest) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateMe")

	id, ok := ctxutil.GetUserID(ctx)
	if !ok {
		return nil, apperrors.ErrNotLoggedIn
	}
	if in.HasPassword() {
		return nil, apperrors.ErrPasswordRoute
	}

	changes := in.Changes()
	if len(changes) == 0 {
		return s.base.Get(ctx, id)
	}

	user, err := s.base.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, constants.ResourceTour)
	return user, nil
}

// DeleteMe deactivates the current user.
func (s *UserService) DeleteMe(ctx context.Context) error {
	ctx = ctxutil.WithFunction(ctx, "service", "DeleteMe")

	id, ok := ctxutil.GetUserID(ctx)
	if !ok {
		return apperrors.ErrNotLoggedIn
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		return apperrors.FromDatabase(err, constants.ResourceUser)
	}
	s.cache.Invalidate(ctx, constants.ResourceTour)
	return nil
}
