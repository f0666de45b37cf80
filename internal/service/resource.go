package service

import (
	"context"

	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/pipeline"
	"github.com/natours/api/internal/query"
	"github.com/natours/api/internal/repository"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
)

// Store is the persistence a ResourceService needs; repository.Store
// satisfies it.
type Store[T any] interface {
	List(ctx context.Context, d query.Descriptor, scopes ...pipeline.Scope) ([]T, int64, error)
	Get(ctx context.Context, id uint, scopes ...pipeline.Scope) (*T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, id uint, changes map[string]interface{}, scopes ...pipeline.Scope) (*T, error)
	Delete(ctx context.Context, id uint, scopes ...pipeline.Scope) error
}

var _ Store[struct{}] = (*repository.Store[struct{}])(nil)

// ResourceService runs the generic CRUD operations against a store and maps
// storage failures onto the error taxonomy.
type ResourceService[T any] struct {
	store    Store[T]
	resource string
}

func NewResourceService[T any](store Store[T], resource string) *ResourceService[T] {
	return &ResourceService[T]{store: store, resource: resource}
}

func (s *ResourceService[T]) List(ctx context.Context, d query.Descriptor, scopes ...pipeline.Scope) ([]T, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "List")

	items, total, err := s.store.List(ctx, d, scopes...)
	if err != nil {
		return nil, 0, apperrors.FromDatabase(err, s.resource)
	}

	logger.DebugWithContext(ctx, "Records listed").
		String("resource", s.resource).
		Int("returned_count", len(items)).
		Int64("total", total).
		Log()
	return items, total, nil
}

func (s *ResourceService[T]) Get(ctx context.Context, id uint, scopes ...pipeline.Scope) (*T, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Get")

	entity, err := s.store.Get(ctx, id, scopes...)
	if err != nil {
		return nil, apperrors.FromDatabase(err, s.resource)
	}
	return entity, nil
}

// Create runs the write stages, then inserts.
func (s *ResourceService[T]) Create(ctx context.Context, entity *T, stages ...pipeline.Stage[T]) (*T, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Create")

	if err := pipeline.Run(ctx, entity, stages...); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, entity); err != nil {
		return nil, apperrors.FromDatabase(err, s.resource)
	}

	logger.InfoWithContext(ctx, "Record created").
		String("resource", s.resource).
		Log()
	return entity, nil
}

func (s *ResourceService[T]) Update(ctx context.Context, id uint, changes map[string]interface{}, scopes ...pipeline.Scope) (*T, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Update")

	entity, err := s.store.Update(ctx, id, changes, scopes...)
	if err != nil {
		return nil, apperrors.FromDatabase(err, s.resource)
	}

	logger.InfoWithContext(ctx, "Record updated").
		String("resource", s.resource).
		Uint("id", id).
		Int("changed_fields", len(changes)).
		Log()
	return entity, nil
}

// Delete fails with NotFound when nothing was removed.
func (s *ResourceService[T]) Delete(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "service", "Delete")

	if err := s.store.Delete(ctx, id); err != nil {
		return apperrors.FromDatabase(err, s.resource)
	}
	return nil
}
