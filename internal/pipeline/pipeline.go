// Package pipeline holds the explicit steps run around store calls: write
// stages that normalize an entity, read scopes that shape a query, and a
// timing wrapper.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/natours/api/pkg/logger"
	"github.com/natours/api/pkg/metrics"
	"gorm.io/gorm"
)

// Stage mutates or checks an entity before it is written.
type Stage[T any] func(ctx context.Context, entity *T) error

// Run applies stages in order and stops at the first error.
func Run[T any](ctx context.Context, entity *T, stages ...Stage[T]) error {
	for _, stage := range stages {
		if err := stage(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// Scope shapes a read query.
type Scope = func(*gorm.DB) *gorm.DB

// SoftDeleteFilter hides rows whose column equals hiddenValue.
func SoftDeleteFilter(column string, hiddenValue bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(fmt.Sprintf("%s <> ?", column), hiddenValue)
	}
}

// Populate preloads an association, leaving out the omitted columns.
func Populate(association string, omit ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if len(omit) == 0 {
			return db.Preload(association)
		}
		return db.Preload(association, func(tx *gorm.DB) *gorm.DB {
			return tx.Omit(omit...)
		})
	}
}

// Timed runs fn and records how long it took.
func Timed(ctx context.Context, resource, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	metrics.ObserveStore(resource, operation, elapsed)
	logger.DebugWithContext(ctx, "Query took "+elapsed.String()).
		String("resource", resource).
		String("operation", operation).
		Duration(elapsed).
		Err(err).
		Log()

	return err
}

// Slugify transliterates s to ASCII, lower-cases it and joins its words
// with hyphens.
func Slugify(s string) string {
	return slug.Make(s)
}
