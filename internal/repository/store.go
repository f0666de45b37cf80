package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/natours/api/internal/constants"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/pipeline"
	"github.com/natours/api/internal/query"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const versionColumn = "version"

// Kind is the value type of a column. Filter values are parsed into it
// before they reach the driver.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	// KindJSON columns can be projected but never filtered or sorted.
	KindJSON
)

var baseKinds = map[string]Kind{
	"id":                   KindInt,
	"createdAt":            KindTime,
	"updatedAt":            KindTime,
	constants.VersionField: KindInt,
}

// Schema describes how a resource's public field names map onto its table.
// Only names present in Columns may be filtered, sorted or projected.
type Schema struct {
	Resource string
	Columns  map[string]string
	// Kinds types the public fields. Fields not listed are strings.
	Kinds map[string]Kind
	// Required columns are always selected so that populate scopes can
	// resolve their foreign keys.
	Required []string
	// References are associations written as join rows only; the referenced
	// records are never upserted.
	References []string
	// Filters run on every read, update and delete.
	Filters []pipeline.Scope
	// Populate runs on every find, never on counts.
	Populate []pipeline.Scope
}

// Column resolves a public field name.
func (s Schema) Column(field string) (string, bool) {
	col, ok := s.Columns[field]
	return col, ok
}

// Kind returns the value type of a public field.
func (s Schema) Kind(field string) Kind {
	if k, ok := s.Kinds[field]; ok {
		return k
	}
	if k, ok := baseKinds[field]; ok {
		return k
	}
	return KindString
}

// Store is the generic persistence layer shared by every resource.
type Store[T any] struct {
	db     *gorm.DB
	schema Schema
}

func NewStore[T any](db *gorm.DB, schema Schema) *Store[T] {
	return &Store[T]{db: db, schema: schema}
}

func (s *Store[T]) Schema() Schema {
	return s.schema
}

func (s *Store[T]) DB() *gorm.DB {
	return s.db
}

func (s *Store[T]) query(ctx context.Context, scopes []pipeline.Scope) *gorm.DB {
	return s.unfiltered(ctx).
		Scopes(s.schema.Filters...).
		Scopes(scopes...)
}

// unfiltered skips the schema filters. Only writes that already passed them
// may read back through it.
func (s *Store[T]) unfiltered(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(T))
}

func (s *Store[T]) withDB(db *gorm.DB) *Store[T] {
	return &Store[T]{db: db, schema: s.schema}
}

// List returns one page of records matching d plus the total match count.
func (s *Store[T]) List(ctx context.Context, d query.Descriptor, scopes ...pipeline.Scope) ([]T, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "List")

	where, err := s.where(d.Filter())
	if err != nil {
		return nil, 0, err
	}
	order, err := s.order(d.Sort())
	if err != nil {
		return nil, 0, err
	}
	projection, err := s.projection(d.Projection())
	if err != nil {
		return nil, 0, err
	}

	var (
		items []T
		total int64
	)
	err = pipeline.Timed(ctx, s.schema.Resource, "list", func() error {
		if err := s.query(ctx, scopes).Scopes(where).Count(&total).Error; err != nil {
			return err
		}
		return s.query(ctx, scopes).
			Scopes(where, order, projection).
			Scopes(s.schema.Populate...).
			Offset(d.Skip()).
			Limit(d.Limit()).
			Find(&items).Error
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list records").
			String("resource", s.schema.Resource).
			String("descriptor", d.String()).
			Err(err).
			Log()
		return nil, 0, err
	}

	if items == nil {
		items = []T{}
	}
	return items, total, nil
}

// Get finds a record by primary key. A missing or filtered-out record is
// gorm.ErrRecordNotFound.
func (s *Store[T]) Get(ctx context.Context, id uint, scopes ...pipeline.Scope) (*T, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "Get")

	var entity T
	err := pipeline.Timed(ctx, s.schema.Resource, "get", func() error {
		return s.query(ctx, scopes).
			Scopes(byID(id)).
			Scopes(s.schema.Populate...).
			First(&entity).Error
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// First finds the first record matching scopes.
func (s *Store[T]) First(ctx context.Context, scopes ...pipeline.Scope) (*T, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "First")

	var entity T
	err := pipeline.Timed(ctx, s.schema.Resource, "first", func() error {
		return s.query(ctx, scopes).First(&entity).Error
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Create inserts entity and fills in generated columns.
func (s *Store[T]) Create(ctx context.Context, entity *T) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Create")

	omit := make([]string, 0, len(s.schema.References))
	for _, ref := range s.schema.References {
		omit = append(omit, ref+".*")
	}

	err := pipeline.Timed(ctx, s.schema.Resource, "create", func() error {
		tx := s.db.WithContext(ctx)
		if len(omit) > 0 {
			tx = tx.Omit(omit...)
		}
		return tx.Create(entity).Error
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to create record").
			String("resource", s.schema.Resource).
			Err(err).
			Log()
		return err
	}
	return nil
}

// Update applies column changes to the record with the given id and returns
// the stored result.
func (s *Store[T]) Update(ctx context.Context, id uint, changes map[string]interface{}, scopes ...pipeline.Scope) (*T, error) {
	if err := s.UpdateColumns(ctx, id, changes, scopes...); err != nil {
		return nil, err
	}
	return s.Get(ctx, id, scopes...)
}

// UpdateColumns writes changes and bumps the version without reloading. A
// missing or filtered-out record is gorm.ErrRecordNotFound.
func (s *Store[T]) UpdateColumns(ctx context.Context, id uint, changes map[string]interface{}, scopes ...pipeline.Scope) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Update")

	values := make(map[string]interface{}, len(changes)+1)
	for k, v := range changes {
		values[k] = v
	}
	values[versionColumn] = gorm.Expr(versionColumn + " + 1")

	var affected int64
	err := pipeline.Timed(ctx, s.schema.Resource, "update", func() error {
		result := s.query(ctx, scopes).
			Scopes(byID(id)).
			Updates(values)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.WarnWithContext(ctx, "No record found to update").
			String("resource", s.schema.Resource).
			Uint("id", id).
			Log()
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete permanently removes the record with the given id. Deleting an
// absent record is gorm.ErrRecordNotFound.
func (s *Store[T]) Delete(ctx context.Context, id uint, scopes ...pipeline.Scope) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Delete")

	var affected int64
	err := pipeline.Timed(ctx, s.schema.Resource, "delete", func() error {
		result := s.db.WithContext(ctx).
			Scopes(s.schema.Filters...).
			Scopes(scopes...).
			Scopes(byID(id)).
			Delete(new(T))
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.WarnWithContext(ctx, "No record found to delete").
			String("resource", s.schema.Resource).
			Uint("id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Record deleted").
		String("resource", s.schema.Resource).
		Uint("id", id).
		Log()
	return nil
}

// byID is a scope so that it lands after the resource filters.
func byID(id uint) pipeline.Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.PrimaryColumn, Value: id})
	}
}

func (s *Store[T]) column(field string) (string, error) {
	col, ok := s.schema.Column(field)
	if !ok {
		return "", apperrors.NewValidationError("Invalid field: %s.", field)
	}
	return col, nil
}

// sortableColumn resolves a field that may be filtered or sorted on.
func (s *Store[T]) sortableColumn(field string) (string, Kind, error) {
	col, err := s.column(field)
	if err != nil {
		return "", KindString, err
	}
	kind := s.schema.Kind(field)
	if kind == KindJSON {
		return "", kind, apperrors.NewValidationError("Invalid field: %s.", field)
	}
	return col, kind, nil
}

func (s *Store[T]) where(conditions []query.Condition) (pipeline.Scope, error) {
	exprs := make([]clause.Expression, 0, len(conditions))
	for _, c := range conditions {
		col, kind, err := s.sortableColumn(c.Field)
		if err != nil {
			return nil, err
		}
		column := clause.Column{Name: col}

		values := make([]interface{}, len(c.Values))
		for i, raw := range c.Values {
			if values[i], err = parseValue(c.Field, kind, raw); err != nil {
				return nil, err
			}
		}

		if len(values) > 1 {
			exprs = append(exprs, clause.IN{Column: column, Values: values})
			continue
		}

		value := values[0]
		switch c.Op {
		case query.OpGt:
			exprs = append(exprs, clause.Gt{Column: column, Value: value})
		case query.OpGte:
			exprs = append(exprs, clause.Gte{Column: column, Value: value})
		case query.OpLt:
			exprs = append(exprs, clause.Lt{Column: column, Value: value})
		case query.OpLte:
			exprs = append(exprs, clause.Lte{Column: column, Value: value})
		default:
			exprs = append(exprs, clause.Eq{Column: column, Value: value})
		}
	}

	return func(db *gorm.DB) *gorm.DB {
		if len(exprs) == 0 {
			return db
		}
		return db.Clauses(clause.Where{Exprs: exprs})
	}, nil
}

func (s *Store[T]) order(keys []query.SortKey) (pipeline.Scope, error) {
	columns := make([]clause.OrderByColumn, 0, len(keys))
	for _, k := range keys {
		col, _, err := s.sortableColumn(k.Field)
		if err != nil {
			return nil, err
		}
		columns = append(columns, clause.OrderByColumn{
			Column: clause.Column{Name: col},
			Desc:   k.Direction == query.Desc,
		})
	}

	return func(db *gorm.DB) *gorm.DB {
		for _, c := range columns {
			db = db.Order(c)
		}
		return db
	}, nil
}

func (s *Store[T]) projection(p query.Projection) (pipeline.Scope, error) {
	if len(p.Include) > 0 {
		seen := make(map[string]bool, len(p.Include)+len(s.schema.Required))
		columns := make([]string, 0, len(p.Include)+len(s.schema.Required))
		add := func(col string) {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		for _, col := range s.schema.Required {
			add(col)
		}
		for _, field := range p.Include {
			col, err := s.column(field)
			if err != nil {
				return nil, err
			}
			add(col)
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Select(columns)
		}, nil
	}

	omit := make([]string, 0, len(p.Exclude))
	for _, field := range p.Exclude {
		col, err := s.column(field)
		if err != nil {
			return nil, err
		}
		omit = append(omit, col)
	}
	return func(db *gorm.DB) *gorm.DB {
		if len(omit) == 0 {
			return db
		}
		return db.Omit(omit...)
	}, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseValue turns a query-string value into the column's type. A value that
// does not parse is a validation error naming the field.
func parseValue(field string, kind Kind, raw string) (interface{}, error) {
	var (
		value interface{}
		err   error
	)
	switch kind {
	case KindInt:
		value, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case KindFloat:
		value, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case KindBool:
		value, err = strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
	case KindTime:
		value, err = parseTime(strings.TrimSpace(raw))
	default:
		return raw, nil
	}
	if err != nil {
		return nil, apperrors.WrapError(apperrors.NewValidationError("Invalid %s: %s.", field, raw), err)
	}
	return value, nil
}

func parseTime(raw string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// BaseColumns are the public names every table shares.
func BaseColumns(extra map[string]string) map[string]string {
	columns := map[string]string{
		"id":                   "id",
		"createdAt":            "created_at",
		"updatedAt":            "updated_at",
		constants.VersionField: versionColumn,
	}
	for k, v := range extra {
		columns[k] = v
	}
	return columns
}
