package keyset

import (
	"context"

	"gorm.io/gorm"
)

// GORMStore runs pager queries against the table of model T. Any gorm
// dialector works; the conditions are rendered with "?" placeholders.
type GORMStore[T any] struct {
	db *gorm.DB
}

func NewGORMStore[T any](db *gorm.DB) *GORMStore[T] {
	return &GORMStore[T]{db: db}
}

// Find - implements Store.
func (s *GORMStore[T]) Find(ctx context.Context, q Query) ([]T, error) {
	var records []T
	if err := s.apply(ctx, q).Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// Exists - implements Store.
func (s *GORMStore[T]) Exists(ctx context.Context, q Query) (bool, error) {
	q.Limit = 1

	var rows []map[string]any
	if err := s.apply(ctx, q).Find(&rows).Error; err != nil {
		return false, err
	}

	return len(rows) > 0, nil
}

// apply builds the gorm query for q: filter AND keyset condition, ordering,
// projection and limit.
func (s *GORMStore[T]) apply(ctx context.Context, q Query) *gorm.DB {
	db := s.db.WithContext(ctx).Model(new(T))

	if exp := q.Where.toGORMExpression(); exp != nil {
		db = db.Clauses(exp)
	}
	if !q.Relative.IsEmpty() {
		db = db.Clauses(q.Relative.toGORMExpression())
	}
	if len(q.Fields) > 0 {
		db = db.Select(q.Fields)
	}

	db = q.Orderings.Apply(db)
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	return db
}

var _ Store[struct{}] = (*GORMStore[struct{}])(nil)
