package mocks

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/pay-theory/mockqueryable/pkg/async"
	"github.com/pay-theory/mockqueryable/pkg/core"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/model"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

// Set is a working core.EntitySet over a queryable. Mock entity sets
// delegate their default behavior to it.
type Set[T any] struct {
	q        *queryable.Queryable[T]
	registry *model.Registry
}

var _ core.EntitySet[any] = (*Set[any])(nil)

// NewSet wraps q. Find resolves primary keys through registry, or the
// default registry when none is given.
func NewSet[T any](q *queryable.Queryable[T], registry ...*model.Registry) *Set[T] {
	r := model.Default()
	if len(registry) > 0 && registry[0] != nil {
		r = registry[0]
	}
	return &Set[T]{q: q, registry: r}
}

func (s *Set[T]) Enumerate() iter.Seq2[T, error] { return s.q.Enumerate() }

func (s *Set[T]) Provider() queryable.Provider { return s.q.Provider() }

func (s *Set[T]) Expression() expr.Expr { return s.q.Expression() }

func (s *Set[T]) ElementType() reflect.Type { return s.q.ElementType() }

func (s *Set[T]) AsQueryable() *queryable.Queryable[T] { return s.q }

func (s *Set[T]) GetAsyncEnumerator(ctx context.Context) (*async.Enumerator[T], error) {
	return s.q.GetAsyncEnumerator(ctx)
}

func (s *Set[T]) AsAsyncEnumerable() async.Enumerable[T] { return s }

func (s *Set[T]) ToList() ([]T, error) { return s.q.ToList() }

func (s *Set[T]) ToListAsync(ctx context.Context) *async.Future[[]T] { return s.q.ToListAsync(ctx) }

// Find scans the set for the entity whose primary key values equal keys
func (s *Set[T]) Find(keys ...any) (T, error) {
	var zero T
	meta, err := s.registry.Lookup(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	for item, err := range s.q.Enumerate() {
		if err != nil {
			return zero, err
		}
		values, err := meta.KeyValues(item)
		if err != nil {
			return zero, err
		}
		if keysEqual(values, keys) {
			return item, nil
		}
	}
	return zero, nil
}

func (s *Set[T]) FindAsync(_ context.Context, keys ...any) *async.Future[T] {
	return async.Completed(s.Find(keys...))
}

// Add hands entity to the backing source when it accepts additions
func (s *Set[T]) Add(entity T) error {
	src, ok := queryable.SourceOf(s.q)
	if !ok {
		return fmt.Errorf("%w: query has no backing source", qerrors.ErrAddNotSupported)
	}
	adder, ok := src.(queryable.Adder[T])
	if !ok {
		return fmt.Errorf("%w: %T", qerrors.ErrAddNotSupported, src)
	}
	return adder.Add(entity)
}

func (s *Set[T]) AddAsync(_ context.Context, entity T) *async.Future[T] {
	return async.Completed(entity, s.Add(entity))
}

// Remove takes entity out of the backing source when it supports removal
func (s *Set[T]) Remove(entity T) error {
	src, ok := queryable.SourceOf(s.q)
	if ok {
		if remover, ok := src.(queryable.Remover[T]); ok {
			return remover.Remove(entity)
		}
	}
	return fmt.Errorf("%w: %T", qerrors.ErrRemovalNotConfigured, src)
}

func keysEqual(have, want []any) bool {
	if len(want) == 0 || len(want) > len(have) {
		return false
	}
	for i := range want {
		if !expr.Equal(have[i], want[i]) {
			return false
		}
	}
	return true
}
