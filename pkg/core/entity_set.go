package core

import (
	"context"
	"iter"
	"reflect"

	"github.com/pay-theory/mockqueryable/pkg/async"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

//go:generate go run go.uber.org/mock/mockgen -source entity_set.go -destination ../mocks/gomocks/entity_set.go -package gomocks EntitySet

// EntitySet is the queryable, asynchronously enumerable collection of one
// entity type that services read and write through
type EntitySet[T any] interface {
	// Enumerate yields every entity of the set
	Enumerate() iter.Seq2[T, error]

	// Provider executes trees built over the set
	Provider() queryable.Provider

	// Expression is the tree at the root of queries over the set
	Expression() expr.Expr

	// ElementType is T
	ElementType() reflect.Type

	// AsQueryable starts a query over the set
	AsQueryable() *queryable.Queryable[T]

	// GetAsyncEnumerator returns an async cursor over the set
	GetAsyncEnumerator(ctx context.Context) (*async.Enumerator[T], error)

	// AsAsyncEnumerable exposes the set as an async sequence
	AsAsyncEnumerable() async.Enumerable[T]

	// ToList materializes the set
	ToList() ([]T, error)

	// ToListAsync materializes the set behind a future
	ToListAsync(ctx context.Context) *async.Future[[]T]

	// Find returns the entity with the given primary key values, or the zero
	// value when there is none
	Find(keys ...any) (T, error)

	// FindAsync is the async form of Find
	FindAsync(ctx context.Context, keys ...any) *async.Future[T]

	// Add stores a new entity
	Add(entity T) error

	// AddAsync is the async form of Add
	AddAsync(ctx context.Context, entity T) *async.Future[T]

	// Remove deletes an entity
	Remove(entity T) error
}
