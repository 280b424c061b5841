// Package queryable runs query trees against in-memory sequences the way a
// remote query provider would run them against a store.
//
// A Queryable is an immutable (tree, provider) pair. Chained operators add
// nodes and return a new Queryable; terminal operators hand the tree to the
// provider, which rewrites it, compiles it and runs it against the live
// backing sequence. Async terminals run synchronously and return completed
// futures.
//
// Basic usage:
//
//	users := []*User{{ID: 1, FirstName: "Ada"}}
//	q := queryable.FromSlice(&users)
//
//	adults, err := q.Where(expr.Lambda1("u", func(u *expr.Parameter) expr.Expr {
//		return expr.Ge(expr.Field(u, "Age"), expr.Const(18))
//	})).ToList()
//
// Bulk operations:
//
//	q := queryable.FromSlice(&users, queryable.WithRemoveFunc(queryable.SliceRemover(&users)))
//	n, err := q.WhereFunc(func(u *User) bool { return u.ID == 1 }).ExecuteDelete()
package queryable

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/pay-theory/mockqueryable/pkg/async"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
)

// Queryable is a query over elements of type T
type Queryable[T any] struct {
	expression expr.Expr
	provider   *QueryProvider
}

// New wraps src as the root of a query chain. A removal callback registered
// with WithRemoveFunc for a type other than T fails bulk deletes with
// ErrInvalidCast.
func New[T any](src Source[T], opts ...Option) *Queryable[T] {
	if src == nil {
		src = NewSeq[T](nil)
	}
	return FromExpression[T](expr.Const(root[T]{source: src}), opts...)
}

// FromSlice wraps a caller-owned slice. Later appends to *items are seen by
// later terminal operations.
func FromSlice[T any](items *[]T, opts ...Option) *Queryable[T] {
	return New[T](NewSlice(items), opts...)
}

// FromSeq wraps a re-iterable sequence
func FromSeq[T any](seq iter.Seq[T], opts ...Option) *Queryable[T] {
	return New[T](NewSeq(seq), opts...)
}

// FromExpression wraps a pre-built tree that evaluates to a sequence of T
func FromExpression[T any](tree expr.Expr, opts ...Option) *Queryable[T] {
	return &Queryable[T]{expression: tree, provider: newProvider(reflect.TypeFor[T](), newSettings(opts))}
}

// Expression returns the query tree
func (q *Queryable[T]) Expression() expr.Expr { return q.expression }

// Provider returns the provider executing the query
func (q *Queryable[T]) Provider() *QueryProvider { return q.provider }

// ElementType returns T
func (q *Queryable[T]) ElementType() reflect.Type { return reflect.TypeFor[T]() }

func (q *Queryable[T]) String() string { return q.expression.String() }

func (q *Queryable[T]) chain(method string, args ...expr.Expr) *Queryable[T] {
	return CreateQuery[T](q.provider, expr.StaticCall(method, append([]expr.Expr{q.expression}, args...)...))
}

// Where filters by a one-parameter lambda, or a two-parameter lambda taking the index
func (q *Queryable[T]) Where(pred expr.Expr) *Queryable[T] {
	return q.chain("Where", expr.Quote(pred))
}

// WhereFunc filters by a Go predicate
func (q *Queryable[T]) WhereFunc(pred func(T) bool) *Queryable[T] {
	return q.Where(expr.Fn(pred))
}

// OrderBy sorts ascending by key
func (q *Queryable[T]) OrderBy(key expr.Expr) *Queryable[T] {
	return q.chain("OrderBy", expr.Quote(key))
}

// OrderByDescending sorts descending by key
func (q *Queryable[T]) OrderByDescending(key expr.Expr) *Queryable[T] {
	return q.chain("OrderByDescending", expr.Quote(key))
}

// ThenBy adds an ascending key to a preceding OrderBy
func (q *Queryable[T]) ThenBy(key expr.Expr) *Queryable[T] {
	return q.chain("ThenBy", expr.Quote(key))
}

// ThenByDescending adds a descending key to a preceding OrderBy
func (q *Queryable[T]) ThenByDescending(key expr.Expr) *Queryable[T] {
	return q.chain("ThenByDescending", expr.Quote(key))
}

// OrderByField sorts by a member of T
func (q *Queryable[T]) OrderByField(member string, descending bool) *Queryable[T] {
	key := expr.Lambda1("x", func(x *expr.Parameter) expr.Expr { return expr.Field(x, member) })
	if descending {
		return q.OrderByDescending(key)
	}
	return q.OrderBy(key)
}

// Skip bypasses the first n elements
func (q *Queryable[T]) Skip(n int) *Queryable[T] { return q.chain("Skip", expr.Const(n)) }

// Take keeps the first n elements
func (q *Queryable[T]) Take(n int) *Queryable[T] { return q.chain("Take", expr.Const(n)) }

// Distinct drops repeated elements
func (q *Queryable[T]) Distinct() *Queryable[T] { return q.chain("Distinct") }

// Reverse inverts the order of elements
func (q *Queryable[T]) Reverse() *Queryable[T] { return q.chain("Reverse") }

// AsQueryable returns q
func (q *Queryable[T]) AsQueryable() *Queryable[T] { return q }

// AsNoTracking returns q; in-memory entities are never tracked
func (q *Queryable[T]) AsNoTracking() *Queryable[T] { return q }

// Include returns q; navigation members are already loaded in memory
func (q *Queryable[T]) Include(string) *Queryable[T] { return q }

// Select projects each element through a lambda
func Select[T, R any](q *Queryable[T], proj expr.Expr) *Queryable[R] {
	return CreateQuery[R](q.provider, expr.StaticCall("Select", q.expression, expr.Quote(proj)))
}

// SelectFunc projects each element through a Go function
func SelectFunc[T, R any](q *Queryable[T], proj func(T) R) *Queryable[R] {
	return Select[T, R](q, expr.Fn(proj))
}

// Enumerate executes the query and yields its elements. The backing
// sequence is read when iteration starts.
func (q *Queryable[T]) Enumerate() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		v, err := q.provider.execute(q.expression, nil)
		if err != nil {
			yield(zero, err)
			return
		}
		seq, err := expr.AsSequence(v)
		if err != nil {
			yield(zero, err)
			return
		}
		for item, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}
			t, err := cast[T](item)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(t, nil) {
				return
			}
		}
	}
}

// Items yields the elements of q, stopping quietly at the first fault
func (q *Queryable[T]) Items() iter.Seq[T] {
	return func(yield func(T) bool) {
		for item, err := range q.Enumerate() {
			if err != nil || !yield(item) {
				return
			}
		}
	}
}

// GetEnumerator returns a synchronous cursor over q. Close releases it.
func (q *Queryable[T]) GetEnumerator() async.Iterator[T] {
	return async.Pull(q.Enumerate())
}

// GetAsyncEnumerator returns an async cursor over q. The context is not observed.
func (q *Queryable[T]) GetAsyncEnumerator(context.Context) (*async.Enumerator[T], error) {
	return async.NewEnumerator(q.GetEnumerator())
}

func cast[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var zero T
	if v == nil {
		return zero, nil
	}
	cv, err := expr.ConvertTo(v, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	t, ok := cv.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T is not %s", qerrors.ErrInvalidCast, v, reflect.TypeFor[T]())
	}
	return t, nil
}
