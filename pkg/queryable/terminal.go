package queryable

import (
	"context"
	"slices"

	"github.com/pay-theory/mockqueryable/pkg/async"
	"github.com/pay-theory/mockqueryable/pkg/expr"
)

func (q *Queryable[T]) terminal(method string, args ...expr.Expr) expr.Expr {
	return expr.StaticCall(method, append([]expr.Expr{q.expression}, args...)...)
}

// filtered builds method over q with optional predicates. The last predicate
// is passed to method, earlier ones become Where calls.
func (q *Queryable[T]) filtered(method string, preds []expr.Expr) expr.Expr {
	preds = slices.DeleteFunc(slices.Clone(preds), func(e expr.Expr) bool { return e == nil })
	if len(preds) == 0 {
		return q.terminal(method)
	}
	src := q
	for _, p := range preds[:len(preds)-1] {
		src = src.Where(p)
	}
	return src.terminal(method, expr.Quote(preds[len(preds)-1]))
}

// ToList materializes the query
func (q *Queryable[T]) ToList() ([]T, error) {
	return Execute[[]T](q.provider, q.terminal("ToList"))
}

// Count counts elements matching the optional predicates
func (q *Queryable[T]) Count(preds ...expr.Expr) (int, error) {
	return Execute[int](q.provider, q.filtered("Count", preds))
}

// LongCount counts elements as int64
func (q *Queryable[T]) LongCount(preds ...expr.Expr) (int64, error) {
	return Execute[int64](q.provider, q.filtered("LongCount", preds))
}

// Any reports whether any element matches the optional predicates
func (q *Queryable[T]) Any(preds ...expr.Expr) (bool, error) {
	return Execute[bool](q.provider, q.filtered("Any", preds))
}

// All reports whether every element matches pred
func (q *Queryable[T]) All(pred expr.Expr) (bool, error) {
	return Execute[bool](q.provider, q.terminal("All", expr.Quote(pred)))
}

// First returns the first matching element or ErrNoElements
func (q *Queryable[T]) First(preds ...expr.Expr) (T, error) {
	return Execute[T](q.provider, q.filtered("First", preds))
}

// FirstOrDefault returns the first matching element or the zero value
func (q *Queryable[T]) FirstOrDefault(preds ...expr.Expr) (T, error) {
	return Execute[T](q.provider, q.filtered("FirstOrDefault", preds))
}

// Last returns the last matching element or ErrNoElements
func (q *Queryable[T]) Last(preds ...expr.Expr) (T, error) {
	return Execute[T](q.provider, q.filtered("Last", preds))
}

// LastOrDefault returns the last matching element or the zero value
func (q *Queryable[T]) LastOrDefault(preds ...expr.Expr) (T, error) {
	return Execute[T](q.provider, q.filtered("LastOrDefault", preds))
}

// Single returns the only matching element. It fails when there is none or more than one.
func (q *Queryable[T]) Single(preds ...expr.Expr) (T, error) {
	return Execute[T](q.provider, q.filtered("Single", preds))
}

// SingleOrDefault returns the only matching element or the zero value when there is none
func (q *Queryable[T]) SingleOrDefault(preds ...expr.Expr) (T, error) {
	return Execute[T](q.provider, q.filtered("SingleOrDefault", preds))
}

// ElementAt returns the element at index
func (q *Queryable[T]) ElementAt(index int) (T, error) {
	return Execute[T](q.provider, q.terminal("ElementAt", expr.Const(index)))
}

// ElementAtOrDefault returns the element at index or the zero value
func (q *Queryable[T]) ElementAtOrDefault(index int) (T, error) {
	return Execute[T](q.provider, q.terminal("ElementAtOrDefault", expr.Const(index)))
}

// Contains reports whether item is an element of the query
func (q *Queryable[T]) Contains(item T) (bool, error) {
	return Execute[bool](q.provider, q.terminal("Contains", expr.Const(item)))
}

// Min returns the smallest element
func (q *Queryable[T]) Min() (T, error) {
	return Execute[T](q.provider, q.terminal("Min"))
}

// Max returns the largest element
func (q *Queryable[T]) Max() (T, error) {
	return Execute[T](q.provider, q.terminal("Max"))
}

// Sum adds the values selected from each element
func (q *Queryable[T]) Sum(selector expr.Expr) (float64, error) {
	return Execute[float64](q.provider, q.terminal("Sum", expr.Quote(selector)))
}

// Average averages the values selected from each element
func (q *Queryable[T]) Average(selector expr.Expr) (float64, error) {
	return Execute[float64](q.provider, q.terminal("Average", expr.Quote(selector)))
}

// MinOf returns the smallest value selected from the elements of q
func MinOf[T, R any](q *Queryable[T], selector expr.Expr) (R, error) {
	return Execute[R](q.provider, q.terminal("Min", expr.Quote(selector)))
}

// MaxOf returns the largest value selected from the elements of q
func MaxOf[T, R any](q *Queryable[T], selector expr.Expr) (R, error) {
	return Execute[R](q.provider, q.terminal("Max", expr.Quote(selector)))
}

// SumOf adds the values selected from the elements of q as R
func SumOf[T, R any](q *Queryable[T], selector expr.Expr) (R, error) {
	return Execute[R](q.provider, q.terminal("Sum", expr.Quote(selector)))
}

// ToListAsync materializes the query behind a completed future
func (q *Queryable[T]) ToListAsync(ctx context.Context) *async.Future[[]T] {
	return ExecuteAsync[[]T](ctx, q.provider, q.terminal("ToList"))
}

// ToArrayAsync is ToListAsync
func (q *Queryable[T]) ToArrayAsync(ctx context.Context) *async.Future[[]T] {
	return q.ToListAsync(ctx)
}

// CountAsync counts elements behind a completed future
func (q *Queryable[T]) CountAsync(ctx context.Context, preds ...expr.Expr) *async.Future[int] {
	return ExecuteAsync[int](ctx, q.provider, q.filtered("Count", preds))
}

// LongCountAsync counts elements as int64 behind a completed future
func (q *Queryable[T]) LongCountAsync(ctx context.Context, preds ...expr.Expr) *async.Future[int64] {
	return ExecuteAsync[int64](ctx, q.provider, q.filtered("LongCount", preds))
}

// AnyAsync is the async form of Any
func (q *Queryable[T]) AnyAsync(ctx context.Context, preds ...expr.Expr) *async.Future[bool] {
	return ExecuteAsync[bool](ctx, q.provider, q.filtered("Any", preds))
}

// AllAsync is the async form of All
func (q *Queryable[T]) AllAsync(ctx context.Context, pred expr.Expr) *async.Future[bool] {
	return ExecuteAsync[bool](ctx, q.provider, q.terminal("All", expr.Quote(pred)))
}

// FirstAsync is the async form of First
func (q *Queryable[T]) FirstAsync(ctx context.Context, preds ...expr.Expr) *async.Future[T] {
	return ExecuteAsync[T](ctx, q.provider, q.filtered("First", preds))
}

// FirstOrDefaultAsync is the async form of FirstOrDefault
func (q *Queryable[T]) FirstOrDefaultAsync(ctx context.Context, preds ...expr.Expr) *async.Future[T] {
	return ExecuteAsync[T](ctx, q.provider, q.filtered("FirstOrDefault", preds))
}

// LastOrDefaultAsync is the async form of LastOrDefault
func (q *Queryable[T]) LastOrDefaultAsync(ctx context.Context, preds ...expr.Expr) *async.Future[T] {
	return ExecuteAsync[T](ctx, q.provider, q.filtered("LastOrDefault", preds))
}

// SingleAsync is the async form of Single
func (q *Queryable[T]) SingleAsync(ctx context.Context, preds ...expr.Expr) *async.Future[T] {
	return ExecuteAsync[T](ctx, q.provider, q.filtered("Single", preds))
}

// SingleOrDefaultAsync is the async form of SingleOrDefault
func (q *Queryable[T]) SingleOrDefaultAsync(ctx context.Context, preds ...expr.Expr) *async.Future[T] {
	return ExecuteAsync[T](ctx, q.provider, q.filtered("SingleOrDefault", preds))
}

// ContainsAsync is the async form of Contains
func (q *Queryable[T]) ContainsAsync(ctx context.Context, item T) *async.Future[bool] {
	return ExecuteAsync[bool](ctx, q.provider, q.terminal("Contains", expr.Const(item)))
}

// SumAsync is the async form of Sum
func (q *Queryable[T]) SumAsync(ctx context.Context, selector expr.Expr) *async.Future[float64] {
	return ExecuteAsync[float64](ctx, q.provider, q.terminal("Sum", expr.Quote(selector)))
}

// AverageAsync is the async form of Average
func (q *Queryable[T]) AverageAsync(ctx context.Context, selector expr.Expr) *async.Future[float64] {
	return ExecuteAsync[float64](ctx, q.provider, q.terminal("Average", expr.Quote(selector)))
}

// ForEachAsync calls fn for every element, stopping at the first error
func (q *Queryable[T]) ForEachAsync(ctx context.Context, fn func(T) error) *async.Future[struct{}] {
	for item, err := range q.Enumerate() {
		if err == nil {
			err = fn(item)
		}
		if err != nil {
			return async.FromError[struct{}](err)
		}
	}
	return async.FromResult(struct{}{})
}
