// Package mockqueryable builds in-memory stand-ins for the queryable entity
// sets that data-access code reads and writes through.
//
// A queryable built here executes the same expression trees a database
// provider would receive, against a slice or sequence of test data. Provider
// operators are handled by a rewriter chosen when the queryable is built,
// and bulk updates mutate the test data in place. Bulk deletes only remove
// through a callback the caller supplies.
//
//	users := []*User{{FirstName: "Ada"}, {FirstName: "Alan"}}
//	q := mockqueryable.BuildMock(&users)
//	n, err := q.CountAsync(ctx, isAda).Await(ctx)
//
// Entity-set doubles for testify and gomock live in pkg/mocks and
// pkg/mocks/gomocks; BuildMockEntitySet is the testify form.
package mockqueryable

import (
	"iter"

	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/mocks"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

// BuildMock returns a queryable over *items. Bulk deletes report the matched
// count but leave *items alone unless opts carry a removal callback, such as
// queryable.WithRemoveFunc(queryable.SliceRemover(items)).
func BuildMock[T any](items *[]T, opts ...queryable.Option) *queryable.Queryable[T] {
	if items == nil {
		items = &[]T{}
	}
	return queryable.FromSlice(items, opts...)
}

// BuildMockFromSeq returns a queryable over seq. The sequence is read on
// every execution; bulk deletes need a WithRemoveFunc option to remove
// anything.
func BuildMockFromSeq[T any](seq iter.Seq[T], opts ...queryable.Option) *queryable.Queryable[T] {
	return queryable.FromSeq(seq, opts...)
}

// BuildMockWith is BuildMock with the zero value of V as the tree rewriter
func BuildMockWith[T any, V expr.Visitor](items *[]T, opts ...queryable.Option) *queryable.Queryable[T] {
	var v V
	return BuildMock(items, append([]queryable.Option{queryable.WithRewriter(v)}, opts...)...)
}

// BuildMockEntitySet returns a testify entity-set double whose members
// delegate to a queryable over *items
func BuildMockEntitySet[T any](items *[]T, opts ...queryable.Option) *mocks.MockEntitySet[T] {
	return mocks.BuildMockEntitySet(items, opts...)
}

// BuildMockEntitySetWith is BuildMockEntitySet with the zero value of V as
// the tree rewriter
func BuildMockEntitySetWith[T any, V expr.Visitor](items *[]T, opts ...queryable.Option) *mocks.MockEntitySet[T] {
	var v V
	return mocks.BuildMockEntitySet(items, append([]queryable.Option{queryable.WithRewriter(v)}, opts...)...)
}
