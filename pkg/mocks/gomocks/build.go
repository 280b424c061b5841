package gomocks

import (
	"go.uber.org/mock/gomock"

	"github.com/pay-theory/mockqueryable/pkg/core"
	"github.com/pay-theory/mockqueryable/pkg/mocks"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

var _ core.EntitySet[any] = (*MockEntitySet[any])(nil)

// BuildMockEntitySet returns a gomock entity set whose members all forward
// to q. Every expectation allows any number of calls.
func BuildMockEntitySet[T any](ctrl *gomock.Controller, q *queryable.Queryable[T]) *MockEntitySet[T] {
	m := NewMockEntitySet[T](ctrl)
	Delegate(m, mocks.NewSet(q))
	return m
}

// BuildMockEntitySetFromSlice forwards to a queryable over *items whose bulk
// deletes remove from *items
func BuildMockEntitySetFromSlice[T any](ctrl *gomock.Controller, items *[]T, opts ...queryable.Option) *MockEntitySet[T] {
	if items == nil {
		items = &[]T{}
	}
	opts = append([]queryable.Option{queryable.WithRemoveFunc(queryable.SliceRemover(items))}, opts...)
	return BuildMockEntitySet(ctrl, queryable.FromSlice(items, opts...))
}

// Delegate records forwarding expectations on m for every member of
// core.EntitySet
func Delegate[T any](m *MockEntitySet[T], set core.EntitySet[T]) {
	e := m.EXPECT()
	e.Enumerate().DoAndReturn(set.Enumerate).AnyTimes()
	e.Provider().DoAndReturn(set.Provider).AnyTimes()
	e.Expression().DoAndReturn(set.Expression).AnyTimes()
	e.ElementType().DoAndReturn(set.ElementType).AnyTimes()
	e.AsQueryable().DoAndReturn(set.AsQueryable).AnyTimes()
	e.GetAsyncEnumerator(gomock.Any()).DoAndReturn(set.GetAsyncEnumerator).AnyTimes()
	e.AsAsyncEnumerable().DoAndReturn(set.AsAsyncEnumerable).AnyTimes()
	e.ToList().DoAndReturn(set.ToList).AnyTimes()
	e.ToListAsync(gomock.Any()).DoAndReturn(set.ToListAsync).AnyTimes()
	e.Find(gomock.Any()).DoAndReturn(set.Find).AnyTimes()
	e.FindAsync(gomock.Any(), gomock.Any()).DoAndReturn(set.FindAsync).AnyTimes()
	e.Add(gomock.Any()).DoAndReturn(set.Add).AnyTimes()
	e.AddAsync(gomock.Any(), gomock.Any()).DoAndReturn(set.AddAsync).AnyTimes()
	e.Remove(gomock.Any()).DoAndReturn(set.Remove).AnyTimes()
}
