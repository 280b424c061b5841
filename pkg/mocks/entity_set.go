package mocks

import (
	"context"
	"iter"
	"reflect"

	"github.com/stretchr/testify/mock"

	"github.com/pay-theory/mockqueryable/pkg/async"
	"github.com/pay-theory/mockqueryable/pkg/core"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

// MockEntitySet is a testify mock of core.EntitySet. An expectation may
// return either the method's results or a function with the method's
// signature that produces them.
//
// Example usage:
//
//	set := mocks.BuildMockEntitySet(&users)
//	set.UnsetDefault("Add")
//	set.On("Add", mock.Anything).Return(errors.New("User already exist"))
type MockEntitySet[T any] struct {
	mock.Mock
}

var _ core.EntitySet[any] = (*MockEntitySet[any])(nil)

// Enumerate yields every entity of the set
func (m *MockEntitySet[T]) Enumerate() iter.Seq2[T, error] {
	ret := m.Called()
	if rf, ok := ret.Get(0).(func() iter.Seq2[T, error]); ok {
		return rf()
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(iter.Seq2[T, error])
}

// Provider returns the query provider
func (m *MockEntitySet[T]) Provider() queryable.Provider {
	ret := m.Called()
	if rf, ok := ret.Get(0).(func() queryable.Provider); ok {
		return rf()
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(queryable.Provider)
}

// Expression returns the root query tree
func (m *MockEntitySet[T]) Expression() expr.Expr {
	ret := m.Called()
	if rf, ok := ret.Get(0).(func() expr.Expr); ok {
		return rf()
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(expr.Expr)
}

// ElementType returns the entity type
func (m *MockEntitySet[T]) ElementType() reflect.Type {
	ret := m.Called()
	if rf, ok := ret.Get(0).(func() reflect.Type); ok {
		return rf()
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(reflect.Type)
}

// AsQueryable starts a query over the set
func (m *MockEntitySet[T]) AsQueryable() *queryable.Queryable[T] {
	ret := m.Called()
	if rf, ok := ret.Get(0).(func() *queryable.Queryable[T]); ok {
		return rf()
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*queryable.Queryable[T])
}

// GetAsyncEnumerator returns an async cursor over the set
func (m *MockEntitySet[T]) GetAsyncEnumerator(ctx context.Context) (*async.Enumerator[T], error) {
	ret := m.Called(ctx)
	if rf, ok := ret.Get(0).(func(context.Context) (*async.Enumerator[T], error)); ok {
		return rf(ctx)
	}
	var r0 *async.Enumerator[T]
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*async.Enumerator[T])
	}
	return r0, ret.Error(1)
}

// AsAsyncEnumerable exposes the set as an async sequence
func (m *MockEntitySet[T]) AsAsyncEnumerable() async.Enumerable[T] {
	ret := m.Called()
	if rf, ok := ret.Get(0).(func() async.Enumerable[T]); ok {
		return rf()
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(async.Enumerable[T])
}

// ToList materializes the set
func (m *MockEntitySet[T]) ToList() ([]T, error) {
	ret := m.Called()
	if rf, ok := ret.Get(0).(func() ([]T, error)); ok {
		return rf()
	}
	var r0 []T
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]T)
	}
	return r0, ret.Error(1)
}

// ToListAsync materializes the set behind a future
func (m *MockEntitySet[T]) ToListAsync(ctx context.Context) *async.Future[[]T] {
	ret := m.Called(ctx)
	if rf, ok := ret.Get(0).(func(context.Context) *async.Future[[]T]); ok {
		return rf(ctx)
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*async.Future[[]T])
}

// Find looks an entity up by primary key. Expectations match the key
// values as one []any argument.
func (m *MockEntitySet[T]) Find(keys ...any) (T, error) {
	ret := m.Called(keys)
	if rf, ok := ret.Get(0).(func(...any) (T, error)); ok {
		return rf(keys...)
	}
	var r0 T
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(T)
	}
	return r0, ret.Error(1)
}

// FindAsync is the async form of Find
func (m *MockEntitySet[T]) FindAsync(ctx context.Context, keys ...any) *async.Future[T] {
	ret := m.Called(ctx, keys)
	if rf, ok := ret.Get(0).(func(context.Context, ...any) *async.Future[T]); ok {
		return rf(ctx, keys...)
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*async.Future[T])
}

// Add stores a new entity
func (m *MockEntitySet[T]) Add(entity T) error {
	ret := m.Called(entity)
	if rf, ok := ret.Get(0).(func(T) error); ok {
		return rf(entity)
	}
	return ret.Error(0)
}

// AddAsync is the async form of Add
func (m *MockEntitySet[T]) AddAsync(ctx context.Context, entity T) *async.Future[T] {
	ret := m.Called(ctx, entity)
	if rf, ok := ret.Get(0).(func(context.Context, T) *async.Future[T]); ok {
		return rf(ctx, entity)
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*async.Future[T])
}

// Remove deletes an entity
func (m *MockEntitySet[T]) Remove(entity T) error {
	ret := m.Called(entity)
	if rf, ok := ret.Get(0).(func(T) error); ok {
		return rf(entity)
	}
	return ret.Error(0)
}

// UnsetDefault drops the default expectation registered for method so the
// test can register its own
func (m *MockEntitySet[T]) UnsetDefault(method string) {
	for _, call := range append([]*mock.Call(nil), m.ExpectedCalls...) {
		if call.Method == method {
			call.Unset()
		}
	}
}

// BuildMockEntitySet returns a mock entity set whose members delegate to a
// queryable over *items. Bulk deletes remove from *items and Add appends to it.
func BuildMockEntitySet[T any](items *[]T, opts ...queryable.Option) *MockEntitySet[T] {
	if items == nil {
		items = &[]T{}
	}
	opts = append([]queryable.Option{queryable.WithRemoveFunc(queryable.SliceRemover(items))}, opts...)
	return BuildMockEntitySetFrom(queryable.FromSlice(items, opts...))
}

// BuildMockEntitySetFrom returns a mock entity set delegating to q
func BuildMockEntitySetFrom[T any](q *queryable.Queryable[T]) *MockEntitySet[T] {
	m := &MockEntitySet[T]{}
	Delegate(m, NewSet(q))
	return m
}

// Delegate registers optional expectations on m for every member of
// core.EntitySet, each forwarding to set
func Delegate[T any](m *MockEntitySet[T], set core.EntitySet[T]) {
	m.On("Enumerate").Return(set.Enumerate).Maybe()
	m.On("Provider").Return(set.Provider).Maybe()
	m.On("Expression").Return(set.Expression).Maybe()
	m.On("ElementType").Return(set.ElementType).Maybe()
	m.On("AsQueryable").Return(set.AsQueryable).Maybe()
	m.On("GetAsyncEnumerator", mock.Anything).Return(set.GetAsyncEnumerator).Maybe()
	m.On("AsAsyncEnumerable").Return(set.AsAsyncEnumerable).Maybe()
	m.On("ToList").Return(set.ToList).Maybe()
	m.On("ToListAsync", mock.Anything).Return(set.ToListAsync).Maybe()
	m.On("Find", mock.Anything).Return(set.Find).Maybe()
	m.On("FindAsync", mock.Anything, mock.Anything).Return(set.FindAsync).Maybe()
	m.On("Add", mock.Anything).Return(set.Add).Maybe()
	m.On("AddAsync", mock.Anything, mock.Anything).Return(set.AddAsync).Maybe()
	m.On("Remove", mock.Anything).Return(set.Remove).Maybe()
}
