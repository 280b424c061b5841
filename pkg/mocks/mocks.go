// Package mocks provides testify doubles for core.EntitySet backed by an
// in-memory queryable.
//
// Code under test that reads through an entity set can be handed a mock
// whose members already behave like the real thing over a slice of test
// data. Individual members can still be overridden with ordinary testify
// expectations.
//
// # Basic Usage
//
//	func TestUserService(t *testing.T) {
//	    users := []*User{{ID: "1", FirstName: "Alice"}}
//	    set := mocks.BuildMockEntitySet(&users)
//
//	    service := NewUserService(set)
//	    count, err := service.CountAdults(ctx)
//	    ...
//	}
//
// # Overriding a Member
//
// Defaults are registered as optional expectations. To replace one, drop the
// default first:
//
//	set.UnsetDefault("Add")
//	set.On("Add", mock.Anything).Return(errors.New("User already exist"))
//
// # Asserting Calls
//
// Delegated calls are recorded like any other:
//
//	set.AssertCalled(t, "ToListAsync", mock.Anything)
//
// # Pattern Operators
//
// Pass queryable options through to enable provider operators:
//
//	set := mocks.BuildMockEntitySet(&users, queryable.WithPatternMatch())
package mocks

// Helper type aliases for convenience
type (
	// EntitySet is an alias for MockEntitySet to allow shorter declarations
	EntitySet[T any] = MockEntitySet[T]
)
