package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pay-theory/mockqueryable/pkg/async"
	"github.com/pay-theory/mockqueryable/pkg/core"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/memstore"
	"github.com/pay-theory/mockqueryable/pkg/mocks"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

type user struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
}

func testUsers() []*user {
	users := make([]*user, 5)
	for i := range users {
		users[i] = &user{ID: uuid.New(), FirstName: "FirstName" + string(rune('1'+i)), LastName: "LastName"}
	}
	return users
}

// countNamed reads through the interface the way a service would
func countNamed(ctx context.Context, set core.EntitySet[*user], name string) (int, error) {
	return set.AsQueryable().Where(expr.Lambda1("u", func(u *expr.Parameter) expr.Expr {
		return expr.Eq(expr.Field(u, "FirstName"), expr.Const(name))
	})).CountAsync(ctx).Await(ctx)
}

func TestDefaultsDelegateToQueryable(t *testing.T) {
	ctx := context.Background()
	users := testUsers()
	set := mocks.BuildMockEntitySet(&users)

	n, err := countNamed(ctx, set, "FirstName2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := set.ToListAsync(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, list)

	all, err := async.ToList(ctx, set.AsAsyncEnumerable())
	require.NoError(t, err)
	assert.Equal(t, users, all)

	assert.Equal(t, set.AsQueryable().Expression(), set.Expression())
	assert.Equal(t, "*mocks_test.user", set.ElementType().String())
	assert.NotNil(t, set.Provider())

	set.AssertCalled(t, "AsQueryable")
	set.AssertCalled(t, "ToListAsync", mock.Anything)
	set.AssertNotCalled(t, "Add", mock.Anything)
}

func TestFindByPrimaryKey(t *testing.T) {
	ctx := context.Background()
	users := testUsers()
	set := mocks.BuildMockEntitySet(&users)

	found, err := set.Find(users[3].ID)
	require.NoError(t, err)
	assert.Same(t, users[3], found)

	found, err = set.FindAsync(ctx, uuid.New()).Await(ctx)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestAddAppendsToSource(t *testing.T) {
	ctx := context.Background()
	var users []*user
	set := mocks.BuildMockEntitySet(&users)

	require.NoError(t, set.Add(&user{ID: uuid.New(), FirstName: "Ada"}))
	added, err := set.AddAsync(ctx, &user{ID: uuid.New(), FirstName: "Grace"}).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Grace", added.FirstName)

	assert.Len(t, users, 2)
	n, err := set.AsQueryable().Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, set.Remove(users[0]))
	assert.Len(t, users, 1)
}

func TestBulkDeleteRemovesFromSlice(t *testing.T) {
	users := testUsers()
	target := users[2].ID
	set := mocks.BuildMockEntitySet(&users)

	n, err := set.AsQueryable().WhereFunc(func(u *user) bool { return u.ID == target }).ExecuteDelete()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, users, 4)

	found, err := set.Find(target)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUnsetDefault(t *testing.T) {
	users := testUsers()
	set := mocks.BuildMockEntitySet(&users)

	set.UnsetDefault("Add")
	set.On("Add", mock.Anything).Return(errors.New("User already exist")).Once()

	err := set.Add(&user{ID: uuid.New()})
	assert.EqualError(t, err, "User already exist")
	assert.Len(t, users, 5)
	set.AssertExpectations(t)
}

func TestPatternOptionPassesThrough(t *testing.T) {
	ctx := context.Background()
	users := testUsers()
	set := mocks.BuildMockEntitySet(&users, queryable.WithPatternMatch())

	n, err := set.AsQueryable().Where(expr.Lambda1("u", func(u *expr.Parameter) expr.Expr {
		return expr.ILike(expr.Field(u, "FirstName"), expr.Const("%ame3%"))
	})).CountAsync(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemstoreBackedSet(t *testing.T) {
	users := testUsers()
	table, err := memstore.Seed(users)
	require.NoError(t, err)
	set := mocks.BuildMockEntitySetFrom(table.Queryable())

	require.NoError(t, set.Add(&user{ID: uuid.New(), FirstName: "Extra"}))
	assert.Equal(t, 6, table.Len())

	err = set.Add(&user{ID: users[0].ID})
	assert.ErrorIs(t, err, qerrors.ErrConditionFailed)

	n, err := set.AsQueryable().WhereFunc(func(u *user) bool { return u.FirstName == "Extra" }).ExecuteDelete()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 5, table.Len())
}

func TestSetWithoutWritableSource(t *testing.T) {
	users := testUsers()
	seq := func(yield func(*user) bool) {
		for _, u := range users {
			if !yield(u) {
				return
			}
		}
	}
	set := mocks.NewSet(queryable.FromSeq(seq))

	assert.ErrorIs(t, set.Add(&user{}), qerrors.ErrAddNotSupported)
	assert.ErrorIs(t, set.Remove(users[0]), qerrors.ErrRemovalNotConfigured)

	list, err := set.ToList()
	require.NoError(t, err)
	assert.Len(t, list, 5)
}
