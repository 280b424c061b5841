package memstore_test

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/memstore"
)

type account struct {
	ID      string `dynamorm:"pk"`
	Owner   string
	Balance int
}

type event struct {
	Stream string `dynamorm:"pk"`
	Seq    int    `dynamorm:"sk"`
	Kind   string
}

func seedAccounts(t *testing.T, n int) (*memstore.Table[*account], []*account) {
	t.Helper()
	accounts := make([]*account, n)
	for i := range accounts {
		accounts[i] = &account{ID: uuid.NewString(), Owner: "owner", Balance: i * 10}
	}
	table, err := memstore.Seed(accounts)
	require.NoError(t, err)
	return table, accounts
}

func collect[T any](table *memstore.Table[T]) []T {
	var out []T
	for item := range table.Enumerate() {
		out = append(out, item)
	}
	return out
}

func TestInsertionOrder(t *testing.T) {
	table, accounts := seedAccounts(t, 5)
	assert.Equal(t, "accounts", table.Name())
	assert.Equal(t, accounts, collect(table))
	assert.Equal(t, 5, table.Len())
}

func TestAddRejectsDuplicateKey(t *testing.T) {
	table, accounts := seedAccounts(t, 2)

	err := table.Add(&account{ID: accounts[0].ID})
	assert.ErrorIs(t, err, qerrors.ErrConditionFailed)
	assert.True(t, qerrors.IsConditionFailed(err))
	assert.Equal(t, 2, table.Len())

	err = table.Add((*account)(nil))
	assert.ErrorIs(t, err, qerrors.ErrNilReference)
}

func TestPutKeepsPosition(t *testing.T) {
	table, accounts := seedAccounts(t, 3)

	replacement := &account{ID: accounts[1].ID, Owner: "new owner"}
	require.NoError(t, table.Put(replacement))

	got := collect(table)
	require.Len(t, got, 3)
	assert.Same(t, replacement, got[1])

	extra := &account{ID: "extra"}
	require.NoError(t, table.Put(extra))
	assert.Same(t, extra, collect(table)[3])
}

func TestFindAndRemove(t *testing.T) {
	table, accounts := seedAccounts(t, 3)

	found, ok, err := table.Find(accounts[2].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, accounts[2], found)

	require.NoError(t, table.Remove(accounts[2]))
	_, ok, err = table.Find(accounts[2].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, table.Remove(accounts[2]))
	assert.Equal(t, 2, table.Len())

	_, _, err = table.Find()
	assert.ErrorIs(t, err, qerrors.ErrArgumentCount)
}

func TestCompositeKeys(t *testing.T) {
	table, err := memstore.NewTable[*event]()
	require.NoError(t, err)

	require.NoError(t, table.Add(&event{Stream: "s1", Seq: 1, Kind: "created"}))
	require.NoError(t, table.Add(&event{Stream: "s1", Seq: 2, Kind: "updated"}))
	assert.ErrorIs(t, table.Add(&event{Stream: "s1", Seq: 2}), qerrors.ErrConditionFailed)

	found, ok, err := table.Find("s1", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "updated", found.Kind)
}

func TestQueryableDeletesFromTable(t *testing.T) {
	table, accounts := seedAccounts(t, 5)
	q := table.Queryable()

	rich := expr.Lambda1("a", func(a *expr.Parameter) expr.Expr {
		return expr.Ge(expr.Field(a, "Balance"), expr.Const(30))
	})

	n, err := q.Where(rich).Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = q.Where(rich).ExecuteDelete()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, accounts[:3], collect(table))

	require.NoError(t, table.Add(&account{ID: "late", Balance: 100}))
	n, err = q.Where(rich).Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRejectsKeylessModels(t *testing.T) {
	_, err := memstore.NewTable[struct{ Name string }]()
	assert.ErrorIs(t, err, qerrors.ErrMissingPrimaryKey)
}

func TestUntypedTable(t *testing.T) {
	table, err := memstore.NewTableOf(reflect.TypeFor[account]())
	require.NoError(t, err)

	require.NoError(t, table.Add(&account{ID: "a1", Balance: 5}))
	require.NoError(t, table.Add(&account{ID: "a2", Balance: 7}))
	assert.ErrorIs(t, table.Add(&event{Stream: "s"}), qerrors.ErrInvalidModel)

	found, ok, err := table.Find("a2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, found.(*account).Balance)

	require.NoError(t, table.Clear())
	assert.Zero(t, table.Len())
}
