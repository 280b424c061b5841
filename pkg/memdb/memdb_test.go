package memdb_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay-theory/mockqueryable/pkg/core"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/memdb"
)

type order struct {
	ID        string `dynamorm:"pk"`
	Customer  string
	Status    string
	Total     float64
	Items     int
	Tags      []string
	Note      string
	Version   int64     `dynamorm:"version"`
	CreatedAt time.Time `dynamorm:"created_at"`
	UpdatedAt time.Time `dynamorm:"updated_at"`
}

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T) *memdb.DB {
	t.Helper()
	db := memdb.New(memdb.WithClock(func() time.Time { return now }))
	orders := []*order{
		{ID: "o1", Customer: "alice", Status: "open", Total: 10, Items: 1, Tags: []string{"a"}},
		{ID: "o2", Customer: "alice", Status: "shipped", Total: 25, Items: 2, Tags: []string{"a", "b"}},
		{ID: "o3", Customer: "bob", Status: "open", Total: 40, Items: 3, Note: "gift"},
		{ID: "o4", Customer: "carol", Status: "cancelled", Total: 55, Items: 4, Tags: []string{"b"}},
		{ID: "o5", Customer: "bob", Status: "open", Total: 70, Items: 5, Tags: []string{"c"}},
	}
	for _, o := range orders {
		require.NoError(t, db.Model(o).Create())
	}
	return db
}

func ids(orders []order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func find(t *testing.T, db *memdb.DB, id string) order {
	t.Helper()
	var o order
	require.NoError(t, db.Model(&order{}).Where("ID", "=", id).First(&o))
	return o
}

func TestCreateAndFirst(t *testing.T) {
	db := seed(t)

	o := &order{ID: "o6", Customer: "dave"}
	require.NoError(t, db.Model(o).Create())
	assert.Equal(t, int64(1), o.Version)
	assert.Equal(t, now, o.CreatedAt)
	assert.Equal(t, now, o.UpdatedAt)

	err := db.Model(&order{ID: "o6"}).Create()
	assert.ErrorIs(t, err, qerrors.ErrConditionFailed)

	got := find(t, db, "o6")
	assert.Equal(t, "dave", got.Customer)

	got.Customer = "changed"
	assert.Equal(t, "dave", find(t, db, "o6").Customer)

	var missing order
	err = db.Model(&order{}).Where("ID", "=", "nope").First(&missing)
	assert.True(t, qerrors.IsNotFound(err))
}

func TestConditionOperators(t *testing.T) {
	db := seed(t)

	tests := []struct {
		name  string
		field string
		op    string
		value any
		want  int64
	}{
		{"equal", "Status", "=", "open", 3},
		{"not equal", "Status", "!=", "open", 2},
		{"not equal alt", "Status", "<>", "open", 2},
		{"less", "Total", "<", 40, 2},
		{"less or equal", "Total", "<=", 40, 3},
		{"greater", "Total", ">", 40, 2},
		{"greater or equal", "Total", ">=", 40, 3},
		{"between", "Total", "BETWEEN", []any{20, 60}, 3},
		{"in", "Customer", "IN", []string{"alice", "carol"}, 3},
		{"begins with", "Status", "BEGINS_WITH", "ca", 1},
		{"contains substring", "Status", "CONTAINS", "pen", 3},
		{"contains element", "Tags", "CONTAINS", "b", 2},
		{"exists", "Note", "EXISTS", nil, 1},
		{"not exists", "Note", "NOT_EXISTS", nil, 4},
		{"lowercase operator", "Status", "begins_with", "sh", 1},
		{"alias", "Total", "GT", 40, 2},
		{"attribute exists alias", "Note", "ATTRIBUTE_EXISTS", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := db.Model(&order{}).Where(tt.field, tt.op, tt.value).Count()
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestInvalidConditions(t *testing.T) {
	db := seed(t)

	_, err := db.Model(&order{}).Where("Status", "LIKE", "o%").Count()
	assert.ErrorIs(t, err, qerrors.ErrInvalidOperator)

	_, err = db.Model(&order{}).Filter("Missing", "=", 1).Count()
	assert.ErrorIs(t, err, qerrors.ErrMemberNotFound)

	_, err = db.Model(&order{}).Where("Total", "BETWEEN", 10).Count()
	assert.ErrorIs(t, err, qerrors.ErrInvalidOperator)

	_, err = db.Model(&order{}).Where("Status; drop", "=", "x").Count()
	assert.ErrorIs(t, err, qerrors.ErrMemberNotFound)

	_, err = db.Model(&order{}).Index("ix").Count()
	assert.ErrorIs(t, err, qerrors.ErrInvalidOperator)
}

func TestFilterComposition(t *testing.T) {
	db := seed(t)

	n, err := db.Model(&order{}).Filter("Status", "=", "open").OrFilter("Customer", "=", "carol").Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	var bobs []order
	err = db.Model(&order{}).
		Where("Customer", "=", "bob").
		FilterGroup(func(q core.Query) {
			q.Filter("Total", ">", 50).OrFilter("Items", "=", 3)
		}).
		All(&bobs)
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o5"}, ids(bobs))

	var either []order
	err = db.Model(&order{}).
		Filter("Status", "=", "cancelled").
		OrFilterGroup(func(q core.Query) {
			q.Filter("Customer", "=", "alice").Filter("Total", ">", 20)
		}).
		All(&either)
	require.NoError(t, err)
	assert.Equal(t, []string{"o2", "o4"}, ids(either))
}

func TestOrderLimitOffset(t *testing.T) {
	db := seed(t)

	var top []order
	require.NoError(t, db.Model(&order{}).OrderBy("Total", "desc").Limit(2).All(&top))
	assert.Equal(t, []string{"o5", "o4"}, ids(top))

	var page []*order
	require.NoError(t, db.Model(&order{}).OrderBy("Total", "DESC").Offset(1).Limit(2).All(&page))
	require.Len(t, page, 2)
	assert.Equal(t, "o4", page[0].ID)
	assert.Equal(t, "o3", page[1].ID)

	var projected []order
	require.NoError(t, db.Model(&order{}).Where("ID", "=", "o1").Select("ID", "Total").All(&projected))
	require.Len(t, projected, 1)
	assert.Equal(t, 10.0, projected[0].Total)
	assert.Empty(t, projected[0].Customer)
}

func TestAllPaginated(t *testing.T) {
	db := seed(t)

	var first []order
	res, err := db.Model(&order{}).OrderBy("Total", "asc").Limit(2).AllPaginated(&first)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1", "o2"}, ids(first))
	assert.True(t, res.HasMore)
	assert.Equal(t, 2, res.Count)
	require.Len(t, res.LastEvaluatedKey, 1)
	require.NotEmpty(t, res.NextCursor)

	var second []order
	res, err = db.Model(&order{}).OrderBy("Total", "asc").Limit(2).Cursor(res.NextCursor).AllPaginated(&second)
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o4"}, ids(second))
	assert.True(t, res.HasMore)

	var third []order
	res, err = db.Model(&order{}).OrderBy("Total", "asc").Limit(2).Cursor(res.NextCursor).AllPaginated(&third)
	require.NoError(t, err)
	assert.Equal(t, []string{"o5"}, ids(third))
	assert.False(t, res.HasMore)
	assert.Empty(t, res.NextCursor)
	assert.Nil(t, res.LastEvaluatedKey)

	var bad []order
	_, err = db.Model(&order{}).Cursor("%%%").AllPaginated(&bad)
	assert.ErrorIs(t, err, qerrors.ErrInvalidCursor)

	q := db.Model(&order{})
	assert.ErrorIs(t, q.SetCursor("not-base64!"), qerrors.ErrInvalidCursor)
}

func TestUpdateBuilder(t *testing.T) {
	later := now.Add(time.Hour)
	db := memdb.New(memdb.WithClock(func() time.Time { return later }))
	require.NoError(t, db.Model(&order{ID: "o1", Status: "open", Total: 10, Items: 1, Tags: []string{"a"}}).Create())

	err := db.Model(&order{ID: "o1"}).UpdateBuilder().
		Set("Status", "shipped").
		Increment("Items").
		Add("Total", 5.5).
		Remove("Tags").
		SetIfNotExists("Note", nil, "default").
		Execute()
	require.NoError(t, err)

	got := find(t, db, "o1")
	assert.Equal(t, "shipped", got.Status)
	assert.Equal(t, 2, got.Items)
	assert.InDelta(t, 15.5, got.Total, 1e-9)
	assert.Nil(t, got.Tags)
	assert.Equal(t, "default", got.Note)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, later, got.UpdatedAt)

	err = db.Model(&order{ID: "o1"}).UpdateBuilder().SetIfNotExists("Note", nil, "other").Execute()
	require.NoError(t, err)
	assert.Equal(t, "default", find(t, db, "o1").Note)

	err = db.Model(&order{ID: "o1"}).UpdateBuilder().Set("Status", "x").Condition("Status", "=", "open").Execute()
	assert.ErrorIs(t, err, qerrors.ErrConditionFailed)
	assert.Equal(t, "shipped", find(t, db, "o1").Status)

	err = db.Model(&order{ID: "missing"}).UpdateBuilder().Set("Status", "x").Execute()
	assert.ErrorIs(t, err, qerrors.ErrItemNotFound)

	err = db.Model(&order{ID: "o1"}).UpdateBuilder().Decrement("Items").ConditionVersion(1).Execute()
	assert.ErrorIs(t, err, qerrors.ErrConditionFailed)

	var result order
	err = db.Model(&order{ID: "o1"}).UpdateBuilder().Decrement("Items").ConditionVersion(3).ExecuteWithResult(&result)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Items)
	assert.Equal(t, int64(4), result.Version)

	err = db.Model(&order{ID: "o1"}).UpdateBuilder().Set("Note", "x").ConditionNotExists("Note").Execute()
	assert.ErrorIs(t, err, qerrors.ErrConditionFailed)
	require.NoError(t, db.Model(&order{ID: "o1"}).UpdateBuilder().Set("Note", "x").ConditionExists("Note").Execute())
}

func TestUpdateWritesModel(t *testing.T) {
	db := seed(t)

	o := find(t, db, "o3")
	stale := o
	o.Status = "closed"
	o.Customer = "ignored"
	require.NoError(t, db.Model(&o).Update("Status"))
	assert.Equal(t, int64(2), o.Version)

	got := find(t, db, "o3")
	assert.Equal(t, "closed", got.Status)
	assert.Equal(t, "bob", got.Customer)

	stale.Note = "late"
	err := db.Model(&stale).Update()
	assert.ErrorIs(t, err, qerrors.ErrConditionFailed)
	assert.Equal(t, "gift", find(t, db, "o3").Note)
}

func TestDelete(t *testing.T) {
	db := seed(t)

	require.NoError(t, db.Model(&order{ID: "o2"}).Delete())
	n, err := db.Model(&order{}).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	require.NoError(t, db.Model(&order{}).Where("Customer", "=", "bob").Delete())
	var rest []order
	require.NoError(t, db.Model(&order{}).All(&rest))
	assert.Equal(t, []string{"o1", "o4"}, ids(rest))

	err = db.Model(&order{}).Delete()
	assert.ErrorIs(t, err, qerrors.ErrMissingPrimaryKey)
}

func TestBatchOperations(t *testing.T) {
	db := seed(t)

	var got []*order
	require.NoError(t, db.Model(&order{}).BatchGet([]any{"o1", "o3", "missing", &order{ID: "o5"}}, &got))
	require.Len(t, got, 3)
	assert.Equal(t, "o3", got[1].ID)

	require.NoError(t, db.Model(&order{}).BatchCreate([]order{{ID: "b1"}, {ID: "b2"}}))
	require.NoError(t, db.Model(&order{}).BatchCreate([]*order{{ID: "b3"}}))
	n, err := db.Model(&order{}).Where("ID", "BEGINS_WITH", "b").Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	err = db.Model(&order{}).BatchCreate([]order{{ID: "b4"}, {ID: "b1"}})
	assert.ErrorIs(t, err, qerrors.ErrConditionFailed)

	assert.ErrorIs(t, db.Model(&order{}).BatchCreate(order{}), qerrors.ErrInvalidModel)
}

func TestCreateOrUpdate(t *testing.T) {
	db := seed(t)

	require.NoError(t, db.Model(&order{ID: "o1", Customer: "zed"}).CreateOrUpdate())
	var all []order
	require.NoError(t, db.Model(&order{}).All(&all))
	assert.Equal(t, []string{"o1", "o2", "o3", "o4", "o5"}, ids(all))
	assert.Equal(t, "zed", all[0].Customer)
}

func TestTransaction(t *testing.T) {
	db := seed(t)
	boom := errors.New("boom")

	err := db.Transaction(func(tx *core.Tx) error {
		require.NoError(t, tx.Create(&order{ID: "t1"}))
		require.NoError(t, tx.Model(&order{ID: "o1"}).UpdateBuilder().Set("Status", "void").Execute())
		require.NoError(t, tx.Delete(&order{ID: "o2"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var all []order
	require.NoError(t, db.Model(&order{}).All(&all))
	assert.Equal(t, []string{"o1", "o2", "o3", "o4", "o5"}, ids(all))
	assert.Equal(t, "open", all[0].Status)

	err = db.Transaction(func(tx *core.Tx) error {
		return tx.Create(&order{ID: "t2"})
	})
	require.NoError(t, err)
	n, err := db.Model(&order{}).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

func TestContextCancellation(t *testing.T) {
	db := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.WithContext(ctx).Model(&order{}).Count()
	assert.ErrorIs(t, err, context.Canceled)

	var all []order
	err = db.Model(&order{}).WithContext(ctx).All(&all)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAutoMigrateAndLogging(t *testing.T) {
	var buf bytes.Buffer
	db := memdb.New(memdb.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	require.NoError(t, db.AutoMigrate(&order{}))
	assert.Contains(t, buf.String(), `"table":"orders"`)
	assert.Contains(t, buf.String(), "created table")

	assert.ErrorIs(t, db.AutoMigrate(42), qerrors.ErrInvalidModel)
	assert.NoError(t, db.Close())
}
