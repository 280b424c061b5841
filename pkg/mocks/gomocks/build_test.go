package gomocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/mocks/gomocks"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

type product struct {
	ID    uuid.UUID
	Name  string
	Price float64
}

func products() []*product {
	return []*product{
		{ID: uuid.New(), Name: "Widget", Price: 2.5},
		{ID: uuid.New(), Name: "Gadget", Price: 10},
		{ID: uuid.New(), Name: "Gizmo", Price: 7.5},
	}
}

func TestBuildMockEntitySetForwards(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	items := products()
	set := gomocks.BuildMockEntitySetFromSlice(ctrl, &items)

	list, err := set.ToList()
	require.NoError(t, err)
	assert.Equal(t, items, list)

	found, err := set.Find(items[1].ID)
	require.NoError(t, err)
	assert.Same(t, items[1], found)

	found, err = set.FindAsync(ctx, items[2].ID).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Gizmo", found.Name)

	total, err := set.AsQueryable().SumAsync(ctx, expr.Fn(func(p *product) float64 { return p.Price })).Await(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, total, 1e-9)
}

func TestBuildMockEntitySetOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	items := products()
	m := gomocks.NewMockEntitySet[*product](ctrl)
	m.EXPECT().Add(gomock.Any()).Return(errors.New("Product already exist")).Times(1)

	err := m.Add(&product{Name: "Dup"})
	assert.EqualError(t, err, "Product already exist")
	assert.Len(t, items, 3)
}

func TestBulkDeleteThroughGomock(t *testing.T) {
	ctrl := gomock.NewController(t)
	items := products()
	set := gomocks.BuildMockEntitySet(ctrl, queryable.FromSlice(&items,
		queryable.WithRemoveFunc(queryable.SliceRemover(&items))))

	n, err := set.AsQueryable().WhereFunc(func(p *product) bool { return p.Price > 5 }).ExecuteDelete()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].Name)
}
