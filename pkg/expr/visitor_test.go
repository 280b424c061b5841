package expr_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay-theory/mockqueryable/pkg/expr"
)

type identity struct{}

func (v identity) Visit(e expr.Expr) expr.Expr { return expr.VisitChildren(v, e) }

func sampleTree() expr.Expr {
	u := expr.Param("u")
	pred := expr.Lambda(expr.And(
		expr.Ge(expr.Field(u, "ID"), expr.Const(2)),
		expr.MethodCall(expr.Field(u, "FirstName"), "StartsWith", expr.Const("First")),
	), u)
	proj := expr.Lambda(expr.NewObject(reflect.TypeFor[summary](), expr.Bind("Name", expr.Field(u, "FirstName"))), u)
	return expr.StaticCall("Select",
		expr.StaticCall("Where", expr.Const("users"), expr.Quote(pred)),
		expr.Quote(proj),
	)
}

func TestVisitChildrenPreservesUnchangedTree(t *testing.T) {
	tree := sampleTree()
	assert.Same(t, tree, expr.Rewrite(identity{}, tree))
}

func TestVisitChildrenRebuildsChangedPath(t *testing.T) {
	tree := sampleTree()

	bump := expr.VisitorFunc(nil)
	bump = func(e expr.Expr) expr.Expr {
		if c, ok := e.(*expr.Constant); ok {
			if n, ok := c.Value.(int); ok {
				return expr.Const(n + 1)
			}
		}
		return expr.VisitChildren(bump, e)
	}

	out := expr.Rewrite(bump, tree)
	require.NotSame(t, tree, out)
	assert.Contains(t, out.String(), "(u.ID >= 3)")
	assert.Contains(t, tree.String(), "(u.ID >= 2)", "original tree is never mutated")

	outer := out.(*expr.Call)
	orig := tree.(*expr.Call)
	assert.Same(t, orig.Args[1], outer.Args[1], "untouched siblings are shared")
}

func TestWalk(t *testing.T) {
	var members []string
	expr.Walk(sampleTree(), func(e expr.Expr) bool {
		if m, ok := e.(*expr.Member); ok {
			members = append(members, m.Name)
		}
		return true
	})
	assert.Equal(t, []string{"ID", "FirstName", "FirstName"}, members)

	count := 0
	expr.Walk(sampleTree(), func(expr.Expr) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestString(t *testing.T) {
	assert.Equal(t,
		`Select(Where("users", u => ((u.ID >= 2) && u.FirstName.StartsWith("First"))), u => new expr_test.summary {Name = u.FirstName})`,
		sampleTree().String(),
	)
	assert.Equal(t, `ILike(EF.Functions, u.FirstName, "%a%")`, expr.ILike(expr.Field(expr.Param("u"), "FirstName"), expr.Const("%a%")).String())
	assert.Equal(t, "() => null", expr.Lambda(expr.Const(nil)).String())
	assert.Equal(t, "func(int) bool", expr.Fn(func(int) bool { return true }).String())
	assert.Equal(t, "NodeType(99)", expr.NodeType(99).String())
	assert.Equal(t, "Lambda", expr.NodeLambda.String())
}

func TestStripQuotes(t *testing.T) {
	l := expr.Lambda(expr.Const(true))
	assert.Same(t, l, expr.StripQuotes(expr.Quote(expr.Quote(l))))
}

func TestLambdaBuilders(t *testing.T) {
	var two *expr.LambdaExpr = expr.Lambda(expr.Add(expr.Param("a"), expr.Param("b")), expr.Param("a"), expr.Param("b"))
	assert.Equal(t, expr.NodeLambda, two.NodeType())
	assert.Len(t, two.Params, 2)

	one := expr.Lambda1("x", func(x *expr.Parameter) expr.Expr { return x })
	assert.IsType(t, &expr.LambdaExpr{}, one)
	assert.Equal(t, "x => x", one.String())
}
