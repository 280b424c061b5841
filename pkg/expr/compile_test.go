package expr_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
)

type person struct {
	ID          int
	FirstName   string
	Nickname    *string
	DateOfBirth time.Time `dynamorm:"attr:dob"`
	Tags        []string
}

func (p person) FullName() string { return p.FirstName + " Doe" }

type summary struct {
	Name string
	Born int
}

func TestCompileNilBody(t *testing.T) {
	_, err := expr.Compile(nil)
	require.ErrorIs(t, err, qerrors.ErrNilBody)
	assert.Equal(t, "body is null", err.Error())
}

func TestCompileUnknownStaticCall(t *testing.T) {
	_, err := expr.Compile(expr.ILike(expr.Const("a"), expr.Const("%a%")))
	require.Error(t, err)
	assert.True(t, qerrors.IsUnsupportedOperator(err))

	var unsupported *qerrors.UnsupportedOperatorError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "ILike", unsupported.Method)
	assert.Contains(t, err.Error(), "The 'ILike' method is not supported because the query has switched to client-evaluation.")
}

func TestCompileLibrary(t *testing.T) {
	lib := expr.Library{
		"Twice": func(args []any) (any, error) {
			n, err := expr.ToFloat64(args[0])
			return n * 2, err
		},
	}

	v, err := expr.Eval(expr.StaticCall("Twice", expr.Const(21)), expr.WithLibrary(lib))
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestLambdaClosure(t *testing.T) {
	x := expr.Param("x")
	y := expr.Param("y")

	// x => (y => x + y)
	adder := expr.Lambda(expr.Lambda(expr.Add(x, y), y), x)

	v, err := expr.Eval(adder)
	require.NoError(t, err)

	outer := v.(expr.Callable)
	assert.Equal(t, 1, outer.Arity())

	inner, err := outer.Call(40)
	require.NoError(t, err)

	sum, err := inner.(expr.Callable).Call(2)
	require.NoError(t, err)
	assert.Equal(t, 42, sum)

	_, err = outer.Call()
	assert.ErrorIs(t, err, qerrors.ErrArgumentCount)
}

func TestUnboundParameter(t *testing.T) {
	_, err := expr.Compile(expr.Param("stray"))
	assert.ErrorIs(t, err, qerrors.ErrInvalidOperator)
}

func TestProgramParameters(t *testing.T) {
	p := expr.Param("p")
	prog, err := expr.Compile(expr.Field(p, "FirstName"), expr.WithParameters(p))
	require.NoError(t, err)

	v, err := prog.Run(person{FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)

	_, err = prog.Run()
	assert.ErrorIs(t, err, qerrors.ErrArgumentCount)
}

func TestMembers(t *testing.T) {
	nick := "ace"
	dob := time.Date(2012, 1, 20, 15, 30, 0, 0, time.UTC)
	p := &person{ID: 7, FirstName: "FirstName1", Nickname: &nick, DateOfBirth: dob, Tags: []string{"a", "b"}}

	tests := []struct {
		name string
		body expr.Expr
		want any
	}{
		{"go field", expr.Field(expr.Const(p), "FirstName"), "FirstName1"},
		{"attribute name", expr.Field(expr.Const(p), "dob"), dob},
		{"date", expr.Field(expr.Field(expr.Const(p), "DateOfBirth"), "Date"), time.Date(2012, 1, 20, 0, 0, 0, 0, time.UTC)},
		{"time method", expr.Field(expr.Field(expr.Const(p), "DateOfBirth"), "Year"), 2012},
		{"string length", expr.Field(expr.Const("héllo"), "Length"), 5},
		{"slice field", expr.Field(expr.Const(p), "Tags"), []string{"a", "b"}},
		{"slice length", expr.Field(expr.Field(expr.Const(p), "Tags"), "Length"), 2},
		{"method as member", expr.Field(expr.Const(*p), "FullName"), "FirstName1 Doe"},
		{"pointer field", expr.Field(expr.Const(p), "Nickname"), &nick},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := expr.Eval(tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}

	t.Run("missing member", func(t *testing.T) {
		_, err := expr.Eval(expr.Field(expr.Const(p), "Nope"))
		assert.ErrorIs(t, err, qerrors.ErrMemberNotFound)
	})

	t.Run("nil target", func(t *testing.T) {
		var np *person
		_, err := expr.Eval(expr.Field(expr.Const(np), "FirstName"))
		assert.ErrorIs(t, err, qerrors.ErrNilReference)
	})
}

func TestStringMethods(t *testing.T) {
	s := expr.Const("  FirstName3 ")

	tests := []struct {
		name string
		body expr.Expr
		want any
	}{
		{"lower", expr.MethodCall(expr.Const("FirstName3"), "ToLower"), "firstname3"},
		{"upper", expr.MethodCall(expr.Const("ame3"), "ToUpper"), "AME3"},
		{"trim space", expr.MethodCall(s, "Trim"), "FirstName3"},
		{"trim cutset", expr.MethodCall(expr.Const("%ame3%"), "Trim", expr.Const("%")), "ame3"},
		{"trim start", expr.MethodCall(expr.Const("%ame3%"), "TrimStart", expr.Const("%")), "ame3%"},
		{"contains", expr.MethodCall(expr.Const("firstname3"), "Contains", expr.Const("ame3")), true},
		{"starts with", expr.MethodCall(expr.Const("firstname3"), "StartsWith", expr.Const("first")), true},
		{"ends with", expr.MethodCall(expr.Const("firstname3"), "EndsWith", expr.Const("x")), false},
		{"index of", expr.MethodCall(expr.Const("firstname3"), "IndexOf", expr.Const("name")), 5},
		{"replace", expr.MethodCall(expr.Const("a-b-c"), "Replace", expr.Const("-"), expr.Const("+")), "a+b+c"},
		{"substring", expr.MethodCall(expr.Const("firstname3"), "Substring", expr.Const(5), expr.Const(4)), "name"},
		{"slice contains", expr.MethodCall(expr.Const([]int{1, 2, 3}), "Contains", expr.Const(int64(2))), true},
		{"add years", expr.MethodCall(expr.Const(time.Date(2012, 1, 20, 0, 0, 0, 0, time.UTC)), "AddYears", expr.Const(-1)), time.Date(2011, 1, 20, 0, 0, 0, 0, time.UTC)},
		{"add days", expr.MethodCall(expr.Const(time.Date(2012, 1, 20, 0, 0, 0, 0, time.UTC)), "AddDays", expr.Const(1)), time.Date(2012, 1, 21, 0, 0, 0, 0, time.UTC)},
		{"reflected method", expr.MethodCall(expr.Const(person{FirstName: "Jo"}), "FullName"), "Jo Doe"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := expr.Eval(tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}

	t.Run("multibyte runes", func(t *testing.T) {
		name := expr.Const("Zoë Šimić")
		v, err := expr.Eval(expr.MethodCall(name, "Substring", expr.Const(0), expr.Field(name, "Length")))
		require.NoError(t, err)
		assert.Equal(t, "Zoë Šimić", v)

		v, err = expr.Eval(expr.MethodCall(name, "Substring", expr.Const(2), expr.Const(3)))
		require.NoError(t, err)
		assert.Equal(t, "ë Š", v)

		v, err = expr.Eval(expr.MethodCall(name, "IndexOf", expr.Const("Šimić")))
		require.NoError(t, err)
		assert.Equal(t, 4, v)

		v, err = expr.Eval(expr.MethodCall(name, "IndexOf", expr.Const("x")))
		require.NoError(t, err)
		assert.Equal(t, -1, v)
	})

	t.Run("substring out of range", func(t *testing.T) {
		_, err := expr.Eval(expr.MethodCall(expr.Const("abc"), "Substring", expr.Const(2), expr.Const(5)))
		assert.ErrorIs(t, err, qerrors.ErrIndexOutOfRange)
	})
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name string
		body expr.Expr
		want any
	}{
		{"int add", expr.Add(expr.Const(40), expr.Const(2)), 42},
		{"mixed add", expr.Add(expr.Const(40), expr.Const(2.5)), 42.5},
		{"concat", expr.Add(expr.Const("id-"), expr.Const(3)), "id-3"},
		{"modulo", expr.Mod(expr.Const(7), expr.Const(3)), 1},
		{"negate", expr.Negate(expr.Const(5)), -5},
		{"cross kind equality", expr.Eq(expr.Const(int64(3)), expr.Const(3)), true},
		{"time compare", expr.Lt(expr.Const(time.Unix(1, 0)), expr.Const(time.Unix(2, 0))), true},
		{"string compare", expr.Ge(expr.Const("b"), expr.Const("a")), true},
		{"null compare", expr.Gt(expr.Const(nil), expr.Const(1)), false},
		{"null equality", expr.Eq(expr.Const(nil), expr.Const(nil)), true},
		{"short circuit", expr.And(expr.Const(false), expr.Div(expr.Const(1), expr.Const(0))), false},
		{"or", expr.Or(expr.Const(false), expr.Const(true)), true},
		{"not", expr.Not(expr.Const(false)), true},
		{"conditional", expr.Cond(expr.Const(true), expr.Const("yes"), expr.Const("no")), "yes"},
		{"time plus duration", expr.Add(expr.Const(time.Unix(0, 0).UTC()), expr.Const(time.Hour)), time.Unix(3600, 0).UTC()},
		{"convert", expr.Convert(expr.Const("42"), reflect.TypeFor[int64]()), int64(42)},
		{"array", expr.Array(expr.Const(1), expr.Const("a")), []any{1, "a"}},
		{"tuple", expr.NewTuple("SetProperty", expr.Const("a")), expr.Tuple{Kind: "SetProperty", Values: []any{"a"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := expr.Eval(tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}

	t.Run("divide by zero", func(t *testing.T) {
		_, err := expr.Eval(expr.Div(expr.Const(1), expr.Const(0)))
		assert.ErrorIs(t, err, qerrors.ErrDivideByZero)
	})

	t.Run("invalid cast", func(t *testing.T) {
		_, err := expr.Eval(expr.Convert(expr.Const("forty"), reflect.TypeFor[int]()))
		assert.ErrorIs(t, err, qerrors.ErrInvalidCast)
	})

	t.Run("predicate must be boolean", func(t *testing.T) {
		_, err := expr.Eval(expr.Not(expr.Const(1)))
		assert.ErrorIs(t, err, qerrors.ErrInvalidCast)
	})
}

func TestNewObject(t *testing.T) {
	p := expr.Param("p")
	projection := expr.Lambda(expr.NewObject(reflect.TypeFor[summary](),
		expr.Bind("Name", expr.Field(p, "FirstName")),
		expr.Bind("Born", expr.Field(expr.Field(p, "DateOfBirth"), "Year")),
	), p)

	v, err := expr.Eval(projection)
	require.NoError(t, err)

	out, err := v.(expr.Callable).Call(person{FirstName: "Ada", DateOfBirth: time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, summary{Name: "Ada", Born: 1815}, out)

	_, err = expr.Compile(expr.NewObject(reflect.TypeFor[summary](), expr.Bind("Missing", expr.Const(1))))
	assert.ErrorIs(t, err, qerrors.ErrMemberNotFound)
}

func TestGoFunc(t *testing.T) {
	v, err := expr.Eval(expr.Fn(func(p *person) (bool, error) { return p.ID > 2, nil }))
	require.NoError(t, err)

	fn := v.(expr.Callable)
	ok, err := fn.Call(&person{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, true, ok)

	_, err = expr.Compile(expr.Fn(42))
	assert.ErrorIs(t, err, qerrors.ErrInvalidCast)

	panicking, err := expr.NewCallable(func(int) int { panic("boom") })
	require.NoError(t, err)
	assert.PanicsWithValue(t, "boom", func() { _, _ = panicking.Call(1) })
}
