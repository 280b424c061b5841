package expr

import (
	"fmt"
	"reflect"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
)

// Callable is the evaluated form of a lambda or an embedded Go function
type Callable interface {
	Arity() int
	Call(args ...any) (any, error)
}

// StaticMethod implements a static call. Arguments arrive evaluated: quoted
// lambdas as Callables, sequences as whatever their constants hold.
type StaticMethod func(args []any) (any, error)

// Library maps static method names to implementations
type Library map[string]StaticMethod

// Merge returns a library holding the methods of l and others; later entries win
func (l Library) Merge(others ...Library) Library {
	out := make(Library, len(l))
	for k, v := range l {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Option configures Compile
type Option func(*compiler)

// WithLibrary makes static methods available to the compiled tree
func WithLibrary(libs ...Library) Option {
	return func(c *compiler) {
		c.library = c.library.Merge(libs...)
	}
}

// WithParameters declares the arguments Program.Run expects
func WithParameters(params ...*Parameter) Option {
	return func(c *compiler) {
		c.params = params
	}
}

// Program is a compiled tree
type Program struct {
	body   Expr
	params []*Parameter
	eval   evalFn
}

// Body returns the tree the program was compiled from
func (p *Program) Body() Expr { return p.body }

// Run evaluates the program. Faults raised while evaluating are returned;
// panics raised by embedded Go functions propagate.
func (p *Program) Run(args ...any) (any, error) {
	if len(args) != len(p.params) {
		return nil, fmt.Errorf("%w: program expects %d arguments, got %d", qerrors.ErrArgumentCount, len(p.params), len(args))
	}
	return p.eval(&frame{values: args})
}

// Compile turns body into a tree of Go closures. Static calls are resolved
// here, so a tree naming a method the library lacks fails before it runs.
func Compile(body Expr, opts ...Option) (*Program, error) {
	if body == nil {
		return nil, qerrors.ErrNilBody
	}
	c := &compiler{library: Library{}}
	for _, opt := range opts {
		opt(c)
	}
	eval, err := c.compile(body, &scope{params: c.params})
	if err != nil {
		return nil, err
	}
	return &Program{body: body, params: c.params, eval: eval}, nil
}

// Eval compiles and runs a closed tree
func Eval(body Expr, opts ...Option) (any, error) {
	p, err := Compile(body, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run()
}

type evalFn func(f *frame) (any, error)

type frame struct {
	parent *frame
	values []any
}

type scope struct {
	parent *scope
	params []*Parameter
}

func (s *scope) resolve(p *Parameter) (depth, index int, ok bool) {
	for cur := s; cur != nil; cur = cur.parent {
		for i, q := range cur.params {
			if q == p {
				return depth, i, true
			}
		}
		depth++
	}
	return 0, 0, false
}

type compiler struct {
	library Library
	params  []*Parameter
}

func (c *compiler) compile(e Expr, s *scope) (evalFn, error) {
	switch n := e.(type) {
	case nil:
		return func(*frame) (any, error) { return nil, nil }, nil
	case *Constant:
		v := n.Value
		return func(*frame) (any, error) { return v, nil }, nil
	case *Parameter:
		depth, index, ok := s.resolve(n)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %s is not in scope", qerrors.ErrInvalidOperator, n.Name)
		}
		return func(f *frame) (any, error) {
			for i := 0; i < depth; i++ {
				f = f.parent
			}
			return f.values[index], nil
		}, nil
	case *Member:
		return c.compileMember(n, s)
	case *Call:
		return c.compileCall(n, s)
	case *Binary:
		return c.compileBinary(n, s)
	case *Unary:
		return c.compileUnary(n, s)
	case *LambdaExpr:
		inner := &scope{parent: s, params: n.Params}
		body, err := c.compile(n.Body, inner)
		if err != nil {
			return nil, err
		}
		arity := len(n.Params)
		return func(f *frame) (any, error) {
			return &closure{arity: arity, body: body, parent: f}, nil
		}, nil
	case *NewArray:
		elems, err := c.compileList(n.Elems, s)
		if err != nil {
			return nil, err
		}
		return func(f *frame) (any, error) { return evalList(elems, f) }, nil
	case *New:
		return c.compileNew(n, s)
	case *GoFunc:
		fn := reflect.ValueOf(n.Fn)
		if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
			return nil, fmt.Errorf("%w: %T is not a function", qerrors.ErrInvalidCast, n.Fn)
		}
		callable := &goFunc{fn: fn}
		return func(*frame) (any, error) { return callable, nil }, nil
	case *Conditional:
		test, err := c.compile(n.Test, s)
		if err != nil {
			return nil, err
		}
		then, err := c.compile(n.Then, s)
		if err != nil {
			return nil, err
		}
		els, err := c.compile(n.Else, s)
		if err != nil {
			return nil, err
		}
		return func(f *frame) (any, error) {
			v, err := test(f)
			if err != nil {
				return nil, err
			}
			ok, err := ToBool(v)
			if err != nil {
				return nil, err
			}
			if ok {
				return then(f)
			}
			return els(f)
		}, nil
	default:
		return nil, fmt.Errorf("%w: node %T", qerrors.ErrUnsupportedOperator, e)
	}
}

func (c *compiler) compileList(exprs []Expr, s *scope) ([]evalFn, error) {
	out := make([]evalFn, len(exprs))
	for i, e := range exprs {
		fn, err := c.compile(e, s)
		if err != nil {
			return nil, err
		}
		out[i] = fn
	}
	return out, nil
}

func evalList(fns []evalFn, f *frame) ([]any, error) {
	out := make([]any, len(fns))
	for i, fn := range fns {
		v, err := fn(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *compiler) compileMember(n *Member, s *scope) (evalFn, error) {
	target, err := c.compile(n.Target, s)
	if err != nil {
		return nil, err
	}
	name := n.Name
	return func(f *frame) (any, error) {
		v, err := target(f)
		if err != nil {
			return nil, err
		}
		return MemberValue(v, name)
	}, nil
}

func (c *compiler) compileCall(n *Call, s *scope) (evalFn, error) {
	args, err := c.compileList(n.Args, s)
	if err != nil {
		return nil, err
	}

	if n.Object == nil {
		method, ok := c.library[n.Method]
		if !ok {
			return nil, qerrors.NewUnsupportedOperator(n.Method)
		}
		return func(f *frame) (any, error) {
			vals, err := evalList(args, f)
			if err != nil {
				return nil, err
			}
			return method(vals)
		}, nil
	}

	obj, err := c.compile(n.Object, s)
	if err != nil {
		return nil, err
	}
	name := n.Method
	return func(f *frame) (any, error) {
		recv, err := obj(f)
		if err != nil {
			return nil, err
		}
		vals, err := evalList(args, f)
		if err != nil {
			return nil, err
		}
		return callMethod(recv, name, vals)
	}, nil
}

func (c *compiler) compileBinary(n *Binary, s *scope) (evalFn, error) {
	left, err := c.compile(n.Left, s)
	if err != nil {
		return nil, err
	}
	right, err := c.compile(n.Right, s)
	if err != nil {
		return nil, err
	}

	op := n.Op
	if op == OpAndAlso || op == OpOrElse {
		return func(f *frame) (any, error) {
			lv, err := left(f)
			if err != nil {
				return nil, err
			}
			l, err := ToBool(lv)
			if err != nil {
				return nil, err
			}
			if (op == OpAndAlso && !l) || (op == OpOrElse && l) {
				return l, nil
			}
			rv, err := right(f)
			if err != nil {
				return nil, err
			}
			return ToBool(rv)
		}, nil
	}

	return func(f *frame) (any, error) {
		l, err := left(f)
		if err != nil {
			return nil, err
		}
		r, err := right(f)
		if err != nil {
			return nil, err
		}
		switch op {
		case OpEqual:
			return Equal(l, r), nil
		case OpNotEqual:
			return !Equal(l, r), nil
		case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
			if deref(l) == nil || deref(r) == nil {
				return false, nil
			}
			cmp, err := Compare(l, r)
			if err != nil {
				return nil, err
			}
			switch op {
			case OpLess:
				return cmp < 0, nil
			case OpLessOrEqual:
				return cmp <= 0, nil
			case OpGreater:
				return cmp > 0, nil
			default:
				return cmp >= 0, nil
			}
		default:
			return arithmetic(op, l, r)
		}
	}, nil
}

func (c *compiler) compileUnary(n *Unary, s *scope) (evalFn, error) {
	operand, err := c.compile(n.Operand, s)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpQuote:
		return operand, nil
	case OpNot:
		return func(f *frame) (any, error) {
			v, err := operand(f)
			if err != nil {
				return nil, err
			}
			b, err := ToBool(v)
			if err != nil {
				return nil, err
			}
			return !b, nil
		}, nil
	case OpNegate:
		return func(f *frame) (any, error) {
			v, err := operand(f)
			if err != nil {
				return nil, err
			}
			return negate(v)
		}, nil
	case OpConvert:
		t := n.Type
		return func(f *frame) (any, error) {
			v, err := operand(f)
			if err != nil {
				return nil, err
			}
			return ConvertTo(v, t)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unary operator %d", qerrors.ErrUnsupportedOperator, n.Op)
	}
}

func (c *compiler) compileNew(n *New, s *scope) (evalFn, error) {
	args, err := c.compileList(n.Args, s)
	if err != nil {
		return nil, err
	}
	if n.Type == nil {
		kind := n.Kind
		return func(f *frame) (any, error) {
			vals, err := evalList(args, f)
			if err != nil {
				return nil, err
			}
			return Tuple{Kind: kind, Values: vals}, nil
		}, nil
	}

	t := n.Type
	elem := t
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: cannot construct %s from bindings", qerrors.ErrInvalidCast, t)
	}

	names := make([]string, len(n.Bindings))
	values := make([]evalFn, len(n.Bindings))
	for i, b := range n.Bindings {
		if _, ok := FieldByName(reflect.New(elem).Elem(), b.Member); !ok {
			return nil, fmt.Errorf("%w: %s on %s", qerrors.ErrMemberNotFound, b.Member, elem)
		}
		fn, err := c.compile(b.Value, s)
		if err != nil {
			return nil, err
		}
		names[i], values[i] = b.Member, fn
	}

	return func(f *frame) (any, error) {
		p := reflect.New(elem)
		for i, fn := range values {
			v, err := fn(f)
			if err != nil {
				return nil, err
			}
			if err := SetMember(p.Interface(), names[i], v); err != nil {
				return nil, err
			}
		}
		if t.Kind() == reflect.Pointer {
			return p.Interface(), nil
		}
		return p.Elem().Interface(), nil
	}, nil
}

type closure struct {
	arity  int
	body   evalFn
	parent *frame
}

func (c *closure) Arity() int { return c.arity }

func (c *closure) Call(args ...any) (any, error) {
	if len(args) != c.arity {
		return nil, fmt.Errorf("%w: lambda expects %d arguments, got %d", qerrors.ErrArgumentCount, c.arity, len(args))
	}
	return c.body(&frame{parent: c.parent, values: args})
}

type goFunc struct {
	fn reflect.Value
}

func (g *goFunc) Arity() int { return g.fn.Type().NumIn() }

func (g *goFunc) Call(args ...any) (any, error) { return callReflect(g.fn, args) }

// NewCallable wraps a Go function as a Callable
func NewCallable(fn any) (Callable, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a function", qerrors.ErrInvalidCast, fn)
	}
	return &goFunc{fn: rv}, nil
}

// callReflect invokes fn with args converted to its parameter types. A
// trailing error result is returned as the error.
func callReflect(fn reflect.Value, args []any) (any, error) {
	ft := fn.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return nil, fmt.Errorf("%w: %s called with %d arguments", qerrors.ErrArgumentCount, ft, len(args))
		}
	} else if len(args) != ft.NumIn() {
		return nil, fmt.Errorf("%w: %s called with %d arguments", qerrors.ErrArgumentCount, ft, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(ft, i)
		v, err := convertValue(a, pt)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}

	out := fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if ft.Out(0) == errorType {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		if ft.Out(len(out)-1) == errorType {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return nil, err
			}
		}
		return out[0].Interface(), nil
	}
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}
