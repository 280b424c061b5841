package queryable

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/pay-theory/mockqueryable/pkg/async"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
)

const (
	methodExecuteUpdate = "ExecuteUpdate"
	methodExecuteDelete = "ExecuteDelete"
	methodSetProperty   = "SetProperty"
)

// bulkCall reports whether tree is a bulk update or delete over a source
func bulkCall(tree expr.Expr) (*expr.Call, bool) {
	call, ok := tree.(*expr.Call)
	if !ok || !call.IsStatic() || len(call.Args) == 0 {
		return nil, false
	}
	switch call.Method {
	case methodExecuteUpdate, methodExecuteDelete:
		return call, true
	}
	return nil, false
}

// executeBulk materializes the affected elements once, then updates or
// removes each of them. It returns the number of affected elements.
func (p *QueryProvider) executeBulk(call *expr.Call) (any, error) {
	v, err := p.engine.run(call.Args[0])
	if err != nil {
		return nil, err
	}
	seq, err := expr.AsSequence(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", call.Method, err)
	}
	affected, err := expr.Collect(seq)
	if err != nil {
		return nil, err
	}

	logger := p.engine.logger
	switch call.Method {
	case methodExecuteUpdate:
		var setters expr.Expr
		if len(call.Args) > 1 {
			setters = call.Args[1]
		}
		assignments, ok := parseSetters(setters)
		if !ok {
			logger.Debug().
				Stringer("setters", exprStringer{setters}).
				Int("affected", len(affected)).
				Msg("unrecognized update setters, no members assigned")
			return len(affected), nil
		}
		if err := p.applyUpdates(assignments, affected); err != nil {
			return nil, err
		}
		logger.Debug().Int("affected", len(affected)).Int("assignments", len(assignments)).Msg("bulk update applied")

	case methodExecuteDelete:
		if p.remover == nil {
			if p.strict {
				return nil, fmt.Errorf("%w: %d elements matched", qerrors.ErrRemovalNotConfigured, len(affected))
			}
			logger.Debug().Int("affected", len(affected)).Msg("no removal callback, elements left in source")
			return len(affected), nil
		}
		for _, item := range affected {
			if err := p.remover(item); err != nil {
				return nil, err
			}
		}
		logger.Debug().Int("affected", len(affected)).Msg("bulk delete applied")
	}

	return len(affected), nil
}

// assignment is one parsed member write of a bulk update
type assignment struct {
	path  []string
	value expr.Expr
}

// parseSetters accepts either an array of SetProperty pairs or a lambda
// whose body chains SetProperty calls on its parameter.
func parseSetters(e expr.Expr) ([]assignment, bool) {
	switch n := expr.StripQuotes(e).(type) {
	case *expr.NewArray:
		out := make([]assignment, 0, len(n.Elems))
		for _, elem := range n.Elems {
			pair, ok := expr.StripQuotes(elem).(*expr.New)
			if !ok || pair.Type != nil || len(pair.Args) != 2 {
				return nil, false
			}
			a, ok := newAssignment(pair.Args[0], pair.Args[1])
			if !ok {
				return nil, false
			}
			out = append(out, a)
		}
		return out, true

	case *expr.LambdaExpr:
		if len(n.Params) != 1 {
			return nil, false
		}
		var out []assignment
		cur := n.Body
		for {
			if p, ok := cur.(*expr.Parameter); ok && p == n.Params[0] {
				break
			}
			c, ok := cur.(*expr.Call)
			if !ok || c.IsStatic() || c.Method != methodSetProperty || len(c.Args) != 2 {
				return nil, false
			}
			a, ok := newAssignment(c.Args[0], c.Args[1])
			if !ok {
				return nil, false
			}
			out = append(out, a)
			cur = c.Object
		}
		// calls nest outermost-last
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return out, true
	}
	return nil, false
}

func newAssignment(selector, value expr.Expr) (assignment, bool) {
	path, ok := memberPath(selector)
	if !ok {
		return assignment{}, false
	}
	return assignment{path: path, value: expr.StripQuotes(value)}, true
}

// memberPath resolves x => x.A.B to [A B]. A constant string is taken as a
// dotted path.
func memberPath(selector expr.Expr) ([]string, bool) {
	switch n := expr.StripQuotes(selector).(type) {
	case *expr.Constant:
		s, ok := n.Value.(string)
		if !ok || s == "" {
			return nil, false
		}
		return strings.Split(s, "."), true
	case *expr.LambdaExpr:
		if len(n.Params) != 1 {
			return nil, false
		}
		var path []string
		cur := n.Body
		for {
			switch m := cur.(type) {
			case *expr.Member:
				path = append([]string{m.Name}, path...)
				cur = m.Target
				continue
			case *expr.Parameter:
				if m == n.Params[0] && len(path) > 0 {
					return path, true
				}
			}
			return nil, false
		}
	}
	return nil, false
}

func (p *QueryProvider) applyUpdates(assignments []assignment, affected []any) error {
	values := make([]any, len(assignments))
	for i, a := range assignments {
		v, err := expr.Eval(a.value, expr.WithLibrary(p.engine.library))
		if err != nil {
			return fmt.Errorf("%s %s: %w", methodSetProperty, strings.Join(a.path, "."), err)
		}
		values[i] = v
	}

	for _, item := range affected {
		for i, a := range assignments {
			v, err := valueFor(values[i], item)
			if err != nil {
				return fmt.Errorf("%s %s: %w", methodSetProperty, strings.Join(a.path, "."), err)
			}
			if err := assign(item, a.path, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// valueFor resolves a compiled setter value for item. Zero-argument
// functions are called with nothing, one-argument functions with item.
func valueFor(v any, item any) (any, error) {
	fn, ok := v.(expr.Callable)
	if !ok {
		return v, nil
	}
	switch fn.Arity() {
	case 0:
		return fn.Call()
	case 1:
		return fn.Call(item)
	default:
		return nil, fmt.Errorf("%w: value function takes %d arguments", qerrors.ErrArgumentCount, fn.Arity())
	}
}

func assign(item any, path []string, v any) error {
	target := item
	for _, name := range path[:len(path)-1] {
		next, err := expr.MemberValue(target, name)
		if err != nil {
			return err
		}
		target = next
	}
	if rv := reflect.ValueOf(target); rv.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: %T elements cannot be updated in place", qerrors.ErrUnaddressable, target)
	}
	return expr.SetMember(target, path[len(path)-1], v)
}

// Assignment is one member write of a bulk update
type Assignment struct {
	Member string
	Value  any
}

// SetProperty assigns value to member. value may be an expression, a Go
// function of zero or one argument, or a constant.
func SetProperty(member string, value any) Assignment {
	return Assignment{Member: member, Value: value}
}

func (a Assignment) selector() expr.Expr {
	path := strings.Split(a.Member, ".")
	return expr.Lambda1("x", func(x *expr.Parameter) expr.Expr {
		var e expr.Expr = x
		for _, name := range path {
			e = expr.Field(e, name)
		}
		return e
	})
}

func (a Assignment) valueExpr() expr.Expr {
	switch v := a.Value.(type) {
	case expr.Expr:
		return v
	case nil:
		return expr.Const(nil)
	}
	if reflect.TypeOf(a.Value).Kind() == reflect.Func {
		return expr.Fn(a.Value)
	}
	return expr.Const(a.Value)
}

// Assignments builds setters in array form
func Assignments(as ...Assignment) expr.Expr {
	elems := make([]expr.Expr, len(as))
	for i, a := range as {
		elems[i] = expr.NewTuple(methodSetProperty, expr.Quote(a.selector()), a.valueExpr())
	}
	return expr.Array(elems...)
}

// SetterChain builds setters in fluent form, s => s.SetProperty(...).SetProperty(...)
type SetterChain struct {
	param *expr.Parameter
	body  expr.Expr
}

// Setters starts an empty fluent setter chain
func Setters() *SetterChain {
	p := expr.Param("s")
	return &SetterChain{param: p, body: p}
}

// SetProperty appends a member write to the chain
func (c *SetterChain) SetProperty(member string, value any) *SetterChain {
	a := SetProperty(member, value)
	c.body = expr.MethodCall(c.body, methodSetProperty, expr.Quote(a.selector()), a.valueExpr())
	return c
}

// Expr returns the chain as a quoted lambda
func (c *SetterChain) Expr() expr.Expr {
	return expr.Quote(expr.Lambda(c.body, c.param))
}

// ExecuteUpdate applies setters to every element of q and returns how many
// elements matched. Setters may be built with Assignments or Setters.
func (q *Queryable[T]) ExecuteUpdate(setters expr.Expr) (int, error) {
	return Execute[int](q.provider, q.terminal(methodExecuteUpdate, setters))
}

// ExecuteDelete removes every element of q through the removal callback and
// returns how many elements matched
func (q *Queryable[T]) ExecuteDelete() (int, error) {
	return Execute[int](q.provider, q.terminal(methodExecuteDelete))
}

func (q *Queryable[T]) ExecuteUpdateAsync(ctx context.Context, setters expr.Expr) *async.Future[int] {
	return ExecuteAsync[int](ctx, q.provider, q.terminal(methodExecuteUpdate, setters))
}

func (q *Queryable[T]) ExecuteDeleteAsync(ctx context.Context) *async.Future[int] {
	return ExecuteAsync[int](ctx, q.provider, q.terminal(methodExecuteDelete))
}
