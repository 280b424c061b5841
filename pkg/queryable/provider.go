package queryable

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/pay-theory/mockqueryable/pkg/async"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
)

// Provider executes trees built by a queryable
type Provider interface {
	// Execute runs tree and returns its untyped result
	Execute(tree expr.Expr) (any, error)
	// ExecuteAsync runs tree behind an already-completed future
	ExecuteAsync(ctx context.Context, tree expr.Expr) *async.Future[any]
	// ElementType is the element type of queries the provider hands out
	ElementType() reflect.Type
}

// engine rewrites, compiles and runs trees
type engine struct {
	rewriter expr.Visitor
	library  expr.Library
	logger   zerolog.Logger
}

func (e *engine) run(tree expr.Expr) (any, error) {
	rewritten := expr.Rewrite(e.rewriter, tree)
	prog, err := expr.Compile(rewritten, expr.WithLibrary(e.library))
	if err != nil {
		e.logger.Debug().Err(err).Stringer("expression", exprStringer{rewritten}).Msg("query compilation failed")
		return nil, err
	}
	e.logger.Debug().Stringer("expression", exprStringer{rewritten}).Msg("executing query")
	return prog.Run()
}

type exprStringer struct{ e expr.Expr }

func (s exprStringer) String() string {
	if s.e == nil {
		return "null"
	}
	return s.e.String()
}

// QueryProvider is the Provider behind every queryable. Chained queries of a
// different element type share its engine.
type QueryProvider struct {
	engine     *engine
	elemType   reflect.Type
	remover    func(any) error
	removeType reflect.Type
	strict     bool
}

var _ Provider = (*QueryProvider)(nil)

func newProvider(elemType reflect.Type, s *settings) *QueryProvider {
	return &QueryProvider{
		engine: &engine{
			rewriter: s.rewriter,
			library:  s.library,
			logger:   s.logger,
		},
		elemType:   elemType,
		remover:    s.remover,
		removeType: s.removeType,
		strict:     s.strict,
	}
}

// ElementType returns the element type of the queryable the provider backs
func (p *QueryProvider) ElementType() reflect.Type { return p.elemType }

// Logger returns the provider's logger
func (p *QueryProvider) Logger() zerolog.Logger { return p.engine.logger }

// CanRemove reports whether bulk deletes remove entities from the source
func (p *QueryProvider) CanRemove() bool { return p.remover != nil }

func (p *QueryProvider) Execute(tree expr.Expr) (any, error) {
	return p.execute(tree, nil)
}

func (p *QueryProvider) ExecuteAsync(_ context.Context, tree expr.Expr) *async.Future[any] {
	return async.Completed(p.Execute(tree))
}

// forElement returns the provider for queries over t. The removal callback
// only carries over when t is the element type it was registered for.
func (p *QueryProvider) forElement(t reflect.Type) *QueryProvider {
	if t == p.elemType {
		return p
	}
	child := *p
	child.elemType = t
	if child.removeType != t {
		child.remover, child.removeType = nil, nil
	}
	return &child
}

func (p *QueryProvider) execute(tree expr.Expr, result reflect.Type) (any, error) {
	if tree == nil {
		return nil, qerrors.ErrNilBody
	}
	if call, ok := bulkCall(tree); ok && result == intType {
		return p.executeBulk(call)
	}
	return p.engine.run(tree)
}

// Execute runs tree and converts its result to R
func Execute[R any](p *QueryProvider, tree expr.Expr) (R, error) {
	v, err := p.execute(tree, reflect.TypeFor[R]())
	if err != nil {
		var zero R
		return zero, err
	}
	return As[R](v)
}

// ExecuteAsync runs tree synchronously and returns the result as a completed future
func ExecuteAsync[R any](_ context.Context, p *QueryProvider, tree expr.Expr) *async.Future[R] {
	return async.Completed(Execute[R](p, tree))
}

// CreateQuery returns a queryable over tree that executes through p
func CreateQuery[R any](p *QueryProvider, tree expr.Expr) *Queryable[R] {
	return &Queryable[R]{expression: tree, provider: p.forElement(reflect.TypeFor[R]())}
}

// As converts an untyped execution result to R. Sequences convert to slices
// element by element.
func As[R any](v any) (R, error) {
	var zero R
	if v == nil {
		return zero, nil
	}
	if r, ok := v.(R); ok {
		return r, nil
	}

	rt := reflect.TypeFor[R]()
	if rt.Kind() == reflect.Slice {
		seq, err := expr.AsSequence(v)
		if err == nil {
			out := reflect.MakeSlice(rt, 0, 0)
			for item, err := range seq {
				if err != nil {
					return zero, err
				}
				cv, err := expr.ConvertTo(item, rt.Elem())
				if err != nil {
					return zero, err
				}
				ev := reflect.New(rt.Elem()).Elem()
				if cv != nil {
					ev.Set(reflect.ValueOf(cv))
				}
				out = reflect.Append(out, ev)
			}
			return out.Interface().(R), nil
		}
	}

	cv, err := expr.ConvertTo(v, rt)
	if err != nil {
		return zero, fmt.Errorf("result of type %T: %w", v, err)
	}
	r, ok := cv.(R)
	if !ok {
		return zero, fmt.Errorf("%w: result of type %T is not %s", qerrors.ErrInvalidCast, v, rt)
	}
	return r, nil
}

var intType = reflect.TypeFor[int]()
