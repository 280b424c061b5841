// Package rewrite holds the tree rewriters a queryable runs before executing
// a query. Rewriters replace provider-specific operators, which have no
// meaning against an in-memory sequence, with equivalents that do.
package rewrite

import (
	"slices"

	"github.com/pay-theory/mockqueryable/pkg/expr"
)

// DefaultPatternMethods are the provider pattern-match operators replaced by PatternMatch
var DefaultPatternMethods = []string{"ILike", "Like"}

// patternArity is the argument count of a provider pattern call:
// the functions receiver, the subject and the pattern.
const patternArity = 3

// Identity rebuilds nothing and changes nothing
type Identity struct{}

func (v Identity) Visit(e expr.Expr) expr.Expr { return expr.VisitChildren(v, e) }

// PatternMatch replaces pattern-match calls such as
//
//	ILike(EF.Functions, u.FirstName, "%ame3%")
//
// with the case-insensitive containment test
//
//	u.FirstName.ToLower().Contains("%ame3%".ToLower().Trim("%"))
//
// Calls with any other argument count are left alone.
type PatternMatch struct {
	// Methods overrides DefaultPatternMethods when set
	Methods []string
}

// NewPatternMatch returns a PatternMatch over the default method names
func NewPatternMatch() PatternMatch { return PatternMatch{} }

func (v PatternMatch) Visit(e expr.Expr) expr.Expr {
	call, ok := e.(*expr.Call)
	if !ok || !call.IsStatic() || len(call.Args) != patternArity || !v.matches(call.Method) {
		return expr.VisitChildren(v, e)
	}

	subject := expr.Rewrite(v, call.Args[1])
	pattern := expr.Rewrite(v, call.Args[2])
	return expr.MethodCall(
		expr.MethodCall(subject, "ToLower"),
		"Contains",
		expr.MethodCall(expr.MethodCall(pattern, "ToLower"), "Trim", expr.Const("%")),
	)
}

func (v PatternMatch) matches(method string) bool {
	methods := v.Methods
	if len(methods) == 0 {
		methods = DefaultPatternMethods
	}
	return slices.Contains(methods, method)
}

// Chain applies each visitor in order
type Chain []expr.Visitor

// NewChain creates a Chain of visitors
func NewChain(visitors ...expr.Visitor) Chain { return Chain(visitors) }

func (c Chain) Visit(e expr.Expr) expr.Expr {
	for _, v := range c {
		e = expr.Rewrite(v, e)
	}
	return e
}

// StaticFunc rewrites every static call named Method into whatever Replace
// returns for its (already rewritten) arguments. It lets tests model provider
// operators beyond the built-in pattern match.
type StaticFunc struct {
	Method  string
	Arity   int
	Replace func(args []expr.Expr) expr.Expr
}

func (v StaticFunc) Visit(e expr.Expr) expr.Expr {
	call, ok := e.(*expr.Call)
	if !ok || !call.IsStatic() || call.Method != v.Method || (v.Arity > 0 && len(call.Args) != v.Arity) {
		return expr.VisitChildren(v, e)
	}
	args := make([]expr.Expr, len(call.Args))
	for i, a := range call.Args {
		args[i] = expr.Rewrite(v, a)
	}
	return v.Replace(args)
}
