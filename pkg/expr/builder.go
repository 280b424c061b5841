package expr

import "reflect"

// Param creates a lambda parameter
func Param(name string) *Parameter { return &Parameter{Name: name} }

// Const creates a constant node
func Const(v any) *Constant { return &Constant{Value: v} }

// Field reads name from target
func Field(target Expr, name string) *Member { return &Member{Target: target, Name: name} }

// MethodCall invokes method on obj
func MethodCall(obj Expr, method string, args ...Expr) *Call {
	return &Call{Object: obj, Method: method, Args: args}
}

// StaticCall invokes a library method
func StaticCall(method string, args ...Expr) *Call {
	return &Call{Method: method, Args: args}
}

func binary(op BinaryOp, l, r Expr) *Binary { return &Binary{Op: op, Left: l, Right: r} }

func Eq(l, r Expr) *Binary  { return binary(OpEqual, l, r) }
func Ne(l, r Expr) *Binary  { return binary(OpNotEqual, l, r) }
func Lt(l, r Expr) *Binary  { return binary(OpLess, l, r) }
func Le(l, r Expr) *Binary  { return binary(OpLessOrEqual, l, r) }
func Gt(l, r Expr) *Binary  { return binary(OpGreater, l, r) }
func Ge(l, r Expr) *Binary  { return binary(OpGreaterOrEqual, l, r) }
func And(l, r Expr) *Binary { return binary(OpAndAlso, l, r) }
func Or(l, r Expr) *Binary  { return binary(OpOrElse, l, r) }
func Add(l, r Expr) *Binary { return binary(OpAdd, l, r) }
func Sub(l, r Expr) *Binary { return binary(OpSubtract, l, r) }
func Mul(l, r Expr) *Binary { return binary(OpMultiply, l, r) }
func Div(l, r Expr) *Binary { return binary(OpDivide, l, r) }
func Mod(l, r Expr) *Binary { return binary(OpModulo, l, r) }

// AllOf joins the non-nil predicates with &&. It returns nil when there are none.
func AllOf(preds ...Expr) Expr {
	var out Expr
	for _, p := range preds {
		switch {
		case p == nil:
		case out == nil:
			out = p
		default:
			out = And(out, p)
		}
	}
	return out
}

// AnyOf joins the non-nil predicates with ||. It returns nil when there are none.
func AnyOf(preds ...Expr) Expr {
	var out Expr
	for _, p := range preds {
		switch {
		case p == nil:
		case out == nil:
			out = p
		default:
			out = Or(out, p)
		}
	}
	return out
}

func Not(e Expr) *Unary    { return &Unary{Op: OpNot, Operand: e} }
func Negate(e Expr) *Unary { return &Unary{Op: OpNegate, Operand: e} }

// Quote marks a lambda passed to a query operator
func Quote(e Expr) *Unary { return &Unary{Op: OpQuote, Operand: e} }

// Convert converts e to t at evaluation time
func Convert(e Expr, t reflect.Type) *Unary { return &Unary{Op: OpConvert, Operand: e, Type: t} }

// Lambda creates a function literal over params
func Lambda(body Expr, params ...*Parameter) *LambdaExpr { return &LambdaExpr{Params: params, Body: body} }

// Lambda1 creates a one-parameter lambda whose body is built from the parameter
func Lambda1(name string, build func(p *Parameter) Expr) *LambdaExpr {
	p := Param(name)
	return Lambda(build(p), p)
}

// Array creates a new-array node
func Array(elems ...Expr) *NewArray { return &NewArray{Elems: elems} }

// NewObject constructs t from member bindings
func NewObject(t reflect.Type, bindings ...Binding) *New { return &New{Type: t, Bindings: bindings} }

// NewTuple constructs a Tuple tagged with kind
func NewTuple(kind string, args ...Expr) *New { return &New{Kind: kind, Args: args} }

// Bind creates a member binding for NewObject
func Bind(member string, value Expr) Binding { return Binding{Member: member, Value: value} }

// Fn embeds a Go function
func Fn(f any) *GoFunc { return &GoFunc{Fn: f} }

// Cond creates a conditional node
func Cond(test, then, els Expr) *Conditional { return &Conditional{Test: test, Then: then, Else: els} }

// DbFunctions is the receiver placeholder of provider functions such as ILike
type DbFunctions struct{}

func (DbFunctions) Describe() string { return "EF.Functions" }

// Functions returns the provider functions placeholder constant
func Functions() *Constant { return Const(DbFunctions{}) }

// ILike builds the provider's case-insensitive pattern match call
func ILike(subject, pattern Expr) *Call {
	return StaticCall("ILike", Functions(), subject, pattern)
}

// Like builds the provider's pattern match call
func Like(subject, pattern Expr) *Call {
	return StaticCall("Like", Functions(), subject, pattern)
}
