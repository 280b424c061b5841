// Package expr provides the expression trees queryables are built from.
//
// A tree is an immutable graph of nodes. Chained query operators add static
// call nodes on top of the previous tree, lambdas carry predicates and
// projections, and constants hold the backing sequence at the root. Trees are
// executed by compiling them into Go closures (see Compile).
package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// NodeType identifies the kind of a node
type NodeType int

const (
	NodeParameter NodeType = iota
	NodeConstant
	NodeMember
	NodeCall
	NodeBinary
	NodeUnary
	NodeLambda
	NodeNewArray
	NodeNew
	NodeFunc
	NodeConditional
)

var nodeTypeNames = [...]string{
	NodeParameter:   "Parameter",
	NodeConstant:    "Constant",
	NodeMember:      "MemberAccess",
	NodeCall:        "Call",
	NodeBinary:      "Binary",
	NodeUnary:       "Unary",
	NodeLambda:      "Lambda",
	NodeNewArray:    "NewArrayInit",
	NodeNew:         "New",
	NodeFunc:        "Func",
	NodeConditional: "Conditional",
}

func (n NodeType) String() string {
	if int(n) < len(nodeTypeNames) {
		return nodeTypeNames[n]
	}
	return "NodeType(" + strconv.Itoa(int(n)) + ")"
}

// Expr is a node of an expression tree
type Expr interface {
	NodeType() NodeType
	String() string
}

// Parameter is a lambda parameter. Parameters are bound by identity, not by name.
type Parameter struct {
	Name string
}

func (*Parameter) NodeType() NodeType { return NodeParameter }
func (p *Parameter) String() string   { return p.Name }

// Constant holds a literal value or a live object such as a backing sequence
type Constant struct {
	Value any
}

// Describer lets constant values control how they render inside a tree
type Describer interface {
	Describe() string
}

func (*Constant) NodeType() NodeType { return NodeConstant }

func (c *Constant) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "null"
	case Describer:
		return v.Describe()
	case string:
		return strconv.Quote(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Member reads a field, attribute or zero-argument method of Target
type Member struct {
	Target Expr
	Name   string
}

func (*Member) NodeType() NodeType { return NodeMember }
func (m *Member) String() string   { return m.Target.String() + "." + m.Name }

// Call invokes Method. Instance calls carry an Object; static calls are
// resolved against the compile library.
type Call struct {
	Object Expr
	Method string
	Args   []Expr
}

func (*Call) NodeType() NodeType { return NodeCall }

// IsStatic reports whether the call has no receiver
func (c *Call) IsStatic() bool { return c.Object == nil }

func (c *Call) String() string {
	args := joinExprs(c.Args)
	if c.Object == nil {
		return c.Method + "(" + args + ")"
	}
	return c.Object.String() + "." + c.Method + "(" + args + ")"
}

// BinaryOp is the operator of a Binary node
type BinaryOp int

const (
	OpEqual BinaryOp = iota
	OpNotEqual
	OpLess
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
	OpAndAlso
	OpOrElse
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
)

var binaryOpSymbols = [...]string{
	OpEqual:          "==",
	OpNotEqual:       "!=",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
	OpAndAlso:        "&&",
	OpOrElse:         "||",
	OpAdd:            "+",
	OpSubtract:       "-",
	OpMultiply:       "*",
	OpDivide:         "/",
	OpModulo:         "%",
}

func (o BinaryOp) String() string {
	if int(o) < len(binaryOpSymbols) {
		return binaryOpSymbols[o]
	}
	return "BinaryOp(" + strconv.Itoa(int(o)) + ")"
}

// Binary applies Op to Left and Right
type Binary struct {
	Op          BinaryOp
	Left, Right Expr
}

func (*Binary) NodeType() NodeType { return NodeBinary }
func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}

// UnaryOp is the operator of a Unary node
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
	OpQuote
	OpConvert
)

// Unary applies Op to Operand. Type is the target of OpConvert.
type Unary struct {
	Op      UnaryOp
	Operand Expr
	Type    reflect.Type
}

func (*Unary) NodeType() NodeType { return NodeUnary }

func (u *Unary) String() string {
	switch u.Op {
	case OpNot:
		return "Not(" + u.Operand.String() + ")"
	case OpNegate:
		return "-" + u.Operand.String()
	case OpConvert:
		return "Convert(" + u.Operand.String() + ", " + typeName(u.Type) + ")"
	default:
		return u.Operand.String()
	}
}

// LambdaExpr is a function literal. It evaluates to a Callable.
type LambdaExpr struct {
	Params []*Parameter
	Body   Expr
}

func (*LambdaExpr) NodeType() NodeType { return NodeLambda }

func (l *LambdaExpr) String() string {
	body := "null"
	if l.Body != nil {
		body = l.Body.String()
	}
	if len(l.Params) == 1 {
		return l.Params[0].Name + " => " + body
	}
	names := make([]string, len(l.Params))
	for i, p := range l.Params {
		names[i] = p.Name
	}
	return "(" + strings.Join(names, ", ") + ") => " + body
}

// NewArray builds a []any from Elems
type NewArray struct {
	Elems []Expr
}

func (*NewArray) NodeType() NodeType { return NodeNewArray }
func (a *NewArray) String() string   { return "new [] {" + joinExprs(a.Elems) + "}" }

// Binding assigns Value to a member of a constructed object
type Binding struct {
	Member string
	Value  Expr
}

// New constructs a value. With a Type it builds that struct from Bindings;
// without one it builds a Tuple tagged with Kind from Args.
type New struct {
	Type     reflect.Type
	Kind     string
	Args     []Expr
	Bindings []Binding
}

func (*New) NodeType() NodeType { return NodeNew }

func (n *New) String() string {
	if n.Type == nil {
		return "new " + n.Kind + "(" + joinExprs(n.Args) + ")"
	}
	parts := make([]string, len(n.Bindings))
	for i, b := range n.Bindings {
		parts[i] = b.Member + " = " + b.Value.String()
	}
	return "new " + typeName(n.Type) + " {" + strings.Join(parts, ", ") + "}"
}

// Tuple is the value of a New node without a Type
type Tuple struct {
	Kind   string
	Values []any
}

// GoFunc embeds an opaque Go function. It evaluates to a Callable.
type GoFunc struct {
	Fn any
}

func (*GoFunc) NodeType() NodeType { return NodeFunc }
func (f *GoFunc) String() string   { return typeName(reflect.TypeOf(f.Fn)) }

// Conditional evaluates Then or Else depending on Test
type Conditional struct {
	Test, Then, Else Expr
}

func (*Conditional) NodeType() NodeType { return NodeConditional }
func (c *Conditional) String() string {
	return "IIF(" + c.Test.String() + ", " + c.Then.String() + ", " + c.Else.String() + ")"
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		if e == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "null"
	}
	return t.String()
}
