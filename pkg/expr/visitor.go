package expr

// Visitor transforms a tree. Implementations handle the nodes they care about
// and hand everything else to VisitChildren.
type Visitor interface {
	Visit(e Expr) Expr
}

// VisitorFunc adapts a function to Visitor
type VisitorFunc func(e Expr) Expr

func (f VisitorFunc) Visit(e Expr) Expr { return f(e) }

// Rewrite applies v to e. A nil tree stays nil.
func Rewrite(v Visitor, e Expr) Expr {
	if e == nil || v == nil {
		return e
	}
	return v.Visit(e)
}

// VisitChildren visits every child of e with v and rebuilds e when a child
// changed. When nothing changed the same node is returned.
func VisitChildren(v Visitor, e Expr) Expr {
	switch n := e.(type) {
	case *Member:
		t := Rewrite(v, n.Target)
		if t == n.Target {
			return n
		}
		return &Member{Target: t, Name: n.Name}
	case *Call:
		obj := Rewrite(v, n.Object)
		args, changed := visitList(v, n.Args)
		if obj == n.Object && !changed {
			return n
		}
		return &Call{Object: obj, Method: n.Method, Args: args}
	case *Binary:
		l, r := Rewrite(v, n.Left), Rewrite(v, n.Right)
		if l == n.Left && r == n.Right {
			return n
		}
		return &Binary{Op: n.Op, Left: l, Right: r}
	case *Unary:
		o := Rewrite(v, n.Operand)
		if o == n.Operand {
			return n
		}
		return &Unary{Op: n.Op, Operand: o, Type: n.Type}
	case *LambdaExpr:
		b := Rewrite(v, n.Body)
		if b == n.Body {
			return n
		}
		return &LambdaExpr{Params: n.Params, Body: b}
	case *NewArray:
		elems, changed := visitList(v, n.Elems)
		if !changed {
			return n
		}
		return &NewArray{Elems: elems}
	case *New:
		args, changed := visitList(v, n.Args)
		bindings := n.Bindings
		copied := false
		for i, b := range n.Bindings {
			val := Rewrite(v, b.Value)
			if val == b.Value {
				continue
			}
			if !copied {
				bindings = append([]Binding(nil), n.Bindings...)
				copied = true
			}
			bindings[i].Value = val
			changed = true
		}
		if !changed {
			return n
		}
		return &New{Type: n.Type, Kind: n.Kind, Args: args, Bindings: bindings}
	case *Conditional:
		t, a, b := Rewrite(v, n.Test), Rewrite(v, n.Then), Rewrite(v, n.Else)
		if t == n.Test && a == n.Then && b == n.Else {
			return n
		}
		return &Conditional{Test: t, Then: a, Else: b}
	default:
		return e
	}
}

func visitList(v Visitor, in []Expr) ([]Expr, bool) {
	var out []Expr
	for i, e := range in {
		r := Rewrite(v, e)
		if r != e && out == nil {
			out = append([]Expr(nil), in...)
		}
		if out != nil {
			out[i] = r
		}
	}
	if out == nil {
		return in, false
	}
	return out, true
}

// Walk calls fn for e and, while fn returns true, for its descendants in
// depth-first order.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *Member:
		Walk(n.Target, fn)
	case *Call:
		Walk(n.Object, fn)
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Unary:
		Walk(n.Operand, fn)
	case *LambdaExpr:
		Walk(n.Body, fn)
	case *NewArray:
		for _, a := range n.Elems {
			Walk(a, fn)
		}
	case *New:
		for _, a := range n.Args {
			Walk(a, fn)
		}
		for _, b := range n.Bindings {
			Walk(b.Value, fn)
		}
	case *Conditional:
		Walk(n.Test, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	}
}

// StripQuotes removes Quote wrappers from e
func StripQuotes(e Expr) Expr {
	for {
		u, ok := e.(*Unary)
		if !ok || u.Op != OpQuote {
			return e
		}
		e = u.Operand
	}
}
