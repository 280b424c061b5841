package memdb

import (
	"fmt"
	"reflect"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/model"
	"github.com/pay-theory/mockqueryable/pkg/validation"
)

// Supported condition operators
const (
	OpEqual        = "="
	OpNotEqual     = "!="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpBetween      = "BETWEEN"
	OpIn           = "IN"
	OpBeginsWith   = "BEGINS_WITH"
	OpContains     = "CONTAINS"
	OpExists       = "EXISTS"
	OpNotExists    = "NOT_EXISTS"
)

func newParam() *expr.Parameter { return expr.Param("item") }

// condition builds the predicate body for field op value over param
func condition(meta *model.Metadata, param *expr.Parameter, field, op string, value any) (expr.Expr, error) {
	if err := validation.FieldName(field); err != nil {
		return nil, err
	}
	canonical, err := validation.Operator(op)
	if err != nil {
		return nil, err
	}
	if err := validation.Value(value); err != nil {
		return nil, err
	}
	f, ok := meta.Lookup(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", qerrors.ErrMemberNotFound, field, meta.Type)
	}
	member := expr.Field(param, f.Name)

	switch canonical {
	case OpEqual:
		return expr.Eq(member, expr.Const(value)), nil
	case OpNotEqual:
		return expr.Ne(member, expr.Const(value)), nil
	case OpLess:
		return expr.Lt(member, expr.Const(value)), nil
	case OpLessEqual:
		return expr.Le(member, expr.Const(value)), nil
	case OpGreater:
		return expr.Gt(member, expr.Const(value)), nil
	case OpGreaterEqual:
		return expr.Ge(member, expr.Const(value)), nil
	case OpBetween:
		bounds, err := values(value)
		if err != nil || len(bounds) != 2 {
			return nil, fmt.Errorf("%w: BETWEEN requires two values", qerrors.ErrInvalidOperator)
		}
		return expr.And(expr.Ge(member, expr.Const(bounds[0])), expr.Le(member, expr.Const(bounds[1]))), nil
	case OpIn:
		candidates, err := values(value)
		if err != nil {
			return nil, fmt.Errorf("%w: IN requires a slice: %v", qerrors.ErrInvalidOperator, err)
		}
		if len(candidates) == 0 {
			return expr.Const(false), nil
		}
		preds := make([]expr.Expr, len(candidates))
		for i, c := range candidates {
			preds[i] = expr.Eq(member, expr.Const(c))
		}
		return expr.AnyOf(preds...), nil
	case OpBeginsWith:
		return expr.MethodCall(member, "StartsWith", expr.Const(fmt.Sprint(value))), nil
	case OpContains:
		return containsCall(member, f.Type, value), nil
	case OpExists:
		return expr.MethodCall(expr.Fn(isSet), "Invoke", member), nil
	case OpNotExists:
		return expr.Not(expr.MethodCall(expr.Fn(isSet), "Invoke", member)), nil
	default:
		return nil, fmt.Errorf("%w: %s", qerrors.ErrInvalidOperator, op)
	}
}

// containsCall is a substring test on strings, a membership test on slices
// and a key test on maps
func containsCall(member expr.Expr, t reflect.Type, value any) expr.Expr {
	switch t.Kind() {
	case reflect.String:
		return expr.MethodCall(member, "Contains", expr.Const(fmt.Sprint(value)))
	case reflect.Slice, reflect.Array:
		return expr.MethodCall(member, "Contains", expr.Const(value))
	}
	return expr.MethodCall(expr.Fn(func(collection any) bool {
		return hasElement(collection, value)
	}), "Invoke", member)
}

func hasElement(collection, value any) bool {
	rv := reflect.ValueOf(collection)
	if rv.Kind() != reflect.Map {
		return false
	}
	for _, k := range rv.MapKeys() {
		if expr.Equal(k.Interface(), value) {
			return true
		}
	}
	return false
}

// isSet reports whether v holds a non-zero value
func isSet(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() > 0
	}
	return !rv.IsZero()
}

// values flattens a slice or array argument
func values(value any) ([]any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%T is not a slice", value)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
