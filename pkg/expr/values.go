package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
)

var (
	timeType  = reflect.TypeFor[time.Time]()
	errorType = reflect.TypeFor[error]()
)

// Equal reports whether two evaluated values are equal. Numbers compare by
// value across kinds and times compare by instant.
func Equal(a, b any) bool {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if isNumeric(a) && isNumeric(b) {
		c, _ := compareNumbers(a, b)
		return c == 0
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}
	if ta.Kind() == reflect.String && tb.Kind() == reflect.String {
		return reflect.ValueOf(a).String() == reflect.ValueOf(b).String()
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders two evaluated values. Nil sorts before everything else.
func Compare(a, b any) (int, error) {
	a, b = deref(a), deref(b)
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	if isNumeric(a) && isNumeric(b) {
		return compareNumbers(a, b)
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb), nil
		}
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.String && vb.Kind() == reflect.String {
		return strings.Compare(va.String(), vb.String()), nil
	}
	if va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool {
		x, y := va.Bool(), vb.Bool()
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	}
	return 0, fmt.Errorf("%w: cannot compare %T with %T", qerrors.ErrInvalidCast, a, b)
}

func compareNumbers(a, b any) (int, error) {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if isInt(va.Kind()) && isInt(vb.Kind()) {
		x, y := va.Int(), vb.Int()
		return cmpOrdered(x, y), nil
	}
	if isUint(va.Kind()) && isUint(vb.Kind()) {
		x, y := va.Uint(), vb.Uint()
		return cmpOrdered(x, y), nil
	}
	x, err := ToFloat64(a)
	if err != nil {
		return 0, err
	}
	y, err := ToFloat64(b)
	if err != nil {
		return 0, err
	}
	return cmpOrdered(x, y), nil
}

func cmpOrdered[N int64 | uint64 | float64](x, y N) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// ToFloat64 converts any numeric value to float64
func ToFloat64(v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, fmt.Errorf("%w: cannot convert null to float64", qerrors.ErrInvalidCast)
	case isInt(rv.Kind()):
		return float64(rv.Int()), nil
	case isUint(rv.Kind()):
		return float64(rv.Uint()), nil
	case isFloat(rv.Kind()):
		return rv.Float(), nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %T to float64", qerrors.ErrInvalidCast, v)
	}
}

// ToBool converts an evaluated predicate result to bool
func ToBool(v any) (bool, error) {
	rv := reflect.ValueOf(deref(v))
	if rv.IsValid() && rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}
	return false, fmt.Errorf("%w: %T is not a boolean", qerrors.ErrInvalidCast, v)
}

func arithmetic(op BinaryOp, a, b any) (any, error) {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return nil, nil
	}

	switch x := a.(type) {
	case time.Time:
		switch y := b.(type) {
		case time.Duration:
			if op == OpAdd {
				return x.Add(y), nil
			}
			if op == OpSubtract {
				return x.Add(-y), nil
			}
		case time.Time:
			if op == OpSubtract {
				return x.Sub(y), nil
			}
		}
		return nil, fmt.Errorf("%w: operator %s on %T and %T", qerrors.ErrInvalidOperator, op, a, b)
	case string:
		if op == OpAdd {
			return x + fmt.Sprint(b), nil
		}
	}
	if s, ok := b.(string); ok && op == OpAdd {
		return fmt.Sprint(a) + s, nil
	}

	if !isNumeric(a) || !isNumeric(b) {
		return nil, fmt.Errorf("%w: operator %s on %T and %T", qerrors.ErrInvalidOperator, op, a, b)
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if isInt(va.Kind()) && isInt(vb.Kind()) {
		x, y := va.Int(), vb.Int()
		var r int64
		switch op {
		case OpAdd:
			r = x + y
		case OpSubtract:
			r = x - y
		case OpMultiply:
			r = x * y
		case OpDivide, OpModulo:
			if y == 0 {
				return nil, qerrors.ErrDivideByZero
			}
			if op == OpDivide {
				r = x / y
			} else {
				r = x % y
			}
		}
		return sameType(a, b, reflect.ValueOf(r)), nil
	}

	x, _ := ToFloat64(a)
	y, _ := ToFloat64(b)
	var r float64
	switch op {
	case OpAdd:
		r = x + y
	case OpSubtract:
		r = x - y
	case OpMultiply:
		r = x * y
	case OpDivide:
		r = x / y
	case OpModulo:
		r = math.Mod(x, y)
	}
	if isFloat(va.Kind()) && va.Type() == vb.Type() {
		return sameType(a, b, reflect.ValueOf(r)), nil
	}
	return r, nil
}

// sameType converts r back to the operand type when both operands share it
func sameType(a, b any, r reflect.Value) any {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && r.CanConvert(ta) {
		return r.Convert(ta).Interface()
	}
	return r.Interface()
}

func negate(v any) (any, error) {
	rv := reflect.ValueOf(deref(v))
	switch {
	case !rv.IsValid():
		return nil, nil
	case isInt(rv.Kind()):
		return reflect.ValueOf(-rv.Int()).Convert(rv.Type()).Interface(), nil
	case isFloat(rv.Kind()):
		return reflect.ValueOf(-rv.Float()).Convert(rv.Type()).Interface(), nil
	default:
		return nil, fmt.Errorf("%w: cannot negate %T", qerrors.ErrInvalidOperator, v)
	}
}

// ConvertTo converts v to t the way an assignment between loosely typed
// values would: numbers between kinds, strings to and from numbers and times,
// pointers to and from their element type.
func ConvertTo(v any, t reflect.Type) (any, error) {
	rv, err := convertValue(v, t)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func convertValue(v any, t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.ValueOf(v), nil
	}
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type() == t || (t.Kind() == reflect.Interface && rv.Type().Implements(t)) {
		return rv, nil
	}

	if t.Kind() == reflect.Pointer && rv.Type() != t {
		ev, err := convertValue(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(ev)
		return p, nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(t), nil
		}
		return convertValue(rv.Elem().Interface(), t)
	}

	switch {
	case t == timeType && rv.Kind() == reflect.String:
		parsed, err := parseTime(rv.String())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(parsed), nil
	case t.Kind() == reflect.String && rv.Kind() != reflect.String:
		return reflect.ValueOf(fmt.Sprint(v)).Convert(t), nil
	case rv.Kind() == reflect.String && isNumericKind(t.Kind()):
		return parseNumber(rv.String(), t)
	case isNumericKind(rv.Kind()) && isNumericKind(t.Kind()):
		return rv.Convert(t), nil
	case rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind():
		return rv.Convert(t), nil
	case rv.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot convert %T to %s", qerrors.ErrInvalidCast, v, t)
}

func parseNumber(s string, t reflect.Type) (reflect.Value, error) {
	s = strings.TrimSpace(s)
	switch {
	case isInt(t.Kind()):
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", qerrors.ErrInvalidCast, err)
		}
		return reflect.ValueOf(n).Convert(t), nil
	case isUint(t.Kind()):
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", qerrors.ErrInvalidCast, err)
		}
		return reflect.ValueOf(n).Convert(t), nil
	default:
		n, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", qerrors.ErrInvalidCast, err)
		}
		return reflect.ValueOf(n).Convert(t), nil
	}
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "01/02/2006"}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a time", qerrors.ErrInvalidCast, s)
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func isNumeric(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.IsValid() && isNumericKind(rv.Kind())
}

func isNumericKind(k reflect.Kind) bool { return isInt(k) || isUint(k) || isFloat(k) }

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
