package expr

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/naming"
)

// MemberValue reads name from v: a struct field by Go name or attribute name,
// Length of strings and collections, Date of a time, or a zero-argument method.
func MemberValue(v any, name string) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: reading %s", qerrors.ErrNilReference, name)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if m, ok := methodByName(rv, name); ok && m.Type().NumIn() == 0 && m.Type().NumOut() > 0 {
			return callReflect(m, nil)
		}
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: reading %s", qerrors.ErrNilReference, name)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if t, ok := rv.Interface().(time.Time); ok && name == "Date" {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), nil
		}
		if f, ok := FieldByName(rv, name); ok {
			return f.Interface(), nil
		}
	case reflect.String:
		if name == "Length" {
			return utf8.RuneCountInString(rv.String()), nil
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		if name == "Length" || name == "Count" {
			return rv.Len(), nil
		}
	}

	if m, ok := methodByName(rv, name); ok && m.Type().NumIn() == 0 && m.Type().NumOut() > 0 {
		return callReflect(m, nil)
	}
	return nil, fmt.Errorf("%w: %s on %s", qerrors.ErrMemberNotFound, name, rv.Type())
}

// FieldByName finds an exported field of a struct value by Go name, falling
// back to the DynamORM attribute name.
func FieldByName(rv reflect.Value, name string) (reflect.Value, bool) {
	sf, ok := naming.FieldForAttr(rv.Type(), name)
	if !ok {
		return reflect.Value{}, false
	}
	f, err := rv.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, false
	}
	return f, true
}

// SetMember assigns value to the named field of the struct pointed to by target
func SetMember(target any, name string, value any) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() {
		return fmt.Errorf("%w: assigning %s", qerrors.ErrNilReference, name)
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return fmt.Errorf("%w: assigning %s", qerrors.ErrNilReference, name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s has no member %s", qerrors.ErrMemberNotFound, rv.Type(), name)
	}
	f, ok := FieldByName(rv, name)
	if !ok {
		return fmt.Errorf("%w: %s on %s", qerrors.ErrMemberNotFound, name, rv.Type())
	}
	if !f.CanSet() {
		return fmt.Errorf("%w: %s.%s", qerrors.ErrUnaddressable, rv.Type(), name)
	}
	cv, err := convertValue(value, f.Type())
	if err != nil {
		return fmt.Errorf("assigning %s: %w", name, err)
	}
	f.Set(cv)
	return nil
}

func methodByName(rv reflect.Value, name string) (reflect.Value, bool) {
	m := rv.MethodByName(name)
	if m.IsValid() {
		return m, true
	}
	if rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Interface {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		m = p.MethodByName(name)
		return m, m.IsValid()
	}
	return reflect.Value{}, false
}

// callMethod invokes an instance method on an evaluated receiver
func callMethod(obj any, method string, args []any) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: calling %s", qerrors.ErrNilReference, method)
	}

	switch o := obj.(type) {
	case string:
		if r, ok, err := stringMethod(o, method, args); ok {
			return r, err
		}
	case time.Time:
		if r, ok, err := timeMethod(o, method, args); ok {
			return r, err
		}
	case Callable:
		if method == "Invoke" {
			return o.Call(args...)
		}
	}

	rv := reflect.ValueOf(obj)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && method == "Contains" && len(args) == 1 {
		for i := 0; i < rv.Len(); i++ {
			if Equal(rv.Index(i).Interface(), args[0]) {
				return true, nil
			}
		}
		return false, nil
	}

	if m, ok := methodByName(rv, method); ok {
		return callReflect(m, args)
	}
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return callMethod(rv.Elem().Interface(), method, args)
	}
	return nil, fmt.Errorf("%w: %s on %T", qerrors.ErrMemberNotFound, method, obj)
}

func stringMethod(s, method string, args []any) (any, bool, error) {
	str := func(i int) (string, error) {
		if i >= len(args) {
			return "", fmt.Errorf("%w: %s expects %d arguments", qerrors.ErrArgumentCount, method, i+1)
		}
		v, err := ConvertTo(args[i], reflect.TypeFor[string]())
		if err != nil {
			return "", err
		}
		return v.(string), nil
	}
	integer := func(i int) (int, error) {
		if i >= len(args) {
			return 0, fmt.Errorf("%w: %s expects %d arguments", qerrors.ErrArgumentCount, method, i+1)
		}
		v, err := ConvertTo(args[i], reflect.TypeFor[int]())
		if err != nil {
			return 0, err
		}
		return v.(int), nil
	}

	switch method {
	case "ToLower", "ToLowerInvariant":
		return cases.Lower(language.Und).String(s), true, nil
	case "ToUpper", "ToUpperInvariant":
		return cases.Upper(language.Und).String(s), true, nil
	case "Trim", "TrimStart", "TrimEnd":
		if len(args) == 0 {
			switch method {
			case "TrimStart":
				return strings.TrimLeft(s, " \t\r\n"), true, nil
			case "TrimEnd":
				return strings.TrimRight(s, " \t\r\n"), true, nil
			}
			return strings.TrimSpace(s), true, nil
		}
		cutset, err := str(0)
		if err != nil {
			return nil, true, err
		}
		switch method {
		case "TrimStart":
			return strings.TrimLeft(s, cutset), true, nil
		case "TrimEnd":
			return strings.TrimRight(s, cutset), true, nil
		}
		return strings.Trim(s, cutset), true, nil
	case "Contains", "StartsWith", "EndsWith", "Equals", "IndexOf":
		sub, err := str(0)
		if err != nil {
			return nil, true, err
		}
		switch method {
		case "Contains":
			return strings.Contains(s, sub), true, nil
		case "StartsWith":
			return strings.HasPrefix(s, sub), true, nil
		case "EndsWith":
			return strings.HasSuffix(s, sub), true, nil
		case "Equals":
			return s == sub, true, nil
		}
		i := strings.Index(s, sub)
		if i < 0 {
			return -1, true, nil
		}
		return utf8.RuneCountInString(s[:i]), true, nil
	case "Replace":
		old, err := str(0)
		if err != nil {
			return nil, true, err
		}
		repl, err := str(1)
		if err != nil {
			return nil, true, err
		}
		return strings.ReplaceAll(s, old, repl), true, nil
	case "Substring":
		start, err := integer(0)
		if err != nil {
			return nil, true, err
		}
		runes := []rune(s)
		end := len(runes)
		if len(args) > 1 {
			n, err := integer(1)
			if err != nil {
				return nil, true, err
			}
			end = start + n
		}
		if start < 0 || start > end || end > len(runes) {
			return nil, true, fmt.Errorf("%w: Substring(%d) of %q", qerrors.ErrIndexOutOfRange, start, s)
		}
		return string(runes[start:end]), true, nil
	}
	return nil, false, nil
}

func timeMethod(t time.Time, method string, args []any) (any, bool, error) {
	switch method {
	case "AddYears", "AddMonths", "AddDays", "AddHours", "AddMinutes", "AddSeconds":
	default:
		return nil, false, nil
	}
	if len(args) != 1 {
		return nil, true, fmt.Errorf("%w: %s expects 1 argument", qerrors.ErrArgumentCount, method)
	}
	n, err := ToFloat64(args[0])
	if err != nil {
		return nil, true, err
	}
	switch method {
	case "AddYears":
		return t.AddDate(int(n), 0, 0), true, nil
	case "AddMonths":
		return t.AddDate(0, int(n), 0), true, nil
	case "AddDays":
		return t.Add(time.Duration(n * float64(24*time.Hour))), true, nil
	case "AddHours":
		return t.Add(time.Duration(n * float64(time.Hour))), true, nil
	case "AddMinutes":
		return t.Add(time.Duration(n * float64(time.Minute))), true, nil
	case "AddSeconds":
		return t.Add(time.Duration(n * float64(time.Second))), true, nil
	}
	return nil, false, nil
}
