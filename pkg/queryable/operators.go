package queryable

import (
	"fmt"
	"reflect"
	"slices"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
)

// Operators returns the library of standard query operators executed trees
// are compiled against. Each operator takes the evaluated source sequence
// first, followed by its quoted lambdas and constants.
func Operators() expr.Library {
	return expr.Library{
		"Where":              opWhere,
		"Select":             opSelect,
		"OrderBy":            opOrderBy(false),
		"OrderByDescending":  opOrderBy(true),
		"ThenBy":             opThenBy(false),
		"ThenByDescending":   opThenBy(true),
		"Skip":               opSkip,
		"Take":               opTake,
		"Distinct":           opDistinct,
		"Reverse":            opReverse,
		"AsQueryable":        opPassthrough,
		"AsEnumerable":       opPassthrough,
		"ToList":             opToList,
		"ToArray":            opToList,
		"Count":              opCount(false),
		"LongCount":          opCount(true),
		"Any":                opAny,
		"All":                opAll,
		"First":              opFind(findFirst, false),
		"FirstOrDefault":     opFind(findFirst, true),
		"Last":               opFind(findLast, false),
		"LastOrDefault":      opFind(findLast, true),
		"Single":             opFind(findSingle, false),
		"SingleOrDefault":    opFind(findSingle, true),
		"ElementAt":          opElementAt(false),
		"ElementAtOrDefault": opElementAt(true),
		"Contains":           opContains,
		"Sum":                opSum,
		"Min":                opExtreme(-1),
		"Max":                opExtreme(1),
		"Average":            opAverage,
	}
}

func sequenceArg(method string, args []any) (expr.Sequence, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: %s requires a source", qerrors.ErrArgumentCount, method)
	}
	seq, err := expr.AsSequence(args[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return seq, nil
}

func callableArg(method string, args []any, i int) (expr.Callable, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%w: %s expects %d arguments", qerrors.ErrArgumentCount, method, i+1)
	}
	fn, ok := args[i].(expr.Callable)
	if !ok {
		return nil, fmt.Errorf("%w: %s argument %d is %T, not a function", qerrors.ErrInvalidCast, method, i, args[i])
	}
	return fn, nil
}

// optionalCallable returns the lambda at i or nil when the argument is absent
func optionalCallable(method string, args []any, i int) (expr.Callable, error) {
	if i >= len(args) || args[i] == nil {
		return nil, nil
	}
	return callableArg(method, args, i)
}

func intArg(method string, args []any, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: %s expects %d arguments", qerrors.ErrArgumentCount, method, i+1)
	}
	n, err := expr.ToFloat64(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}
	return int(n), nil
}

// invoke calls fn with item, passing the index too when fn takes two arguments
func invoke(fn expr.Callable, item any, index int) (any, error) {
	if fn.Arity() == 2 {
		return fn.Call(item, index)
	}
	return fn.Call(item)
}

func test(pred expr.Callable, item any, index int) (bool, error) {
	if pred == nil {
		return true, nil
	}
	v, err := invoke(pred, item, index)
	if err != nil {
		return false, err
	}
	return expr.ToBool(v)
}

func opPassthrough(args []any) (any, error) {
	seq, err := sequenceArg("AsQueryable", args)
	if err != nil {
		return nil, err
	}
	return seq, nil
}

func opWhere(args []any) (any, error) {
	src, err := sequenceArg("Where", args)
	if err != nil {
		return nil, err
	}
	pred, err := callableArg("Where", args, 1)
	if err != nil {
		return nil, err
	}
	return expr.Sequence(func(yield func(any, error) bool) {
		i := 0
		for item, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			ok, err := test(pred, item, i)
			i++
			if err != nil {
				yield(nil, err)
				return
			}
			if ok && !yield(item, nil) {
				return
			}
		}
	}), nil
}

func opSelect(args []any) (any, error) {
	src, err := sequenceArg("Select", args)
	if err != nil {
		return nil, err
	}
	proj, err := callableArg("Select", args, 1)
	if err != nil {
		return nil, err
	}
	return expr.Sequence(func(yield func(any, error) bool) {
		i := 0
		for item, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			v, err := invoke(proj, item, i)
			i++
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}), nil
}

type orderKey struct {
	fn   expr.Callable
	desc bool
}

// ordered is the result of OrderBy; ThenBy extends its keys
type ordered struct {
	src  expr.Sequence
	keys []orderKey
}

func (o *ordered) Sequence() expr.Sequence {
	return func(yield func(any, error) bool) {
		items, err := expr.Collect(o.src)
		if err != nil {
			yield(nil, err)
			return
		}

		keys := make([][]any, len(items))
		for i, item := range items {
			keys[i] = make([]any, len(o.keys))
			for k, key := range o.keys {
				v, err := key.fn.Call(item)
				if err != nil {
					yield(nil, err)
					return
				}
				keys[i][k] = v
			}
		}

		idx := make([]int, len(items))
		for i := range idx {
			idx[i] = i
		}
		var cmpErr error
		slices.SortStableFunc(idx, func(a, b int) int {
			for k, key := range o.keys {
				c, err := expr.Compare(keys[a][k], keys[b][k])
				if err != nil && cmpErr == nil {
					cmpErr = err
				}
				if key.desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
		if cmpErr != nil {
			yield(nil, cmpErr)
			return
		}

		for _, i := range idx {
			if !yield(items[i], nil) {
				return
			}
		}
	}
}

func opOrderBy(desc bool) expr.StaticMethod {
	return func(args []any) (any, error) {
		src, err := sequenceArg("OrderBy", args)
		if err != nil {
			return nil, err
		}
		key, err := callableArg("OrderBy", args, 1)
		if err != nil {
			return nil, err
		}
		return &ordered{src: src, keys: []orderKey{{fn: key, desc: desc}}}, nil
	}
}

func opThenBy(desc bool) expr.StaticMethod {
	return func(args []any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: ThenBy requires a source", qerrors.ErrArgumentCount)
		}
		prev, ok := args[0].(*ordered)
		if !ok {
			return nil, fmt.Errorf("%w: ThenBy must follow OrderBy", qerrors.ErrInvalidOperator)
		}
		key, err := callableArg("ThenBy", args, 1)
		if err != nil {
			return nil, err
		}
		keys := append(slices.Clone(prev.keys), orderKey{fn: key, desc: desc})
		return &ordered{src: prev.src, keys: keys}, nil
	}
}

func opSkip(args []any) (any, error) {
	src, err := sequenceArg("Skip", args)
	if err != nil {
		return nil, err
	}
	n, err := intArg("Skip", args, 1)
	if err != nil {
		return nil, err
	}
	return expr.Sequence(func(yield func(any, error) bool) {
		i := 0
		for item, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if i++; i <= n {
				continue
			}
			if !yield(item, nil) {
				return
			}
		}
	}), nil
}

func opTake(args []any) (any, error) {
	src, err := sequenceArg("Take", args)
	if err != nil {
		return nil, err
	}
	n, err := intArg("Take", args, 1)
	if err != nil {
		return nil, err
	}
	return expr.Sequence(func(yield func(any, error) bool) {
		if n <= 0 {
			return
		}
		i := 0
		for item, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(item, nil) {
				return
			}
			if i++; i >= n {
				return
			}
		}
	}), nil
}

func opDistinct(args []any) (any, error) {
	src, err := sequenceArg("Distinct", args)
	if err != nil {
		return nil, err
	}
	return expr.Sequence(func(yield func(any, error) bool) {
		var seen []any
		for item, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if slices.ContainsFunc(seen, func(s any) bool { return expr.Equal(s, item) }) {
				continue
			}
			seen = append(seen, item)
			if !yield(item, nil) {
				return
			}
		}
	}), nil
}

func opReverse(args []any) (any, error) {
	src, err := sequenceArg("Reverse", args)
	if err != nil {
		return nil, err
	}
	return expr.Sequence(func(yield func(any, error) bool) {
		items, err := expr.Collect(src)
		if err != nil {
			yield(nil, err)
			return
		}
		for i := len(items) - 1; i >= 0; i-- {
			if !yield(items[i], nil) {
				return
			}
		}
	}), nil
}

func opToList(args []any) (any, error) {
	src, err := sequenceArg("ToList", args)
	if err != nil {
		return nil, err
	}
	return expr.Collect(src)
}

func opCount(long bool) expr.StaticMethod {
	return func(args []any) (any, error) {
		src, err := sequenceArg("Count", args)
		if err != nil {
			return nil, err
		}
		pred, err := optionalCallable("Count", args, 1)
		if err != nil {
			return nil, err
		}
		n, i := 0, 0
		for item, err := range src {
			if err != nil {
				return nil, err
			}
			ok, err := test(pred, item, i)
			i++
			if err != nil {
				return nil, err
			}
			if ok {
				n++
			}
		}
		if long {
			return int64(n), nil
		}
		return n, nil
	}
}

func opAny(args []any) (any, error) {
	src, err := sequenceArg("Any", args)
	if err != nil {
		return nil, err
	}
	pred, err := optionalCallable("Any", args, 1)
	if err != nil {
		return nil, err
	}
	i := 0
	for item, err := range src {
		if err != nil {
			return nil, err
		}
		ok, err := test(pred, item, i)
		i++
		if err != nil {
			return nil, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func opAll(args []any) (any, error) {
	src, err := sequenceArg("All", args)
	if err != nil {
		return nil, err
	}
	pred, err := callableArg("All", args, 1)
	if err != nil {
		return nil, err
	}
	i := 0
	for item, err := range src {
		if err != nil {
			return nil, err
		}
		ok, err := test(pred, item, i)
		i++
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

type findMode int

const (
	findFirst findMode = iota
	findLast
	findSingle
)

func opFind(mode findMode, orDefault bool) expr.StaticMethod {
	return func(args []any) (any, error) {
		src, err := sequenceArg("First", args)
		if err != nil {
			return nil, err
		}
		pred, err := optionalCallable("First", args, 1)
		if err != nil {
			return nil, err
		}

		var match any
		found, i := false, 0
		for item, err := range src {
			if err != nil {
				return nil, err
			}
			ok, err := test(pred, item, i)
			i++
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if found && mode == findSingle {
				return nil, qerrors.ErrMoreThanOneElement
			}
			match, found = item, true
			if mode == findFirst {
				break
			}
		}

		if !found {
			if orDefault {
				return nil, nil
			}
			return nil, qerrors.ErrNoElements
		}
		return match, nil
	}
}

func opElementAt(orDefault bool) expr.StaticMethod {
	return func(args []any) (any, error) {
		src, err := sequenceArg("ElementAt", args)
		if err != nil {
			return nil, err
		}
		n, err := intArg("ElementAt", args, 1)
		if err != nil {
			return nil, err
		}
		if n >= 0 {
			i := 0
			for item, err := range src {
				if err != nil {
					return nil, err
				}
				if i == n {
					return item, nil
				}
				i++
			}
		}
		if orDefault {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: ElementAt(%d)", qerrors.ErrIndexOutOfRange, n)
	}
}

func opContains(args []any) (any, error) {
	src, err := sequenceArg("Contains", args)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: Contains expects a value", qerrors.ErrArgumentCount)
	}
	for item, err := range src {
		if err != nil {
			return nil, err
		}
		if expr.Equal(item, args[1]) {
			return true, nil
		}
	}
	return false, nil
}

// selected yields the values of src, projected through sel when one is given.
// Null values are skipped.
func selected(method string, args []any) (expr.Sequence, error) {
	src, err := sequenceArg(method, args)
	if err != nil {
		return nil, err
	}
	sel, err := optionalCallable(method, args, 1)
	if err != nil {
		return nil, err
	}
	return func(yield func(any, error) bool) {
		i := 0
		for item, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			v := item
			if sel != nil {
				if v, err = invoke(sel, item, i); err != nil {
					yield(nil, err)
					return
				}
			}
			i++
			if v == nil {
				continue
			}
			if !yield(v, nil) {
				return
			}
		}
	}, nil
}

func opSum(args []any) (any, error) {
	values, err := selected("Sum", args)
	if err != nil {
		return nil, err
	}
	var (
		isum    int64
		fsum    float64
		isFloat bool
	)
	for v, err := range values {
		if err != nil {
			return nil, err
		}
		f, err := expr.ToFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("Sum: %w", err)
		}
		fsum += f
		if rv := reflect.ValueOf(v); rv.CanInt() {
			isum += rv.Int()
		} else if rv.CanUint() {
			isum += int64(rv.Uint())
		} else {
			isFloat = true
		}
	}
	if isFloat {
		return fsum, nil
	}
	return isum, nil
}

func opExtreme(sign int) expr.StaticMethod {
	return func(args []any) (any, error) {
		values, err := selected("Min", args)
		if err != nil {
			return nil, err
		}
		var best any
		for v, err := range values {
			if err != nil {
				return nil, err
			}
			if best == nil {
				best = v
				continue
			}
			c, err := expr.Compare(v, best)
			if err != nil {
				return nil, err
			}
			if c*sign > 0 {
				best = v
			}
		}
		if best == nil {
			return nil, qerrors.ErrNoElements
		}
		return best, nil
	}
}

func opAverage(args []any) (any, error) {
	values, err := selected("Average", args)
	if err != nil {
		return nil, err
	}
	var sum float64
	n := 0
	for v, err := range values {
		if err != nil {
			return nil, err
		}
		f, err := expr.ToFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("Average: %w", err)
		}
		sum += f
		n++
	}
	if n == 0 {
		return nil, qerrors.ErrNoElements
	}
	return sum / float64(n), nil
}
