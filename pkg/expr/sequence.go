package expr

import (
	"fmt"
	"iter"
	"reflect"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
)

// Sequence is the evaluated form of a query: a re-iterable stream of
// elements, each paired with the fault that stopped it, if any.
type Sequence = iter.Seq2[any, error]

// Sequencer is implemented by constants that can be read as a Sequence
type Sequencer interface {
	Sequence() Sequence
}

// AsSequence adapts an evaluated value to a Sequence
func AsSequence(v any) (Sequence, error) {
	switch s := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: sequence is null", qerrors.ErrNilReference)
	case Sequence:
		return s, nil
	case func(func(any, error) bool):
		return s, nil
	case Sequencer:
		return s.Sequence(), nil
	case []any:
		return SliceSequence(s), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && (rv.Elem().Kind() == reflect.Slice || rv.Elem().Kind() == reflect.Array) {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return func(yield func(any, error) bool) {
			for i := 0; i < rv.Len(); i++ {
				if !yield(rv.Index(i).Interface(), nil) {
					return
				}
			}
		}, nil
	}
	return nil, fmt.Errorf("%w: %T is not a sequence", qerrors.ErrInvalidCast, v)
}

// SliceSequence iterates items
func SliceSequence(items []any) Sequence {
	return func(yield func(any, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Collect drains s, stopping at the first fault
func Collect(s Sequence) ([]any, error) {
	out := []any{}
	for v, err := range s {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Failed is a sequence that yields err and stops
func Failed(err error) Sequence {
	return func(yield func(any, error) bool) {
		yield(nil, err)
	}
}
