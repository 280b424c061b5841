package async

import (
	"context"
	"iter"
	"reflect"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
)

// Iterator is a synchronous pull cursor
type Iterator[T any] interface {
	// Next advances to the next element and reports whether there is one
	Next() bool
	// Value returns the current element
	Value() T
	// Err returns the fault that stopped iteration, if any
	Err() error
	// Close releases the cursor
	Close() error
}

// Enumerable produces async enumerators
type Enumerable[T any] interface {
	GetAsyncEnumerator(ctx context.Context) (*Enumerator[T], error)
}

// Enumerator adapts an Iterator to a pull-based asynchronous cursor. Every
// step completes before MoveNext returns.
type Enumerator[T any] struct {
	inner Iterator[T]
}

// NewEnumerator wraps inner. A nil iterator is rejected.
func NewEnumerator[T any](inner Iterator[T]) (*Enumerator[T], error) {
	if isNil(inner) {
		return nil, qerrors.ErrNilEnumerator
	}
	return &Enumerator[T]{inner: inner}, nil
}

// MoveNext advances the cursor. The returned future is already completed
// with whether an element is available. Cancellation is not observed.
func (e *Enumerator[T]) MoveNext(context.Context) *Future[bool] {
	if e.inner.Next() {
		return FromResult(true)
	}
	if err := e.inner.Err(); err != nil {
		return Completed(false, err)
	}
	return FromResult(false)
}

// Current returns the element the cursor is on
func (e *Enumerator[T]) Current() T { return e.inner.Value() }

// Close releases the underlying iterator
func (e *Enumerator[T]) Close() error { return e.inner.Close() }

// DisposeAsync releases the underlying iterator behind a completed future
func (e *Enumerator[T]) DisposeAsync() *Future[struct{}] {
	return Completed(struct{}{}, e.Close())
}

// ToList drains an enumerable into a slice
func ToList[T any](ctx context.Context, src Enumerable[T]) ([]T, error) {
	e, err := src.GetAsyncEnumerator(ctx)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	out := []T{}
	for {
		ok, err := e.MoveNext(ctx).Await(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, e.Current())
	}
}

// PullIterator adapts an iter.Seq2 to an Iterator via iter.Pull2
type PullIterator[T any] struct {
	next    func() (T, error, bool)
	stop    func()
	current T
	err     error
	done    bool
}

// Pull starts pulling from seq. Close must be called to release it.
func Pull[T any](seq iter.Seq2[T, error]) *PullIterator[T] {
	next, stop := iter.Pull2(seq)
	return &PullIterator[T]{next: next, stop: stop}
}

func (p *PullIterator[T]) Next() bool {
	if p.done {
		return false
	}
	v, err, ok := p.next()
	if !ok {
		p.done = true
		return false
	}
	if err != nil {
		p.err = err
		p.done = true
		p.stop()
		return false
	}
	p.current = v
	return true
}

func (p *PullIterator[T]) Value() T { return p.current }

func (p *PullIterator[T]) Err() error { return p.err }

func (p *PullIterator[T]) Close() error {
	p.done = true
	p.stop()
	return nil
}

// SliceIterator iterates a fixed slice
type SliceIterator[T any] struct {
	items []T
	pos   int
}

// FromSlice returns an iterator over items
func FromSlice[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items, pos: -1}
}

func (s *SliceIterator[T]) Next() bool {
	if s.pos+1 >= len(s.items) {
		s.pos = len(s.items)
		return false
	}
	s.pos++
	return true
}

func (s *SliceIterator[T]) Value() T {
	var zero T
	if s.pos < 0 || s.pos >= len(s.items) {
		return zero
	}
	return s.items[s.pos]
}

func (s *SliceIterator[T]) Err() error { return nil }

func (s *SliceIterator[T]) Close() error { return nil }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
