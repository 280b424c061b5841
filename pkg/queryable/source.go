package queryable

import (
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/pay-theory/mockqueryable/pkg/expr"
)

// Source is the backing sequence a query chain reads from. Enumerate is
// called once per terminal operation, so sources must reflect their live
// contents on every call.
type Source[T any] interface {
	Enumerate() iter.Seq[T]
}

// Adder is implemented by sources that accept new entities
type Adder[T any] interface {
	Add(item T) error
}

// Remover is implemented by sources that can remove an entity
type Remover[T any] interface {
	Remove(item T) error
}

// Slice is a Source over a caller-owned slice. The slice is read through the
// pointer on every enumeration, so appends made by the caller are observed.
type Slice[T any] struct {
	items *[]T
}

// NewSlice wraps items. A nil pointer is treated as an empty slice.
func NewSlice[T any](items *[]T) *Slice[T] {
	if items == nil {
		items = &[]T{}
	}
	return &Slice[T]{items: items}
}

func (s *Slice[T]) Enumerate() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range *s.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Add appends item to the backing slice
func (s *Slice[T]) Add(item T) error {
	*s.items = append(*s.items, item)
	return nil
}

// Remove deletes the first element identical to item
func (s *Slice[T]) Remove(item T) error {
	i := slices.IndexFunc(*s.items, func(x T) bool { return same(x, item) })
	if i >= 0 {
		*s.items = slices.Delete(*s.items, i, i+1)
	}
	return nil
}

// Len returns the current length of the backing slice
func (s *Slice[T]) Len() int { return len(*s.items) }

// Seq is a Source over an iter.Seq. Each enumeration re-runs the sequence.
type Seq[T any] struct {
	seq iter.Seq[T]
}

// NewSeq wraps seq
func NewSeq[T any](seq iter.Seq[T]) *Seq[T] {
	if seq == nil {
		seq = func(func(T) bool) {}
	}
	return &Seq[T]{seq: seq}
}

func (s *Seq[T]) Enumerate() iter.Seq[T] { return s.seq }

// SliceRemover returns a removal callback deleting elements from items
func SliceRemover[T any](items *[]T) func(T) {
	s := NewSlice(items)
	return func(item T) { _ = s.Remove(item) }
}

// root is the constant at the bottom of every tree
type root[T any] struct {
	source Source[T]
}

func (r root[T]) Sequence() expr.Sequence {
	return func(yield func(any, error) bool) {
		for item := range r.source.Enumerate() {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (r root[T]) Describe() string {
	name := "Source"
	switch r.source.(type) {
	case *Slice[T]:
		name = "Slice"
	case *Seq[T]:
		name = "Seq"
	}
	return fmt.Sprintf("%s[%s]", name, reflect.TypeFor[T]())
}

// SourceOf returns the backing sequence at the bottom of q's tree, if any
func SourceOf[T any](q *Queryable[T]) (Source[T], bool) {
	var found Source[T]
	expr.Walk(q.expression, func(e expr.Expr) bool {
		if c, ok := e.(*expr.Constant); ok {
			if r, ok := c.Value.(root[T]); ok {
				found = r.source
				return false
			}
		}
		return found == nil
	})
	return found, found != nil
}

// same reports identity for pointers and value equality otherwise
func same[T any](a, b T) bool {
	ra := reflect.ValueOf(a)
	if ra.IsValid() && ra.Comparable() {
		return any(a) == any(b)
	}
	return reflect.DeepEqual(a, b)
}
