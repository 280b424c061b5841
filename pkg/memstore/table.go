// Package memstore keeps entities in a go-memdb table so entity sets can be
// backed by keyed, insertion-ordered storage instead of a bare slice.
package memstore

import (
	"fmt"
	"iter"
	"reflect"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"
	"github.com/rs/zerolog"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/model"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

const (
	indexID  = "id"
	indexSeq = "seq"
)

type record[T any] struct {
	key  string
	seq  uint64
	item T
}

// Table is a keyed in-memory entity store
type Table[T any] struct {
	db     *memdb.MemDB
	name   string
	meta   *model.Metadata
	seq    atomic.Uint64
	logger zerolog.Logger
}

// Option configures a Table
type Option func(*options)

type options struct {
	registry *model.Registry
	logger   zerolog.Logger
}

// WithRegistry resolves entity metadata from r instead of the default registry
func WithRegistry(r *model.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger table writes are reported to
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewTable creates an empty table for T, keyed by T's primary key
func NewTable[T any](opts ...Option) (*Table[T], error) {
	return newTable[T](reflect.TypeFor[T](), opts)
}

// NewTableOf creates an untyped table for entities of type t. Entities are
// added and yielded as any.
func NewTableOf(t reflect.Type, opts ...Option) (*Table[any], error) {
	return newTable[any](t, opts)
}

func newTable[T any](t reflect.Type, opts []Option) (*Table[T], error) {
	o := &options{registry: model.Default(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}

	meta, err := o.registry.Lookup(t)
	if err != nil {
		return nil, err
	}

	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			meta.TableName: {
				Name: meta.TableName,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "key"},
					},
					indexSeq: {
						Name:    indexSeq,
						Unique:  true,
						Indexer: &memdb.UintFieldIndex{Field: "seq"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("unable to create table %s: %w", meta.TableName, err)
	}
	return &Table[T]{db: db, name: meta.TableName, meta: meta, logger: o.logger}, nil
}

// Seed creates a table holding items
func Seed[T any](items []T, opts ...Option) (*Table[T], error) {
	t, err := NewTable[T](opts...)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := t.Add(item); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Name returns the table name
func (t *Table[T]) Name() string { return t.name }

// Metadata returns the entity metadata the table keys on
func (t *Table[T]) Metadata() *model.Metadata { return t.meta }

// Enumerate yields entities in insertion order. Each call reads the table as
// it is at that moment.
func (t *Table[T]) Enumerate() iter.Seq[T] {
	return func(yield func(T) bool) {
		txn := t.db.Txn(false)
		defer txn.Abort()

		it, err := txn.LowerBound(t.name, indexSeq, uint64(0))
		if err != nil {
			t.logger.Error().Err(err).Str("table", t.name).Msg("unable to scan table")
			return
		}
		for raw := it.Next(); raw != nil; raw = it.Next() {
			if !yield(raw.(*record[T]).item) {
				return
			}
		}
	}
}

// Len returns the number of stored entities
func (t *Table[T]) Len() int {
	n := 0
	for range t.Enumerate() {
		n++
	}
	return n
}

// Add inserts item. It fails with ErrConditionFailed if an entity with the
// same key is already stored.
func (t *Table[T]) Add(item T) error {
	key, err := t.meta.EntityKey(item)
	if err != nil {
		return err
	}

	txn := t.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(t.name, indexID, key)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s %s already exists", qerrors.ErrConditionFailed, t.name, key)
	}
	if err := txn.Insert(t.name, &record[T]{key: key, seq: t.seq.Add(1), item: item}); err != nil {
		return err
	}
	txn.Commit()

	t.logger.Trace().Str("table", t.name).Str("key", key).Msg("added entity")
	return nil
}

// Put inserts item or replaces the entity stored under the same key, keeping
// its position
func (t *Table[T]) Put(item T) error {
	key, err := t.meta.EntityKey(item)
	if err != nil {
		return err
	}

	txn := t.db.Txn(true)
	defer txn.Abort()

	var seq uint64
	existing, err := txn.First(t.name, indexID, key)
	if err != nil {
		return err
	}
	if existing != nil {
		seq = existing.(*record[T]).seq
	} else {
		seq = t.seq.Add(1)
	}
	if err := txn.Insert(t.name, &record[T]{key: key, seq: seq, item: item}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Remove deletes the entity stored under item's key. Missing entities are ignored.
func (t *Table[T]) Remove(item T) error {
	key, err := t.meta.EntityKey(item)
	if err != nil {
		return err
	}
	return t.RemoveKey(key)
}

// RemoveKey deletes the entity stored under key
func (t *Table[T]) RemoveKey(key string) error {
	txn := t.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(t.name, indexID, key)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if err := txn.Delete(t.name, existing); err != nil {
		return err
	}
	txn.Commit()

	t.logger.Trace().Str("table", t.name).Str("key", key).Msg("removed entity")
	return nil
}

// Clear removes every entity
func (t *Table[T]) Clear() error {
	txn := t.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(t.name, indexID+"_prefix", ""); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Find returns the entity whose primary key values are keys
func (t *Table[T]) Find(keys ...any) (T, bool, error) {
	var zero T
	if len(keys) == 0 {
		return zero, false, fmt.Errorf("%w: no key values given", qerrors.ErrArgumentCount)
	}

	txn := t.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(t.name, indexID, model.Key(keys...))
	if err != nil {
		return zero, false, err
	}
	if raw == nil {
		return zero, false, nil
	}
	return raw.(*record[T]).item, true, nil
}

// Queryable returns a query over the table whose bulk deletes remove entities
func (t *Table[T]) Queryable(opts ...queryable.Option) *queryable.Queryable[T] {
	remove := queryable.WithRemoveFunc(func(item T) {
		if err := t.Remove(item); err != nil {
			t.logger.Error().Err(err).Str("table", t.name).Msg("unable to remove entity")
		}
	})
	return queryable.New[T](t, append([]queryable.Option{remove}, opts...)...)
}
