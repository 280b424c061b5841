// Package memdb implements core.DB over in-memory tables. Queries built with
// the core.Query interface are translated to expression trees and executed
// by the queryable engine, so production code written against core.DB can
// be tested without DynamoDB.
package memdb

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pay-theory/mockqueryable/pkg/core"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/memstore"
	"github.com/pay-theory/mockqueryable/pkg/model"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

// DB is an in-memory core.DB. Copies made by WithContext share its tables.
type DB struct {
	store *store
	ctx   context.Context
}

type store struct {
	mu       sync.Mutex
	tables   map[reflect.Type]*memstore.Table[any]
	registry *model.Registry
	logger   zerolog.Logger
	now      func() time.Time
	qopts    []queryable.Option
}

var _ core.DB = (*DB)(nil)

// Option configures a DB
type Option func(*store)

// WithRegistry resolves model metadata from r
func WithRegistry(r *model.Registry) Option {
	return func(s *store) { s.registry = r }
}

// WithLogger sets the logger queries and writes are reported to
func WithLogger(logger zerolog.Logger) Option {
	return func(s *store) { s.logger = logger }
}

// WithClock sets the time source for created_at and updated_at fields
func WithClock(now func() time.Time) Option {
	return func(s *store) { s.now = now }
}

// WithQueryOptions passes options to every queryable the DB executes through
func WithQueryOptions(opts ...queryable.Option) Option {
	return func(s *store) { s.qopts = append(s.qopts, opts...) }
}

// New creates an empty database
func New(opts ...Option) *DB {
	s := &store{
		tables:   make(map[reflect.Type]*memstore.Table[any]),
		registry: model.Default(),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return &DB{store: s, ctx: context.Background()}
}

// Model returns a query over the table of m's type. m may be a struct, a
// pointer to one, or a pointer to a slice of them.
func (db *DB) Model(m any) core.Query {
	q := &query{db: db, ctx: db.ctx, model: m, param: newParam()}
	q.table, q.err = db.table(modelType(m))
	if q.err == nil {
		q.meta = q.table.Metadata()
	}
	return q
}

// AutoMigrate creates the tables of models
func (db *DB) AutoMigrate(models ...any) error {
	for _, m := range models {
		if _, err := db.table(modelType(m)); err != nil {
			return err
		}
	}
	return nil
}

// Transaction runs fn. When fn fails every table is restored to the state
// it had when the transaction started.
func (db *DB) Transaction(fn func(tx *core.Tx) error) error {
	snap := db.snapshot()
	if err := fn(core.NewTx(db)); err != nil {
		if rerr := snap.restore(); rerr != nil {
			return fmt.Errorf("transaction failed: %w (rollback failed: %v)", err, rerr)
		}
		db.store.logger.Debug().Err(err).Msg("transaction rolled back")
		return err
	}
	return nil
}

// Close is a no-op
func (db *DB) Close() error { return nil }

// WithContext returns a DB whose queries carry ctx
func (db *DB) WithContext(ctx context.Context) core.DB {
	return &DB{store: db.store, ctx: ctx}
}

// Table returns the untyped table backing models of m's type
func (db *DB) Table(m any) (*memstore.Table[any], error) {
	return db.table(modelType(m))
}

func (db *DB) table(t reflect.Type) (*memstore.Table[any], error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil model", qerrors.ErrInvalidModel)
	}
	s := db.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if table, ok := s.tables[t]; ok {
		return table, nil
	}
	table, err := memstore.NewTableOf(t, memstore.WithRegistry(s.registry), memstore.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.tables[t] = table
	s.logger.Debug().Str("table", table.Name()).Msg("created table")
	return table, nil
}

// modelType resolves the struct type behind m
func modelType(m any) reflect.Type {
	t := reflect.TypeOf(m)
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = t.Elem()
	}
	return t
}

// snapshot records the members of every table and a shallow copy of each
// member's fields
type snapshot struct {
	db     *DB
	tables map[*memstore.Table[any]][]saved
}

type saved struct {
	item  any
	value reflect.Value
}

func (db *DB) snapshot() *snapshot {
	s := db.store
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &snapshot{db: db, tables: make(map[*memstore.Table[any]][]saved, len(s.tables))}
	for _, table := range s.tables {
		var items []saved
		for item := range table.Enumerate() {
			rv := reflect.ValueOf(item).Elem()
			cp := reflect.New(rv.Type()).Elem()
			cp.Set(rv)
			items = append(items, saved{item: item, value: cp})
		}
		snap.tables[table] = items
	}
	return snap
}

func (s *snapshot) restore() error {
	st := s.db.store
	st.mu.Lock()
	tables := make([]*memstore.Table[any], 0, len(st.tables))
	for _, table := range st.tables {
		tables = append(tables, table)
	}
	st.mu.Unlock()

	// tables created inside the transaction have no saved items and end up empty
	for _, table := range tables {
		if err := table.Clear(); err != nil {
			return err
		}
		for _, it := range s.tables[table] {
			reflect.ValueOf(it.item).Elem().Set(it.value)
			if err := table.Add(it.item); err != nil {
				return err
			}
		}
	}
	return nil
}
