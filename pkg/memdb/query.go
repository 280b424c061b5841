package memdb

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/pay-theory/mockqueryable/pkg/core"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/memstore"
	"github.com/pay-theory/mockqueryable/pkg/model"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
	"github.com/pay-theory/mockqueryable/pkg/validation"
)

// query is a core.Query over one table. Builder methods record state and
// the terminal methods translate it into a queryable expression tree.
type query struct {
	db    *DB
	ctx   context.Context
	model any
	table *memstore.Table[any]
	meta  *model.Metadata
	param *expr.Parameter
	err   error

	keyCond    expr.Expr
	filter     expr.Expr
	index      string
	orderField string
	orderDesc  bool
	limit      int
	offset     int
	projection []string
	cursor     string
}

var _ core.Query = (*query)(nil)

func (q *query) fail(err error) core.Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

func (q *query) condition(field, op string, value any) (expr.Expr, bool) {
	if q.err != nil {
		return nil, false
	}
	c, err := condition(q.meta, q.param, field, op, value)
	if err != nil {
		q.fail(err)
		return nil, false
	}
	return c, true
}

// Where adds a key condition
func (q *query) Where(field string, op string, value any) core.Query {
	if c, ok := q.condition(field, op, value); ok {
		q.keyCond = expr.AllOf(q.keyCond, c)
	}
	return q
}

// Index records the index the query reads. Every index sees the whole table.
func (q *query) Index(indexName string) core.Query {
	if err := validation.IndexName(indexName); err != nil {
		return q.fail(err)
	}
	q.index = indexName
	return q
}

// Filter adds a condition joined to the previous filters with AND
func (q *query) Filter(field string, op string, value any) core.Query {
	if c, ok := q.condition(field, op, value); ok {
		q.filter = expr.AllOf(q.filter, c)
	}
	return q
}

// OrFilter adds a condition joined to the previous filters with OR
func (q *query) OrFilter(field string, op string, value any) core.Query {
	if c, ok := q.condition(field, op, value); ok {
		q.filter = expr.AnyOf(q.filter, c)
	}
	return q
}

// FilterGroup adds the conditions fn builds as one parenthesized AND term
func (q *query) FilterGroup(fn func(core.Query)) core.Query {
	if pred, ok := q.group(fn); ok {
		q.filter = expr.AllOf(q.filter, pred)
	}
	return q
}

// OrFilterGroup adds the conditions fn builds as one parenthesized OR term
func (q *query) OrFilterGroup(fn func(core.Query)) core.Query {
	if pred, ok := q.group(fn); ok {
		q.filter = expr.AnyOf(q.filter, pred)
	}
	return q
}

func (q *query) group(fn func(core.Query)) (expr.Expr, bool) {
	if q.err != nil {
		return nil, false
	}
	sub := &query{db: q.db, ctx: q.ctx, model: q.model, table: q.table, meta: q.meta, param: q.param}
	fn(sub)
	if sub.err != nil {
		q.fail(sub.err)
		return nil, false
	}
	pred := sub.predicate()
	return pred, pred != nil
}

// OrderBy sorts by field; order is "asc" or "desc"
func (q *query) OrderBy(field string, order string) core.Query {
	if q.err != nil {
		return q
	}
	f, ok := q.meta.Lookup(field)
	if !ok {
		return q.fail(fmt.Errorf("%w: %s on %s", qerrors.ErrMemberNotFound, field, q.meta.Type))
	}
	q.orderField = f.Name
	q.orderDesc = strings.EqualFold(order, "desc")
	return q
}

// Limit caps the number of returned items
func (q *query) Limit(limit int) core.Query {
	q.limit = limit
	return q
}

// Offset skips the first offset items
func (q *query) Offset(offset int) core.Query {
	q.offset = offset
	return q
}

// Select copies only fields into destinations
func (q *query) Select(fields ...string) core.Query {
	for _, name := range fields {
		if q.err != nil {
			break
		}
		f, ok := q.meta.Lookup(name)
		if !ok {
			q.fail(fmt.Errorf("%w: %s on %s", qerrors.ErrMemberNotFound, name, q.meta.Type))
			break
		}
		q.projection = append(q.projection, f.Name)
	}
	return q
}

// Cursor resumes AllPaginated after the page cursor ended
func (q *query) Cursor(cursor string) core.Query {
	if err := q.SetCursor(cursor); err != nil {
		q.fail(err)
	}
	return q
}

// SetCursor validates and records cursor
func (q *query) SetCursor(cursor string) error {
	if _, err := DecodeCursor(cursor); err != nil {
		return err
	}
	q.cursor = cursor
	return nil
}

// WithContext sets the context checked before the query runs
func (q *query) WithContext(ctx context.Context) core.Query {
	q.ctx = ctx
	return q
}

func (q *query) predicate() expr.Expr {
	return expr.AllOf(q.keyCond, q.filter)
}

// ready reports a recorded builder error or a done context
func (q *query) ready() error {
	if q.err != nil {
		return q.err
	}
	if q.ctx != nil {
		return q.ctx.Err()
	}
	return nil
}

// queryable returns an unfiltered query over the table
func (q *query) queryable() *queryable.Queryable[any] {
	s := q.db.store
	opts := append([]queryable.Option{queryable.WithLogger(s.logger)}, s.qopts...)
	return q.table.Queryable(opts...)
}

// source returns the filtered and ordered query without offset or limit
func (q *query) source() (*queryable.Queryable[any], error) {
	if err := q.ready(); err != nil {
		return nil, err
	}
	src := q.queryable()
	if pred := q.predicate(); pred != nil {
		src = src.Where(expr.Lambda(pred, q.param))
	}
	if q.orderField != "" {
		src = src.OrderByField(q.orderField, q.orderDesc)
	}
	return src, nil
}

// paged applies offset and limit to source
func (q *query) paged() (*queryable.Queryable[any], error) {
	src, err := q.source()
	if err != nil {
		return nil, err
	}
	if q.offset > 0 {
		src = src.Skip(q.offset)
	}
	if q.limit > 0 {
		src = src.Take(q.limit)
	}
	return src, nil
}

// modelKey returns the predicate matching the stored entity with q.model's
// primary key, or nil when the model's partition key is unset
func (q *query) modelKey() (expr.Expr, error) {
	if q.model == nil || modelType(q.model) != q.meta.Type || reflect.TypeOf(q.model).Kind() == reflect.Slice {
		return nil, nil
	}
	rv := reflect.Indirect(reflect.ValueOf(q.model))
	if rv.Kind() != reflect.Struct || rv.FieldByIndex(q.meta.PartitionKey.Index).IsZero() {
		return nil, nil
	}
	keys, err := q.meta.KeyValues(q.model)
	if err != nil {
		return nil, err
	}
	return keyPredicate(q.meta, q.param, keys), nil
}

func keyPredicate(meta *model.Metadata, param *expr.Parameter, keys []any) expr.Expr {
	pred := expr.Expr(expr.Eq(expr.Field(param, meta.PartitionKey.Name), expr.Const(keys[0])))
	if meta.SortKey != nil && len(keys) > 1 {
		pred = expr.And(pred, expr.Eq(expr.Field(param, meta.SortKey.Name), expr.Const(keys[1])))
	}
	return pred
}

// target returns the predicate selecting the entities a write applies to
func (q *query) target() (expr.Expr, error) {
	if q.err != nil {
		return nil, q.err
	}
	key, err := q.modelKey()
	if err != nil {
		return nil, err
	}
	pred := expr.AllOf(key, q.predicate())
	if pred == nil {
		return nil, fmt.Errorf("%w: no key value or condition selects the %s to write", qerrors.ErrMissingPrimaryKey, q.meta.TableName)
	}
	return pred, nil
}
