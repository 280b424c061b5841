package memdb

import (
	"fmt"
	"reflect"

	"github.com/pay-theory/mockqueryable/pkg/core"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

// First copies the first matching item into dest
func (q *query) First(dest any) error {
	src, err := q.paged()
	if err != nil {
		return err
	}
	item, err := src.FirstOrDefault()
	if err != nil {
		return q.wrap("First", err)
	}
	if item == nil {
		return q.wrap("First", qerrors.ErrItemNotFound)
	}
	return q.assignOne(dest, item)
}

// All copies every matching item into dest, a pointer to a slice
func (q *query) All(dest any) error {
	src, err := q.paged()
	if err != nil {
		return err
	}
	items, err := src.ToList()
	if err != nil {
		return q.wrap("All", err)
	}
	q.db.store.logger.Debug().Str("table", q.meta.TableName).Int("count", len(items)).Msg("query executed")
	return q.assignSlice(dest, items)
}

// Scan reads the table through the same filters as All
func (q *query) Scan(dest any) error {
	return q.All(dest)
}

// AllPaginated returns one page of at most Limit items, resuming after the
// query's cursor
func (q *query) AllPaginated(dest any) (*core.PaginatedResult, error) {
	src, err := q.source()
	if err != nil {
		return nil, err
	}
	if q.offset > 0 {
		src = src.Skip(q.offset)
	}
	items, err := src.ToList()
	if err != nil {
		return nil, q.wrap("AllPaginated", err)
	}

	start, err := q.resumeAt(items)
	if err != nil {
		return nil, err
	}
	page := items[start:]
	hasMore := false
	if q.limit > 0 && len(page) > q.limit {
		page, hasMore = page[:q.limit], true
	}
	if err := q.assignSlice(dest, page); err != nil {
		return nil, err
	}

	result := &core.PaginatedResult{
		Items:        reflect.ValueOf(dest).Elem().Interface(),
		Count:        len(page),
		ScannedCount: len(page),
		HasMore:      hasMore,
	}
	if hasMore {
		last, err := keyAttributes(q.meta, page[len(page)-1])
		if err != nil {
			return nil, err
		}
		result.LastEvaluatedKey = last
		direction := "asc"
		if q.orderDesc {
			direction = "desc"
		}
		if result.NextCursor, err = EncodeCursor(last, q.index, direction); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// resumeAt returns the position after the item the cursor names
func (q *query) resumeAt(items []any) (int, error) {
	c, err := DecodeCursor(q.cursor)
	if err != nil || c == nil {
		return 0, err
	}
	attrs, err := c.ToAttributeValues()
	if err != nil {
		return 0, err
	}
	want := attributesKey(attrs)
	for i, item := range items {
		have, err := keyAttributes(q.meta, item)
		if err != nil {
			return 0, err
		}
		if attributesKey(have) == want {
			return i + 1, nil
		}
	}
	// the last item of the previous page is gone
	return len(items), nil
}

// Count returns the number of matching items, ignoring offset and limit
func (q *query) Count() (int64, error) {
	src, err := q.source()
	if err != nil {
		return 0, err
	}
	n, err := src.LongCount()
	if err != nil {
		return 0, q.wrap("Count", err)
	}
	return n, nil
}

// Create stores a copy of the model. It fails with ErrConditionFailed when
// the key is taken.
func (q *query) Create() error {
	return q.write("Create", q.table.Add)
}

// CreateOrUpdate stores a copy of the model, replacing any entity with the
// same key
func (q *query) CreateOrUpdate() error {
	return q.write("CreateOrUpdate", q.table.Put)
}

func (q *query) write(op string, store func(any) error) error {
	if q.err != nil {
		return q.err
	}
	rv := reflect.ValueOf(q.model)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != q.meta.Type {
		return q.wrap(op, fmt.Errorf("%w: %s needs a *%s", qerrors.ErrInvalidModel, op, q.meta.Type))
	}
	stored := clone(rv)
	if err := q.meta.Touch(stored.Interface(), q.db.store.now()); err != nil {
		return q.wrap(op, err)
	}
	if err := store(stored.Interface()); err != nil {
		return q.wrap(op, err)
	}
	rv.Elem().Set(stored.Elem())
	return nil
}

// Update writes fields of the model to the stored entity with its key. With
// no fields every non-key attribute is written. A version field must match
// the stored version.
func (q *query) Update(fields ...string) error {
	if q.err != nil {
		return q.err
	}
	rv := reflect.Indirect(reflect.ValueOf(q.model))
	if rv.Kind() != reflect.Struct || rv.Type() != q.meta.Type {
		return q.wrap("Update", fmt.Errorf("%w: Update needs a %s", qerrors.ErrInvalidModel, q.meta.Type))
	}

	ub := q.UpdateBuilder()
	if len(fields) == 0 {
		for _, f := range q.meta.Fields {
			if f.IsPK || f.IsSK || f.IsVersion || f == q.meta.CreatedAtField || f == q.meta.UpdatedAtField {
				continue
			}
			fields = append(fields, f.Name)
		}
	}
	for _, name := range fields {
		f, ok := q.meta.Lookup(name)
		if !ok {
			return q.wrap("Update", fmt.Errorf("%w: %s on %s", qerrors.ErrMemberNotFound, name, q.meta.Type))
		}
		ub.Set(f.Name, rv.FieldByIndex(f.Index).Interface())
	}
	if v := q.meta.VersionField; v != nil {
		ub.ConditionVersion(versionOf(rv.FieldByIndex(v.Index)))
	}
	if reflect.ValueOf(q.model).Kind() == reflect.Pointer {
		return ub.ExecuteWithResult(q.model)
	}
	return ub.Execute()
}

// Delete removes the entity with the model's key, or every entity matching
// the query's conditions
func (q *query) Delete() error {
	pred, err := q.target()
	if err != nil {
		return err
	}
	if err := q.ready(); err != nil {
		return err
	}
	n, err := q.scoped(pred).ExecuteDelete()
	if err != nil {
		return q.wrap("Delete", err)
	}
	q.db.store.logger.Debug().Str("table", q.meta.TableName).Int("count", n).Msg("deleted")
	return nil
}

// BatchGet copies the entities with keys into dest, skipping missing keys.
// A key is a partition key value, a []any of partition and sort key values,
// or a model carrying its key.
func (q *query) BatchGet(keys []any, dest any) error {
	if q.err != nil {
		return q.err
	}
	var found []any
	for _, key := range keys {
		values, err := q.keyValues(key)
		if err != nil {
			return q.wrap("BatchGet", err)
		}
		item, ok, err := q.table.Find(values...)
		if err != nil {
			return q.wrap("BatchGet", err)
		}
		if ok {
			found = append(found, item)
		}
	}
	return q.assignSlice(dest, found)
}

func (q *query) keyValues(key any) ([]any, error) {
	if modelType(key) == q.meta.Type {
		return q.meta.KeyValues(key)
	}
	if composite, ok := key.([]any); ok {
		return composite, nil
	}
	return []any{key}, nil
}

// BatchCreate creates every element of items, a slice of models or model
// pointers
func (q *query) BatchCreate(items any) error {
	if q.err != nil {
		return q.err
	}
	rv := reflect.ValueOf(items)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice {
		return q.wrap("BatchCreate", fmt.Errorf("%w: BatchCreate needs a slice, got %T", qerrors.ErrInvalidModel, items))
	}
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		if elem.Kind() != reflect.Pointer {
			elem = elem.Addr()
		}
		if err := q.db.Model(elem.Interface()).WithContext(q.ctx).Create(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// scoped returns a query over the whole table restricted to pred
func (q *query) scoped(pred expr.Expr) *queryable.Queryable[any] {
	return q.queryable().Where(expr.Lambda(pred, q.param))
}

func (q *query) wrap(op string, err error) error {
	return qerrors.NewError(op, q.meta.TableName, err)
}

func (q *query) assignOne(dest any, item any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("%w: destination must be a non-nil pointer, got %T", qerrors.ErrInvalidCast, dest)
	}
	out := q.project(reflect.ValueOf(item))
	target := dv.Elem()
	switch {
	case target.Type() == q.meta.Type:
		target.Set(out.Elem())
	case target.Type() == out.Type():
		target.Set(out)
	default:
		return fmt.Errorf("%w: cannot copy %s into %s", qerrors.ErrInvalidCast, q.meta.Type, target.Type())
	}
	return nil
}

func (q *query) assignSlice(dest any, items []any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("%w: destination must be a pointer to a slice, got %T", qerrors.ErrInvalidCast, dest)
	}
	slice := dv.Elem()
	elemType := slice.Type().Elem()
	byValue := elemType == q.meta.Type
	if !byValue && elemType != reflect.PointerTo(q.meta.Type) {
		return fmt.Errorf("%w: cannot copy %s into %s", qerrors.ErrInvalidCast, q.meta.Type, slice.Type())
	}

	out := reflect.MakeSlice(slice.Type(), 0, len(items))
	for _, item := range items {
		v := q.project(reflect.ValueOf(item))
		if byValue {
			v = v.Elem()
		}
		out = reflect.Append(out, v)
	}
	slice.Set(out)
	return nil
}

// project copies a stored entity, keeping only the selected fields when the
// query has a projection
func (q *query) project(stored reflect.Value) reflect.Value {
	if len(q.projection) == 0 {
		return clone(stored)
	}
	out := reflect.New(q.meta.Type)
	for _, name := range q.projection {
		f := q.meta.ByName[name]
		out.Elem().FieldByIndex(f.Index).Set(stored.Elem().FieldByIndex(f.Index))
	}
	return out
}

func versionOf(v reflect.Value) int64 {
	if v.CanInt() {
		return v.Int()
	}
	return int64(v.Uint())
}

// clone returns a pointer to a shallow copy of the struct ptr points to
func clone(ptr reflect.Value) reflect.Value {
	out := reflect.New(ptr.Elem().Type())
	out.Elem().Set(ptr.Elem())
	return out
}
