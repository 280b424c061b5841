package memdb

import (
	"fmt"
	"reflect"

	"github.com/pay-theory/mockqueryable/pkg/core"
	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

// UpdateBuilder collects field assignments and conditions and applies them
// as one bulk update over the query's target
type UpdateBuilder struct {
	query      *query
	setters    []queryable.Assignment
	conditions []expr.Expr
	err        error
}

var _ core.UpdateBuilder = (*UpdateBuilder)(nil)

// UpdateBuilder returns a builder for the entity the query targets
func (q *query) UpdateBuilder() core.UpdateBuilder {
	return &UpdateBuilder{query: q}
}

func (ub *UpdateBuilder) field(name string) (string, reflect.Type, bool) {
	if ub.err != nil {
		return "", nil, false
	}
	f, ok := ub.query.meta.Lookup(name)
	if !ok {
		ub.err = fmt.Errorf("%w: %s on %s", qerrors.ErrMemberNotFound, name, ub.query.meta.Type)
		return "", nil, false
	}
	return f.Name, f.Type, true
}

// Set assigns value to field
func (ub *UpdateBuilder) Set(field string, value any) core.UpdateBuilder {
	if name, _, ok := ub.field(field); ok {
		ub.setters = append(ub.setters, queryable.SetProperty(name, value))
	}
	return ub
}

// SetIfNotExists assigns defaultValue to field when the field is unset. The
// value argument is ignored.
func (ub *UpdateBuilder) SetIfNotExists(field string, _ any, defaultValue any) core.UpdateBuilder {
	name, _, ok := ub.field(field)
	if !ok {
		return ub
	}
	ub.setters = append(ub.setters, queryable.SetProperty(name, func(item any) (any, error) {
		current, err := expr.MemberValue(item, name)
		if err != nil {
			return nil, err
		}
		if isSet(current) {
			return current, nil
		}
		return defaultValue, nil
	}))
	return ub
}

// Add adds value to a numeric field
func (ub *UpdateBuilder) Add(field string, value any) core.UpdateBuilder {
	name, _, ok := ub.field(field)
	if !ok {
		return ub
	}
	sum := expr.Lambda1("x", func(x *expr.Parameter) expr.Expr {
		return expr.Add(expr.Field(x, name), expr.Const(value))
	})
	ub.setters = append(ub.setters, queryable.SetProperty(name, sum))
	return ub
}

// Increment adds 1 to field
func (ub *UpdateBuilder) Increment(field string) core.UpdateBuilder {
	return ub.Add(field, 1)
}

// Decrement subtracts 1 from field
func (ub *UpdateBuilder) Decrement(field string) core.UpdateBuilder {
	return ub.Add(field, -1)
}

// Remove resets field to its zero value
func (ub *UpdateBuilder) Remove(field string) core.UpdateBuilder {
	if name, t, ok := ub.field(field); ok {
		ub.setters = append(ub.setters, queryable.SetProperty(name, expr.Const(reflect.Zero(t).Interface())))
	}
	return ub
}

// Condition requires field op value to hold on the target
func (ub *UpdateBuilder) Condition(field string, operator string, value any) core.UpdateBuilder {
	if ub.err != nil {
		return ub
	}
	c, err := condition(ub.query.meta, ub.query.param, field, operator, value)
	if err != nil {
		ub.err = err
		return ub
	}
	ub.conditions = append(ub.conditions, c)
	return ub
}

// ConditionExists requires field to be set on the target
func (ub *UpdateBuilder) ConditionExists(field string) core.UpdateBuilder {
	return ub.Condition(field, OpExists, nil)
}

// ConditionNotExists requires field to be unset on the target
func (ub *UpdateBuilder) ConditionNotExists(field string) core.UpdateBuilder {
	return ub.Condition(field, OpNotExists, nil)
}

// ConditionVersion requires the target's version field to equal currentVersion
func (ub *UpdateBuilder) ConditionVersion(currentVersion int64) core.UpdateBuilder {
	v := ub.query.meta.VersionField
	if v == nil {
		if ub.err == nil {
			ub.err = fmt.Errorf("%w: %s has no version field", qerrors.ErrInvalidModel, ub.query.meta.Type)
		}
		return ub
	}
	return ub.Condition(v.Name, OpEqual, currentVersion)
}

// Execute applies the update. It fails with ErrItemNotFound when nothing
// matches the target and with ErrConditionFailed when a condition rejects it.
func (ub *UpdateBuilder) Execute() error {
	_, err := ub.execute()
	return err
}

// ExecuteWithResult applies the update and copies the updated entity into result
func (ub *UpdateBuilder) ExecuteWithResult(result any) error {
	target, err := ub.execute()
	if err != nil {
		return err
	}
	// the key survives assignments that change the matched conditions
	if key, err := ub.query.modelKey(); err == nil && key != nil {
		target = key
	}
	item, err := ub.query.scoped(target).FirstOrDefault()
	if err != nil {
		return ub.query.wrap("Update", err)
	}
	if item == nil {
		return ub.query.wrap("Update", qerrors.ErrItemNotFound)
	}
	return ub.query.assignOne(result, item)
}

func (ub *UpdateBuilder) execute() (expr.Expr, error) {
	q := ub.query
	if ub.err != nil {
		return nil, ub.err
	}
	target, err := q.target()
	if err != nil {
		return nil, err
	}
	if err := q.ready(); err != nil {
		return nil, err
	}

	matched, err := q.scoped(target).Count()
	if err != nil {
		return nil, q.wrap("Update", err)
	}
	if matched == 0 {
		return nil, q.wrap("Update", qerrors.ErrItemNotFound)
	}

	setters := append([]queryable.Assignment(nil), ub.setters...)
	if v := q.meta.VersionField; v != nil {
		setters = append(setters, queryable.SetProperty(v.Name, expr.Lambda1("x", func(x *expr.Parameter) expr.Expr {
			return expr.Add(expr.Field(x, v.Name), expr.Const(1))
		})))
	}
	if u := q.meta.UpdatedAtField; u != nil {
		setters = append(setters, queryable.SetProperty(u.Name, q.db.store.now()))
	}

	n, err := q.scoped(expr.AllOf(append([]expr.Expr{target}, ub.conditions...)...)).
		ExecuteUpdate(queryable.Assignments(setters...))
	if err != nil {
		return nil, q.wrap("Update", err)
	}
	if n == 0 {
		return nil, q.wrap("Update", qerrors.ErrConditionFailed)
	}
	q.db.store.logger.Debug().Str("table", q.meta.TableName).Int("count", n).Msg("updated")
	return target, nil
}
