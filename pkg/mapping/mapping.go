// Package mapping projects queryables onto destination types through an
// explicit configuration of member maps
package mapping

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/expr"
	"github.com/pay-theory/mockqueryable/pkg/queryable"
)

type pair struct {
	src, dst reflect.Type
}

// Configuration holds the type maps used by ProjectTo. It is safe for
// concurrent use once built.
type Configuration struct {
	mu   sync.RWMutex
	maps map[pair]*typeMap
}

// NewConfiguration creates a configuration and runs each build func against it
func NewConfiguration(build ...func(*Configuration)) *Configuration {
	c := &Configuration{maps: make(map[pair]*typeMap)}
	for _, b := range build {
		b(c)
	}
	return c
}

type typeMap struct {
	src, dst reflect.Type
	param    *expr.Parameter
	members  map[string]expr.Expr
	ignored  map[string]bool
	unknown  []string
}

// Map configures how S projects onto D
type Map[S, D any] struct {
	tm *typeMap
	c  *Configuration
}

// CreateMap registers the map from S to D, replacing any earlier one. Members
// of D with an assignable same-named member on S map by convention.
func CreateMap[S, D any](c *Configuration) *Map[S, D] {
	tm := &typeMap{
		src:     structType(reflect.TypeFor[S]()),
		dst:     structType(reflect.TypeFor[D]()),
		param:   expr.Param("src"),
		members: make(map[string]expr.Expr),
		ignored: make(map[string]bool),
	}
	c.mu.Lock()
	c.maps[pair{src: tm.src, dst: tm.dst}] = tm
	c.mu.Unlock()
	return &Map[S, D]{tm: tm, c: c}
}

// ForMember maps the destination member from the expression from builds over
// the source element
func (m *Map[S, D]) ForMember(member string, from func(src *expr.Parameter) expr.Expr) *Map[S, D] {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	if _, ok := m.tm.dst.FieldByName(member); !ok {
		m.tm.unknown = append(m.tm.unknown, member)
		return m
	}
	m.tm.members[member] = from(m.tm.param)
	delete(m.tm.ignored, member)
	return m
}

// MapFrom maps the destination member from a source member
func (m *Map[S, D]) MapFrom(member, source string) *Map[S, D] {
	return m.ForMember(member, func(src *expr.Parameter) expr.Expr {
		return expr.Field(src, source)
	})
}

// Ignore leaves the destination member at its zero value
func (m *Map[S, D]) Ignore(member string) *Map[S, D] {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	if _, ok := m.tm.dst.FieldByName(member); !ok {
		m.tm.unknown = append(m.tm.unknown, member)
		return m
	}
	m.tm.ignored[member] = true
	delete(m.tm.members, member)
	return m
}

// AssertConfigurationIsValid reports every map that names a member D lacks or
// leaves a member of D unmapped
func (c *Configuration) AssertConfigurationIsValid() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var problems []string
	for _, tm := range c.maps {
		if len(tm.unknown) > 0 {
			problems = append(problems, fmt.Sprintf("%s -> %s: unknown members %s",
				tm.src, tm.dst, strings.Join(tm.unknown, ", ")))
		}
		if unmapped := tm.unmapped(); len(unmapped) > 0 {
			problems = append(problems, fmt.Sprintf("%s -> %s: unmapped members %s",
				tm.src, tm.dst, strings.Join(unmapped, ", ")))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("%w: %s", qerrors.ErrMemberNotFound, strings.Join(problems, "; "))
}

// Projection returns the lambda that builds a D from an S
func (c *Configuration) Projection(src, dst reflect.Type) (*expr.LambdaExpr, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tm, ok := c.maps[pair{src: structType(src), dst: structType(dst)}]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", qerrors.ErrMappingNotFound, src, dst)
	}
	var bindings []expr.Binding
	for _, name := range tm.destMembers() {
		if value, ok := tm.resolve(name); ok {
			bindings = append(bindings, expr.Bind(name, value))
		}
	}
	return expr.Lambda(expr.NewObject(dst, bindings...), tm.param), nil
}

// ProjectTo projects every element of q onto D through the map c holds for
// S to D
func ProjectTo[D, S any](q *queryable.Queryable[S], c *Configuration) (*queryable.Queryable[D], error) {
	proj, err := c.Projection(reflect.TypeFor[S](), reflect.TypeFor[D]())
	if err != nil {
		return nil, err
	}
	return queryable.Select[S, D](q, proj), nil
}

func (tm *typeMap) destMembers() []string {
	var names []string
	for i := 0; i < tm.dst.NumField(); i++ {
		f := tm.dst.Field(i)
		if f.IsExported() && !f.Anonymous {
			names = append(names, f.Name)
		}
	}
	return names
}

// resolve returns the expression a destination member maps from
func (tm *typeMap) resolve(name string) (expr.Expr, bool) {
	if tm.ignored[name] {
		return nil, false
	}
	if e, ok := tm.members[name]; ok {
		return e, true
	}
	df, _ := tm.dst.FieldByName(name)
	sf, ok := tm.src.FieldByName(name)
	if !ok || !sf.IsExported() || !compatible(sf.Type, df.Type) {
		return nil, false
	}
	return expr.Field(tm.param, name), true
}

func (tm *typeMap) unmapped() []string {
	var out []string
	for _, name := range tm.destMembers() {
		if tm.ignored[name] {
			continue
		}
		if _, ok := tm.resolve(name); !ok {
			out = append(out, name)
		}
	}
	return out
}

func compatible(src, dst reflect.Type) bool {
	if src.AssignableTo(dst) {
		return true
	}
	return numeric(src.Kind()) && numeric(dst.Kind())
}

func numeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

func structType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
