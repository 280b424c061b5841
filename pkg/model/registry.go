// Package model provides entity metadata for in-memory entity sets: primary
// keys, attribute names and lifecycle fields parsed from dynamorm struct tags
package model

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/naming"
)

// Registry caches entity metadata by struct type
type Registry struct {
	mu     sync.RWMutex
	models map[reflect.Type]*Metadata
	tables map[string]*Metadata
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[reflect.Type]*Metadata),
		tables: make(map[string]*Metadata),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by entity sets that are not
// given one
func Default() *Registry { return defaultRegistry }

// Register parses and caches the metadata of model's struct type
func (r *Registry) Register(model any) error {
	_, err := r.Lookup(reflect.TypeOf(model))
	return err
}

// Lookup returns the metadata for t, parsing it on first use. Pointer types
// resolve to their struct.
func (r *Registry) Lookup(t reflect.Type) (*Metadata, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil model", errors.ErrInvalidModel)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", errors.ErrInvalidModel, t)
	}

	r.mu.RLock()
	meta, ok := r.models[t]
	r.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta, err := parseMetadata(t)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.models[t]; ok {
		return existing, nil
	}
	r.models[t] = meta
	r.tables[meta.TableName] = meta
	return meta, nil
}

// GetMetadata returns the metadata of a registered model
func (r *Registry) GetMetadata(model any) (*Metadata, error) {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.models[t]
	if !ok {
		return nil, fmt.Errorf("%w: model not registered: %v", errors.ErrInvalidModel, t)
	}
	return meta, nil
}

// GetMetadataByTable returns the metadata registered under tableName
func (r *Registry) GetMetadataByTable(tableName string) (*Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.tables[tableName]
	if !ok {
		return nil, fmt.Errorf("%w: table not found: %s", errors.ErrInvalidModel, tableName)
	}
	return meta, nil
}

// Metadata describes an entity struct
type Metadata struct {
	Type           reflect.Type
	TableName      string
	PartitionKey   *Field
	SortKey        *Field
	Fields         []*Field
	ByName         map[string]*Field
	ByAttr         map[string]*Field
	VersionField   *Field
	CreatedAtField *Field
	UpdatedAtField *Field
}

// Field describes one persisted struct field
type Field struct {
	Name      string       // Go field name
	Attr      string       // attribute name
	Type      reflect.Type // Go type
	Index     []int        // index path into the struct
	IsPK      bool
	IsSK      bool
	IsVersion bool
	OmitEmpty bool
}

// Lookup finds a field by Go name or attribute name
func (m *Metadata) Lookup(name string) (*Field, bool) {
	if f, ok := m.ByName[name]; ok {
		return f, true
	}
	f, ok := m.ByAttr[name]
	return f, ok
}

// KeyValues returns the partition key value followed by the sort key value,
// if the model has one
func (m *Metadata) KeyValues(entity any) ([]any, error) {
	rv, err := m.structValue(entity)
	if err != nil {
		return nil, err
	}
	keys := []any{rv.FieldByIndex(m.PartitionKey.Index).Interface()}
	if m.SortKey != nil {
		keys = append(keys, rv.FieldByIndex(m.SortKey.Index).Interface())
	}
	return keys, nil
}

// Key renders key values as a single lookup string
func Key(values ...any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case time.Time:
			parts[i] = x.UTC().Format(time.RFC3339Nano)
		case fmt.Stringer:
			parts[i] = x.String()
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, "#")
}

// EntityKey returns the lookup string of entity's primary key
func (m *Metadata) EntityKey(entity any) (string, error) {
	values, err := m.KeyValues(entity)
	if err != nil {
		return "", err
	}
	return Key(values...), nil
}

// Value reads the named field of entity
func (m *Metadata) Value(entity any, name string) (any, error) {
	f, ok := m.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", errors.ErrMemberNotFound, name, m.Type)
	}
	rv, err := m.structValue(entity)
	if err != nil {
		return nil, err
	}
	return rv.FieldByIndex(f.Index).Interface(), nil
}

// Touch sets the created/updated timestamps and bumps the version of entity.
// created is only set when it is still zero.
func (m *Metadata) Touch(entity any, now time.Time) error {
	rv, err := m.structValue(entity)
	if err != nil {
		return err
	}
	if !rv.CanSet() {
		return fmt.Errorf("%w: %s", errors.ErrUnaddressable, m.Type)
	}
	if f := m.CreatedAtField; f != nil {
		if fv := rv.FieldByIndex(f.Index); fv.IsZero() {
			fv.Set(reflect.ValueOf(now))
		}
	}
	if f := m.UpdatedAtField; f != nil {
		rv.FieldByIndex(f.Index).Set(reflect.ValueOf(now))
	}
	if f := m.VersionField; f != nil {
		fv := rv.FieldByIndex(f.Index)
		if fv.CanInt() {
			fv.SetInt(fv.Int() + 1)
		} else {
			fv.SetUint(fv.Uint() + 1)
		}
	}
	return nil
}

func (m *Metadata) structValue(entity any) (reflect.Value, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil %s", errors.ErrNilReference, m.Type)
		}
		rv = rv.Elem()
	}
	if rv.Type() != m.Type {
		return reflect.Value{}, fmt.Errorf("%w: %s is not %s", errors.ErrInvalidModel, rv.Type(), m.Type)
	}
	return rv, nil
}

func parseMetadata(t reflect.Type) (*Metadata, error) {
	meta := &Metadata{
		Type:      t,
		TableName: tableName(t),
		ByName:    make(map[string]*Field),
		ByAttr:    make(map[string]*Field),
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f, skip, err := parseField(sf)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		if skip {
			continue
		}
		meta.Fields = append(meta.Fields, f)
		meta.ByName[f.Name] = f
		meta.ByAttr[f.Attr] = f

		switch {
		case f.IsPK:
			if meta.PartitionKey != nil {
				return nil, fmt.Errorf("field %s: %w", sf.Name, errors.ErrDuplicatePrimaryKey)
			}
			meta.PartitionKey = f
		case f.IsSK:
			if meta.SortKey != nil {
				return nil, fmt.Errorf("field %s: duplicate sort key definition", sf.Name)
			}
			meta.SortKey = f
		}
		if f.IsVersion {
			meta.VersionField = f
		}
		if hasTag(sf, "created_at") {
			meta.CreatedAtField = f
		}
		if hasTag(sf, "updated_at") {
			meta.UpdatedAtField = f
		}
	}

	if meta.PartitionKey == nil {
		// untagged models key on ID or Id
		for _, name := range []string{"ID", "Id"} {
			if f, ok := meta.ByName[name]; ok {
				f.IsPK = true
				meta.PartitionKey = f
				break
			}
		}
	}
	if meta.PartitionKey == nil {
		return nil, fmt.Errorf("%s: %w", t, errors.ErrMissingPrimaryKey)
	}
	return meta, nil
}

func parseField(sf reflect.StructField) (*Field, bool, error) {
	attr, skip := naming.ResolveAttrName(sf)
	if skip {
		return nil, true, nil
	}
	f := &Field{Name: sf.Name, Attr: attr, Type: sf.Type, Index: sf.Index}

	inIndex := false
	for _, part := range strings.Split(sf.Tag.Get("dynamorm"), ",") {
		part = strings.TrimSpace(part)
		// pk, sk and sparse after index:<name> describe the index
		if inIndex && (part == "pk" || part == "sk" || part == "sparse") {
			continue
		}
		key, _, hasValue := strings.Cut(part, ":")
		inIndex = key == "index" && hasValue
		switch key {
		case "":
		case "pk":
			f.IsPK = true
		case "sk":
			f.IsSK = true
		case "version":
			if !isInteger(sf.Type) {
				return nil, false, fmt.Errorf("%w: version field must be numeric", errors.ErrInvalidTag)
			}
			f.IsVersion = true
		case "created_at", "updated_at":
			if sf.Type != reflect.TypeFor[time.Time]() {
				return nil, false, fmt.Errorf("%w: created_at/updated_at fields must be time.Time", errors.ErrInvalidTag)
			}
		case "omitempty":
			f.OmitEmpty = true
		case "attr", "index", "lsi", "project", "set", "ttl", "binary", "json", "encrypted":
			// storage hints with no in-memory effect
		default:
			return nil, false, fmt.Errorf("%w: unknown tag '%s'", errors.ErrInvalidTag, part)
		}
	}
	return f, false, nil
}

func hasTag(sf reflect.StructField, name string) bool {
	for _, part := range strings.Split(sf.Tag.Get("dynamorm"), ",") {
		if strings.TrimSpace(part) == name {
			return true
		}
	}
	return false
}

func isInteger(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// tableName pluralizes the type name
func tableName(t reflect.Type) string {
	name := t.Name()
	switch {
	case strings.HasSuffix(name, "s"):
		return name + "es"
	case strings.HasSuffix(name, "y"):
		return name[:len(name)-1] + "ies"
	}
	return name + "s"
}
