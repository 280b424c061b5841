package memdb

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/model"
)

// Cursor is the pagination state carried between AllPaginated calls
type Cursor struct {
	LastEvaluatedKey map[string]any `json:"lastKey"`
	IndexName        string         `json:"index,omitempty"`
	SortDirection    string         `json:"sort,omitempty"`
}

// EncodeCursor encodes a LastEvaluatedKey as a base64 cursor string
func EncodeCursor(lastKey map[string]types.AttributeValue, indexName, sortDirection string) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}

	jsonKey := make(map[string]any, len(lastKey))
	for k, v := range lastKey {
		jv, err := attributeToJSON(v)
		if err != nil {
			return "", fmt.Errorf("failed to convert attribute %s: %w", k, err)
		}
		jsonKey[k] = jv
	}

	data, err := json.Marshal(Cursor{LastEvaluatedKey: jsonKey, IndexName: indexName, SortDirection: sortDirection})
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeCursor decodes a base64 cursor string. An empty string decodes to nil.
func DecodeCursor(encoded string) (*Cursor, error) {
	if encoded == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrInvalidCursor, err)
	}
	return &c, nil
}

// ToAttributeValues converts the cursor's LastEvaluatedKey back to attribute values
func (c *Cursor) ToAttributeValues() (map[string]types.AttributeValue, error) {
	if c == nil || len(c.LastEvaluatedKey) == 0 {
		return nil, nil
	}
	out := make(map[string]types.AttributeValue, len(c.LastEvaluatedKey))
	for k, v := range c.LastEvaluatedKey {
		av, err := jsonToAttribute(v)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %s: %v", qerrors.ErrInvalidCursor, k, err)
		}
		out[k] = av
	}
	return out, nil
}

func attributeToJSON(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return map[string]any{"S": v.Value}, nil
	case *types.AttributeValueMemberN:
		return map[string]any{"N": v.Value}, nil
	case *types.AttributeValueMemberB:
		return map[string]any{"B": base64.StdEncoding.EncodeToString(v.Value)}, nil
	case *types.AttributeValueMemberBOOL:
		return map[string]any{"BOOL": v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return map[string]any{"NULL": true}, nil
	default:
		return nil, fmt.Errorf("unsupported key attribute type: %T", av)
	}
}

func jsonToAttribute(v any) (types.AttributeValue, error) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("expected a single-entry object, got %T", v)
	}
	for kind, raw := range m {
		switch kind {
		case "S", "N", "B":
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%s value must be string", kind)
			}
			switch kind {
			case "S":
				return &types.AttributeValueMemberS{Value: s}, nil
			case "N":
				return &types.AttributeValueMemberN{Value: s}, nil
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("failed to decode binary: %w", err)
			}
			return &types.AttributeValueMemberB{Value: b}, nil
		case "BOOL":
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("BOOL value must be bool")
			}
			return &types.AttributeValueMemberBOOL{Value: b}, nil
		case "NULL":
			return &types.AttributeValueMemberNULL{Value: true}, nil
		}
	}
	return nil, fmt.Errorf("unknown attribute value format: %v", m)
}

// keyAttributes renders entity's primary key as attribute values keyed by
// attribute name
func keyAttributes(meta *model.Metadata, entity any) (map[string]types.AttributeValue, error) {
	keys, err := meta.KeyValues(entity)
	if err != nil {
		return nil, err
	}
	fields := []*model.Field{meta.PartitionKey}
	if meta.SortKey != nil {
		fields = append(fields, meta.SortKey)
	}
	out := make(map[string]types.AttributeValue, len(fields))
	for i, f := range fields {
		av, err := toAttribute(reflect.ValueOf(keys[i]))
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", f.Attr, err)
		}
		out[f.Attr] = av
	}
	return out, nil
}

func toAttribute(v reflect.Value) (types.AttributeValue, error) {
	if !v.IsValid() {
		return &types.AttributeValueMemberNULL{Value: true}, nil
	}
	if t, ok := v.Interface().(time.Time); ok {
		return &types.AttributeValueMemberS{Value: t.UTC().Format(time.RFC3339Nano)}, nil
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return &types.AttributeValueMemberS{Value: s.String()}, nil
	}
	switch v.Kind() {
	case reflect.String:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(v.Int(), 10)}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(v.Uint(), 10)}, nil
	case reflect.Float32, reflect.Float64:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v.Float(), 'f', -1, 64)}, nil
	case reflect.Bool:
		return &types.AttributeValueMemberBOOL{Value: v.Bool()}, nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return &types.AttributeValueMemberB{Value: v.Bytes()}, nil
		}
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return &types.AttributeValueMemberNULL{Value: true}, nil
		}
		return toAttribute(v.Elem())
	}
	return nil, fmt.Errorf("unsupported key type: %s", v.Type())
}

// attributesKey renders key attributes as a comparable string
func attributesKey(attrs map[string]types.AttributeValue) string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		jv, err := attributeToJSON(attrs[name])
		if err != nil {
			jv = fmt.Sprint(attrs[name])
		}
		fmt.Fprintf(&b, "%s=%v;", name, jv)
	}
	return b.String()
}
