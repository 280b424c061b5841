// Package naming resolves the attribute names entities are queried by.
package naming

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"
)

// Convention selects how Go field names map to attribute names
type Convention int

const (
	// CamelCase maps CreatedAt to createdAt (PK and SK stay upper case)
	CamelCase Convention = iota
	// SnakeCase maps CreatedAt to created_at
	SnakeCase
)

func (c Convention) String() string {
	if c == SnakeCase {
		return "snake_case"
	}
	return "camelCase"
}

var (
	camelCasePattern = regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`)
	snakeCasePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)
)

// ResolveAttrName determines the attribute name for a field using CamelCase.
// It returns the attribute name and a bool indicating whether the field should be skipped.
func ResolveAttrName(field reflect.StructField) (string, bool) {
	return ResolveAttrNameWith(field, CamelCase)
}

// ResolveAttrNameWith determines the attribute name for a field under convention
func ResolveAttrNameWith(field reflect.StructField, convention Convention) (string, bool) {
	tag := field.Tag.Get("dynamorm")
	if tag == "-" {
		return "", true
	}

	if attr := attrFromTag(tag); attr != "" {
		return attr, false
	}

	return ConvertAttrName(field.Name, convention), false
}

// FieldForAttr finds the struct field of t whose Go name or attribute name is name
func FieldForAttr(t reflect.Type, name string) (reflect.StructField, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	if sf, ok := t.FieldByName(name); ok && sf.IsExported() {
		return sf, true
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if attr, skip := ResolveAttrName(sf); !skip && attr == name {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

// ConvertAttrName converts a Go field name to an attribute name under convention
func ConvertAttrName(name string, convention Convention) string {
	if convention == SnakeCase {
		return ToSnakeCase(name)
	}
	return DefaultAttrName(name)
}

// DefaultAttrName converts a Go struct field name to the preferred camelCase attribute name.
func DefaultAttrName(name string) string {
	if name == "" {
		return ""
	}

	if name == "PK" || name == "SK" {
		return name
	}

	runes := []rune(name)
	if len(runes) == 1 {
		return strings.ToLower(name)
	}

	boundary := 1
	for boundary < len(runes) {
		if !unicode.IsUpper(runes[boundary]) {
			break
		}

		if boundary+1 < len(runes) && !unicode.IsUpper(runes[boundary+1]) {
			break
		}

		boundary++
	}

	prefix := strings.ToLower(string(runes[:boundary]))
	return prefix + string(runes[boundary:])
}

// ToSnakeCase converts a Go field name to snake_case, keeping acronyms together
func ToSnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ValidateAttrName enforces the convention (with PK/SK exceptions for camelCase).
func ValidateAttrName(name string, convention Convention) error {
	if name == "" {
		return fmt.Errorf("attribute name cannot be empty")
	}

	if convention == SnakeCase {
		if !snakeCasePattern.MatchString(name) {
			return fmt.Errorf("attribute name must be snake_case (got %q)", name)
		}
		return nil
	}

	if name == "PK" || name == "SK" {
		return nil
	}

	if !camelCasePattern.MatchString(name) {
		return fmt.Errorf("attribute name must be camelCase (got %q)", name)
	}
	return nil
}

func attrFromTag(tag string) string {
	if tag == "" {
		return ""
	}

	parts := strings.Split(tag, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "attr:") {
			return strings.TrimPrefix(part, "attr:")
		}
	}
	return ""
}
