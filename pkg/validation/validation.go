// Package validation checks the names, operators and values handed to
// in-memory query builders before they become expression trees
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
)

// Error describes a rejected name, operator or value
type Error struct {
	Kind   string
	Value  string
	Detail string
	err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed [%s]: %s - %s", e.Kind, e.Value, e.Detail)
}

// Unwrap returns the sentinel the failure maps to
func (e *Error) Unwrap() error { return e.err }

// Limits applied to builder input
const (
	MaxFieldNameLength   = 255
	MaxOperatorLength    = 20
	MaxValueStringLength = 400000 // DynamoDB item size limit
	MaxNestedDepth       = 32
	MaxListValues        = 100
)

var (
	fieldPart = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	indexName = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,255}$`)
)

// operators maps every accepted spelling to its canonical form
var operators = map[string]string{
	"=":                    "=",
	"EQ":                   "=",
	"!=":                   "!=",
	"<>":                   "!=",
	"NE":                   "!=",
	"<":                    "<",
	"LT":                   "<",
	"<=":                   "<=",
	"LE":                   "<=",
	">":                    ">",
	"GT":                   ">",
	">=":                   ">=",
	"GE":                   ">=",
	"BETWEEN":              "BETWEEN",
	"IN":                   "IN",
	"BEGINS_WITH":          "BEGINS_WITH",
	"CONTAINS":             "CONTAINS",
	"EXISTS":               "EXISTS",
	"ATTRIBUTE_EXISTS":     "EXISTS",
	"NOT_EXISTS":           "NOT_EXISTS",
	"ATTRIBUTE_NOT_EXISTS": "NOT_EXISTS",
}

// Operator returns the canonical form of a condition operator. Matching
// ignores case and surrounding space.
func Operator(op string) (string, error) {
	if op == "" {
		return "", &Error{Kind: "InvalidOperator", Detail: "operator cannot be empty", err: qerrors.ErrInvalidOperator}
	}
	if len(op) > MaxOperatorLength {
		return "", &Error{Kind: "InvalidOperator", Value: op,
			Detail: fmt.Sprintf("operator exceeds maximum length of %d characters", MaxOperatorLength),
			err:    qerrors.ErrInvalidOperator}
	}
	canonical, ok := operators[strings.ToUpper(strings.TrimSpace(op))]
	if !ok {
		return "", &Error{Kind: "InvalidOperator", Value: op,
			Detail: fmt.Sprintf("operator '%s' is not allowed", op),
			err:    qerrors.ErrInvalidOperator}
	}
	return canonical, nil
}

// FieldName checks a field or dotted field path
func FieldName(field string) error {
	fail := func(detail string) error {
		return &Error{Kind: "InvalidField", Value: field, Detail: detail, err: qerrors.ErrMemberNotFound}
	}
	if field == "" {
		return fail("field name cannot be empty")
	}
	if len(field) > MaxFieldNameLength {
		return fail(fmt.Sprintf("field name exceeds maximum length of %d characters", MaxFieldNameLength))
	}
	if strings.IndexFunc(field, unicode.IsControl) >= 0 {
		return fail("field name contains control characters")
	}
	parts := strings.Split(field, ".")
	if len(parts) > MaxNestedDepth {
		return fail(fmt.Sprintf("nested field depth exceeds maximum of %d", MaxNestedDepth))
	}
	for _, part := range parts {
		if !fieldPart.MatchString(part) {
			return fail(fmt.Sprintf("invalid field part '%s'", part))
		}
	}
	return nil
}

// IndexName checks a secondary index name
func IndexName(name string) error {
	if !indexName.MatchString(name) {
		return &Error{Kind: "InvalidIndex", Value: name,
			Detail: "index name must be 3-255 letters, numbers, dots, dashes or underscores",
			err:    qerrors.ErrInvalidOperator}
	}
	return nil
}

// Value checks a condition value. Strings are capped at
// MaxValueStringLength and lists at MaxListValues elements.
func Value(value any) error {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		if rv.Len() > MaxValueStringLength {
			return &Error{Kind: "InvalidValue", Value: "string_value",
				Detail: fmt.Sprintf("string value exceeds maximum length of %d characters", MaxValueStringLength),
				err:    qerrors.ErrInvalidOperator}
		}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		if rv.Len() > MaxListValues {
			return &Error{Kind: "InvalidValue", Value: "slice_value",
				Detail: fmt.Sprintf("slice value exceeds maximum length of %d items", MaxListValues),
				err:    qerrors.ErrInvalidOperator}
		}
		for i := 0; i < rv.Len(); i++ {
			if err := Value(rv.Index(i).Interface()); err != nil {
				return &Error{Kind: "InvalidValue", Value: "slice_value",
					Detail: fmt.Sprintf("invalid item at index %d: %s", i, err),
					err:    qerrors.ErrInvalidOperator}
			}
		}
	}
	return nil
}
