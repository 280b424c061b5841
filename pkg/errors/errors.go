// Package errors defines error types and utilities for mockqueryable
package errors

import (
	"errors"
	"fmt"
)

// Common errors that can occur while building or executing in-memory queries
var (
	// ErrNilBody is returned when an expression with no body is compiled
	ErrNilBody = errors.New("body is null")

	// ErrNilEnumerator is returned when an async enumerator is built over a nil enumerator
	ErrNilEnumerator = errors.New("enumerator is null")

	// ErrUnsupportedOperator is returned when a tree references a method with no in-memory equivalent
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrNoElements is returned when a single-element operator runs over an empty sequence
	ErrNoElements = errors.New("Sequence contains no elements")

	// ErrMoreThanOneElement is returned when Single matches more than one element
	ErrMoreThanOneElement = errors.New("Sequence contains more than one element")

	// ErrIndexOutOfRange is returned when ElementAt is asked for a missing position
	ErrIndexOutOfRange = errors.New("index was out of range")

	// ErrInvalidCast is returned when a value cannot be converted to the requested type
	ErrInvalidCast = errors.New("specified cast is not valid")

	// ErrArgumentCount is returned when a function is called with the wrong number of arguments
	ErrArgumentCount = errors.New("argument count mismatch")

	// ErrMemberNotFound is returned when a member access names no field or method
	ErrMemberNotFound = errors.New("member not found")

	// ErrNilReference is returned when a member or method is read through a nil value
	ErrNilReference = errors.New("object reference not set to an instance of an object")

	// ErrDivideByZero is returned when an integer division by zero is evaluated
	ErrDivideByZero = errors.New("attempted to divide by zero")

	// ErrUnaddressable is returned when a bulk update targets entities held by value
	ErrUnaddressable = errors.New("entity is not addressable")

	// ErrRemovalNotConfigured is returned by strict queryables asked to delete without a removal callback
	ErrRemovalNotConfigured = errors.New("removal callback not configured")

	// ErrAddNotSupported is returned when the backing sequence cannot accept new entities
	ErrAddNotSupported = errors.New("backing sequence does not support add")

	// ErrItemNotFound is returned when an item is not found in the backing sequence
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidModel is returned when a model struct is invalid
	ErrInvalidModel = errors.New("invalid model")

	// ErrMissingPrimaryKey is returned when a model doesn't have a primary key
	ErrMissingPrimaryKey = errors.New("missing primary key")

	// ErrDuplicatePrimaryKey is returned when multiple primary keys are defined
	ErrDuplicatePrimaryKey = errors.New("duplicate primary key definition")

	// ErrInvalidTag is returned when a struct tag is invalid
	ErrInvalidTag = errors.New("invalid struct tag")

	// ErrConditionFailed is returned when a create collides with an existing key
	ErrConditionFailed = errors.New("condition check failed")

	// ErrInvalidOperator is returned when an invalid query operator is used
	ErrInvalidOperator = errors.New("invalid query operator")

	// ErrInvalidCursor is returned when a pagination cursor cannot be decoded
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrMappingNotFound is returned when a projection has no configured map
	ErrMappingNotFound = errors.New("mapping not found")
)

// UnsupportedOperatorError names the operator a compiled tree could not resolve.
// Its message matches the one a remote provider reports on client-evaluation fallback.
type UnsupportedOperatorError struct {
	Method string
}

// Error implements the error interface
func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("The '%s' method is not supported because the query has switched to client-evaluation. "+
		"This usually happens when the arguments to the method cannot be translated to server. "+
		"Rewrite the query to avoid client evaluation of arguments so that method can be translated to server.", e.Method)
}

// Is reports whether target is ErrUnsupportedOperator
func (e *UnsupportedOperatorError) Is(target error) bool {
	return target == ErrUnsupportedOperator
}

// NewUnsupportedOperator creates an UnsupportedOperatorError for method
func NewUnsupportedOperator(method string) *UnsupportedOperatorError {
	return &UnsupportedOperatorError{Method: method}
}

// QueryError represents a detailed error with context
type QueryError struct {
	Op      string         // Operation that failed
	Model   string         // Element type name
	Err     error          // Underlying error
	Context map[string]any // Additional context
}

// Error implements the error interface
func (e *QueryError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("mockqueryable: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("mockqueryable: %s %s: %v", e.Op, e.Model, e.Err)
}

// Unwrap returns the underlying error
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error
func (e *QueryError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new QueryError
func NewError(op, model string, err error) *QueryError {
	return &QueryError{
		Op:    op,
		Model: model,
		Err:   err,
	}
}

// NewErrorWithContext creates a new QueryError with context
func NewErrorWithContext(op, model string, err error, context map[string]any) *QueryError {
	return &QueryError{
		Op:      op,
		Model:   model,
		Err:     err,
		Context: context,
	}
}

// IsNotFound checks if an error indicates an item was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsUnsupportedOperator checks if an error is an unsupported-operator fault
func IsUnsupportedOperator(err error) bool {
	return errors.Is(err, ErrUnsupportedOperator)
}

// IsNoElements checks if an error indicates an empty sequence
func IsNoElements(err error) bool {
	return errors.Is(err, ErrNoElements)
}

// IsInvalidModel checks if an error indicates an invalid model
func IsInvalidModel(err error) bool {
	return errors.Is(err, ErrInvalidModel)
}

// IsConditionFailed checks if an error indicates a condition check failure
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}
