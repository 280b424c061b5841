// Package core defines the data-access interfaces that production code is
// written against and that in-memory doubles implement
package core

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DB opens queries over the tables of a data store. pkg/memdb implements it
// over go-memdb backed tables.
type DB interface {
	// Model starts a query over the table of model's type. A model carrying
	// its key also selects the entity writes apply to.
	Model(model any) Query

	// Transaction runs fn; an error from fn undoes its writes
	Transaction(fn func(tx *Tx) error) error

	// AutoMigrate creates the tables of models
	AutoMigrate(models ...any) error

	// Close releases the store
	Close() error

	// WithContext returns a DB whose queries check ctx before they run
	WithContext(ctx context.Context) DB
}

// Query is a chainable builder over one table. Builder methods record state
// and the first error; terminal methods run the query and report that error.
type Query interface {
	// Where adds a key condition; op is one of the condition operators
	Where(field string, op string, value any) Query
	// Index names the index read
	Index(indexName string) Query
	// Filter and OrFilter join a condition to the filter with AND or OR
	Filter(field string, op string, value any) Query
	OrFilter(field string, op string, value any) Query
	// FilterGroup and OrFilterGroup join the conditions fn adds as one term
	FilterGroup(func(Query)) Query
	OrFilterGroup(func(Query)) Query
	// OrderBy sorts by field, "asc" or "desc"
	OrderBy(field string, order string) Query
	Limit(limit int) Query

	// Offset skips the first offset matches
	Offset(offset int) Query

	// Select limits the fields copied into destinations
	Select(fields ...string) Query

	// First copies the first match into dest or fails with ErrItemNotFound
	First(dest any) error

	// All copies every match into dest, a pointer to a slice
	All(dest any) error

	// AllPaginated copies one page of matches and reports where the next starts
	AllPaginated(dest any) (*PaginatedResult, error)

	// Count reports the number of matches, ignoring Offset and Limit
	Count() (int64, error)

	// Create stores the model; a taken key fails with ErrConditionFailed
	Create() error

	// CreateOrUpdate stores the model, replacing an entity with the same key
	CreateOrUpdate() error

	// Update writes the named fields, or every non-key field, to the stored entity
	Update(fields ...string) error

	// UpdateBuilder starts a conditional update of the target entities
	UpdateBuilder() UpdateBuilder

	// Delete removes the target entities
	Delete() error

	// Scan reads the whole table through the filters
	Scan(dest any) error

	// BatchGet copies the entities with keys into dest, skipping missing ones
	BatchGet(keys []any, dest any) error

	// BatchCreate creates every element of a slice of models
	BatchCreate(items any) error

	// Cursor resumes AllPaginated after a previous page
	Cursor(cursor string) Query

	// SetCursor is Cursor reporting a malformed cursor directly
	SetCursor(cursor string) error

	// WithContext sets the context checked before the query runs
	WithContext(ctx context.Context) Query
}

// UpdateBuilder collects assignments and conditions applied as one bulk
// update
type UpdateBuilder interface {
	// Set assigns value
	Set(field string, value any) UpdateBuilder

	// SetIfNotExists sets a field value only if it is still the zero value
	SetIfNotExists(field string, value any, defaultValue any) UpdateBuilder

	// Add adds value to a numeric field
	Add(field string, value any) UpdateBuilder

	// Increment and Decrement add 1 and -1
	Increment(field string) UpdateBuilder

	Decrement(field string) UpdateBuilder

	// Remove resets a field to its zero value
	Remove(field string) UpdateBuilder

	// Condition requires field op value to hold; otherwise the update fails
	// with ErrConditionFailed
	Condition(field string, operator string, value any) UpdateBuilder

	// ConditionExists and ConditionNotExists test whether field is set
	ConditionExists(field string) UpdateBuilder

	ConditionNotExists(field string) UpdateBuilder

	// ConditionVersion requires the stored version to equal currentVersion
	ConditionVersion(currentVersion int64) UpdateBuilder

	// Execute applies the update
	Execute() error

	// ExecuteWithResult applies the update and copies the updated entity into result
	ExecuteWithResult(result any) error
}

// PaginatedResult is one page of an AllPaginated query
type PaginatedResult struct {
	// Items is the destination slice
	Items any

	// Count and ScannedCount are the page length
	Count int

	ScannedCount int

	// LastEvaluatedKey is the key of the page's last entity when more follow
	LastEvaluatedKey map[string]types.AttributeValue

	// NextCursor encodes LastEvaluatedKey for Query.Cursor
	NextCursor string

	// HasMore reports matches after this page
	HasMore bool
}

// Tx issues the writes of a DB.Transaction callback
type Tx struct {
	db DB
}

// NewTx returns a transaction issuing its operations through db
func NewTx(db DB) *Tx {
	return &Tx{db: db}
}

// Model starts a query inside the transaction
func (tx *Tx) Model(model any) Query {
	return tx.db.Model(model)
}

// Create stores model
func (tx *Tx) Create(model any) error {
	return tx.db.Model(model).Create()
}

// Update writes fields of model
func (tx *Tx) Update(model any, fields ...string) error {
	return tx.db.Model(model).Update(fields...)
}

// Delete removes the entity with model's key
func (tx *Tx) Delete(model any) error {
	return tx.db.Model(model).Delete()
}
