package core

import (
	"context"
	"maps"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
	"github.com/JonMunkholm/dashboard/internal/predicate"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// FieldType is the storage type of a view column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldTimestamp
	FieldNumeric
	FieldBool
	FieldJSON
)

// FieldSpec describes one column of a view.
type FieldSpec struct {
	Name       string    // Display column name
	DBColumn   string    // Database column name (derived from Name when empty)
	Type       FieldType // Storage type
	EnumValues []string  // Allowed values for FieldEnum, also used as filter options
}

// ViewInfo contains display information about a view.
type ViewInfo struct {
	Key      string   // Unique identifier: "library_checkouts"
	Group    string   // Navigation group: "Academics", "Campus", "Finance"
	Label    string   // Display name: "Library Checkouts"
	Table    string   // Database table (defaults to Key)
	IDColumn string   // Primary key column (defaults to "id")
	Columns  []string // Display column names, in order
}

// ViewDefinition contains everything needed to serve one business view.
type ViewDefinition struct {
	Info       ViewInfo
	FieldSpecs []FieldSpec

	// Filters lists the filterable columns and their widgets.
	Filters []pipeline.FilterSpec

	// Mode chooses who shapes the rows: Local views are loaded whole and
	// shaped in memory, Delegated views are paged by the database.
	Mode pipeline.Mode

	// SearchEnabled shows the global search box.
	SearchEnabled bool

	// PageSize overrides the configured default page size when positive.
	PageSize int

	// DefaultSort orders Delegated pages when no sort is active.
	DefaultSort pipeline.SortState

	// Renderers produce display values for individual columns.
	Renderers map[string]pipeline.Renderer
}

// Field returns the spec for a display column name (case-insensitive).
func (d ViewDefinition) Field(name string) (FieldSpec, bool) {
	for _, spec := range d.FieldSpecs {
		if strings.EqualFold(spec.Name, name) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// DBColumn resolves a display column to its database column.
func (d ViewDefinition) DBColumn(name string) (string, error) {
	if _, ok := d.Field(name); !ok {
		return "", unknownColumn(d.Info.Key, name)
	}
	return resolveDBColumn(name, d.FieldSpecs), nil
}

// Query is the shaping request a Delegated view sends to the data source.
// It is folded from pipeline intents with [Query.Apply].
type Query struct {
	Search  string
	Filters map[string]cell.Value
	Sort    pipeline.SortState
	Page    int
	Limit   int
}

// Apply returns q updated by one pipeline intent. A search commit or filter
// change moves back to the first page; empty filter values are dropped.
func (q Query) Apply(in pipeline.Intent) Query {
	switch in.Type {
	case pipeline.IntentSearchCommit:
		q.Search = in.Search
		q.Page = 1
	case pipeline.IntentFilterChange:
		filters := maps.Clone(q.Filters)
		if filters == nil {
			filters = make(map[string]cell.Value)
		}
		if predicate.ShapeOf(in.Value) == predicate.ShapeNone {
			delete(filters, in.Column)
		} else {
			filters[in.Column] = in.Value
		}
		q.Filters = filters
		q.Page = 1
	case pipeline.IntentSortChange:
		q.Sort = in.Sort
	case pipeline.IntentPageChange:
		q.Page = in.Page
	case pipeline.IntentLimitChange:
		q.Limit = in.Limit
		q.Page = 1
	}
	return q
}

// PageResult is one page of rows from the data source.
type PageResult struct {
	Rows       []cell.Row
	TotalCount int
	Page       int
	Limit      int
}

// IDKey is the reserved column carrying each row's primary key.
const IDKey = "_id"
