package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/JonMunkholm/dashboard/internal/cell"
	"github.com/JonMunkholm/dashboard/internal/predicate"
)

// WhereBuilder accumulates AND-ed SQL conditions with positional arguments.
//
// Filter conditions mirror the in-memory predicates so that a Delegated view
// returns the same rows a Local view would keep.
type WhereBuilder struct {
	conditions []string
	args       []interface{}
	argIndex   int
}

// NewWhereBuilder returns an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

func (wb *WhereBuilder) add(format string, arg interface{}) {
	wb.conditions = append(wb.conditions, fmt.Sprintf(format, wb.argIndex))
	wb.args = append(wb.args, arg)
	wb.argIndex++
}

// Add adds an equality condition. Nil and empty string values are skipped.
func (wb *WhereBuilder) Add(column string, value interface{}) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}
	wb.add(column+" = $%d", value)
}

// AddFalse adds a condition no row satisfies.
func (wb *WhereBuilder) AddFalse() {
	wb.conditions = append(wb.conditions, "FALSE")
}

// AddSearch matches term as a case-insensitive substring of any of the given
// database columns. All columns share one argument.
func (wb *WhereBuilder) AddSearch(term string, dbColumns []string) {
	if term == "" || len(dbColumns) == 0 {
		return
	}

	parts := make([]string, len(dbColumns))
	for i, col := range dbColumns {
		parts[i] = fmt.Sprintf("%s::text ILIKE $%d", quoteIdentifier(col), wb.argIndex)
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+escapeLike(term)+"%")
	wb.argIndex++
}

// AddFilter adds the condition for one column filter value, dispatching on
// the value's shape the same way [predicate.MatchesFilter] does.
func (wb *WhereBuilder) AddFilter(dbColumn string, f cell.Value) {
	col := quoteIdentifier(dbColumn)

	switch predicate.ShapeOf(f) {
	case predicate.ShapeNone:
		return

	case predicate.ShapeRange:
		b := predicate.RangeBounds(f)
		if b.From.IsZero() && b.To.IsZero() {
			wb.conditions = append(wb.conditions, col+" IS NOT NULL")
			return
		}
		if !b.From.IsZero() {
			wb.add(col+" >= $%d", b.From)
		}
		if !b.To.IsZero() {
			wb.add(col+" <= $%d", b.To)
		}

	case predicate.ShapeDate:
		t, ok := f.AsDate()
		if !ok {
			wb.AddFalse()
			return
		}
		wb.add(col+"::date = $%d::date", t.Format("2006-01-02"))

	case predicate.ShapeMulti:
		items := f.Items()
		labels := make([]string, len(items))
		for i, item := range items {
			labels[i] = strings.ToLower(item.Text())
		}
		wb.add("lower("+col+"::text) = ANY($%d)", labels)

	default:
		wb.add(col+"::text ILIKE $%d", "%"+escapeLike(f.Text())+"%")
	}
}

// AddFilters adds every active filter of a view, in column order. A filter on
// a column the view does not have matches nothing.
func (wb *WhereBuilder) AddFilters(def ViewDefinition, filters map[string]cell.Value) {
	for _, name := range slices.Sorted(maps.Keys(filters)) {
		f := filters[name]
		if predicate.ShapeOf(f) == predicate.ShapeNone {
			continue
		}
		dbCol, err := def.DBColumn(name)
		if err != nil {
			wb.AddFalse()
			continue
		}
		wb.AddFilter(dbCol, f)
	}
}

// Build returns the WHERE clause (with a leading space) and its arguments,
// or an empty string and nil when there are no conditions.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex returns the next unused placeholder index.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}
