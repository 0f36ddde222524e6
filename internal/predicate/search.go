package predicate

import (
	"strings"

	"github.com/JonMunkholm/dashboard/internal/cell"
)

// MatchesSearch reports whether any of the given columns contains term,
// case-insensitively. An empty term matches every row.
func MatchesSearch(row cell.Row, columns []string, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, col := range columns {
		if searchable(row.Get(col), needle) {
			return true
		}
	}
	return false
}

func searchable(v cell.Value, needle string) bool {
	switch v.Kind() {
	case cell.KindNull, cell.KindOpaque:
		return false
	case cell.KindSequence:
		for _, item := range v.Items() {
			if searchable(item, needle) {
				return true
			}
		}
		return false
	case cell.KindMapping:
		s, err := cell.Serialize(v)
		if err != nil {
			return false
		}
		return containsFold(s, needle)
	}
	return containsFold(v.Text(), needle)
}

// Criteria is the full inclusion test applied to each row.
type Criteria struct {
	// Columns searched by the global search term.
	Columns []string
	// Search is the committed global search term; empty disables the test.
	Search string
	// Filters maps column name to the active filter value.
	Filters map[string]cell.Value
}

// Active reports whether the criteria can exclude any row.
func (c Criteria) Active() bool {
	if c.Search != "" {
		return true
	}
	for _, f := range c.Filters {
		if ShapeOf(f) != ShapeNone {
			return true
		}
	}
	return false
}

// Include reports whether row passes the search test and every column filter.
func Include(row cell.Row, c Criteria) bool {
	if !MatchesSearch(row, c.Columns, c.Search) {
		return false
	}
	for col, f := range c.Filters {
		if !MatchesFilter(row.Get(col), f) {
			return false
		}
	}
	return true
}

// Filter returns the rows that pass c, in their original order. The input
// slice is returned unchanged when c cannot exclude anything.
func Filter(rows []cell.Row, c Criteria) []cell.Row {
	if !c.Active() {
		return rows
	}
	out := make([]cell.Row, 0, len(rows))
	for _, r := range rows {
		if Include(r, c) {
			out = append(out, r)
		}
	}
	return out
}
