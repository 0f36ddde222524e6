// Package predicate decides row inclusion and row order for the table
// pipeline. Everything here is a pure function of its inputs: malformed cells
// degrade to "no match" or to a string comparison, never to an error.
package predicate

import (
	"strings"
	"time"

	"github.com/JonMunkholm/dashboard/internal/cell"
)

// Shape classifies a column filter value.
type Shape int

const (
	// ShapeNone means the filter imposes no constraint.
	ShapeNone Shape = iota
	// ShapeRange is a {startDate, endDate} mapping.
	ShapeRange
	// ShapeDate is a single date compared by calendar day.
	ShapeDate
	// ShapeMulti is a sequence of selected values.
	ShapeMulti
	// ShapeScalar is a substring match on the text form.
	ShapeScalar
)

func (s Shape) String() string {
	switch s {
	case ShapeRange:
		return "range"
	case ShapeDate:
		return "date"
	case ShapeMulti:
		return "multi"
	case ShapeScalar:
		return "scalar"
	}
	return "none"
}

// ShapeOf classifies a filter value. Null, empty strings, empty sequences,
// empty mappings and opaque handles impose no constraint.
func ShapeOf(f cell.Value) Shape {
	switch f.Kind() {
	case cell.KindNull, cell.KindOpaque:
		return ShapeNone
	case cell.KindString, cell.KindSequence, cell.KindMapping:
		if f.Len() == 0 {
			return ShapeNone
		}
	}

	switch f.Kind() {
	case cell.KindMapping:
		if isRange(f) {
			return ShapeRange
		}
		return ShapeScalar
	case cell.KindDate:
		return ShapeDate
	case cell.KindSequence:
		return ShapeMulti
	}
	return ShapeScalar
}

// isRange reports whether every key of the mapping is a range bound.
func isRange(f cell.Value) bool {
	for _, k := range f.Keys() {
		if k != cell.StartDateKey && k != cell.EndDateKey {
			return false
		}
	}
	return true
}

// Bounds holds the resolved limits of a range filter. A zero time means the
// bound is absent.
type Bounds struct {
	From time.Time // inclusive, start of day
	To   time.Time // inclusive, last millisecond of the day
}

// RangeBounds resolves the bounds of a range filter value. Bounds that are
// null, empty or unparseable are treated as absent.
func RangeBounds(f cell.Value) Bounds {
	var b Bounds
	if start, ok := f.Field(cell.StartDateKey); ok {
		if t, ok := start.AsDate(); ok {
			b.From = cell.StartOfDay(t)
		}
	}
	if end, ok := f.Field(cell.EndDateKey); ok {
		if t, ok := end.AsDate(); ok {
			b.To = cell.EndOfDay(t)
		}
	}
	return b
}

// MatchesFilter reports whether a row's cell passes one column filter.
func MatchesFilter(value, filter cell.Value) bool {
	switch ShapeOf(filter) {
	case ShapeNone:
		return true
	case ShapeRange:
		return matchRange(value, RangeBounds(filter))
	case ShapeDate:
		return matchDay(value, filter)
	case ShapeMulti:
		return matchAnySelected(value, filter.Items())
	default:
		return matchSubstring(value, filter.Text())
	}
}

func matchRange(value cell.Value, b Bounds) bool {
	t, ok := value.AsDate()
	if !ok {
		return false
	}
	if !b.From.IsZero() && t.Before(b.From) {
		return false
	}
	if !b.To.IsZero() && t.After(b.To) {
		return false
	}
	return true
}

func matchDay(value, filter cell.Value) bool {
	t, ok := value.AsDate()
	if !ok {
		return false
	}
	want, ok := filter.AsDate()
	if !ok {
		return false
	}
	return cell.SameDay(t, want)
}

// matchAnySelected compares selected values against the cell's entry labels,
// or against the cell itself when it is not a sequence.
func matchAnySelected(value cell.Value, selected []cell.Value) bool {
	if value.IsNull() || value.Kind() == cell.KindOpaque {
		return false
	}

	candidates := []cell.Value{value}
	if value.Kind() == cell.KindSequence {
		candidates = value.Items()
	}

	for _, c := range candidates {
		label := entryLabel(c)
		for _, s := range selected {
			if strings.EqualFold(s.Text(), label) {
				return true
			}
		}
	}
	return false
}

// entryLabel returns the label of a label/value entry, or the text form of a
// plain entry.
func entryLabel(v cell.Value) string {
	if v.Kind() == cell.KindMapping {
		if l, ok := v.Field(cell.LabelKey); ok {
			return l.Text()
		}
	}
	return v.Text()
}

func matchSubstring(value cell.Value, needle string) bool {
	needle = strings.ToLower(needle)

	switch value.Kind() {
	case cell.KindNull, cell.KindOpaque:
		return false
	case cell.KindSequence:
		for _, item := range value.Items() {
			if containsFold(structuralText(item), needle) {
				return true
			}
		}
		return false
	case cell.KindMapping:
		s, err := cell.Serialize(value)
		if err != nil {
			return false
		}
		return containsFold(s, needle)
	}
	return containsFold(value.Text(), needle)
}

// structuralText serializes nested mappings and uses the text form otherwise.
func structuralText(v cell.Value) string {
	if v.Kind() == cell.KindMapping {
		s, err := cell.Serialize(v)
		if err != nil {
			return ""
		}
		return s
	}
	return v.Text()
}

// containsFold expects needle to already be lower-cased.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
