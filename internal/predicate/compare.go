package predicate

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/dashboard/internal/cell"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota + 1
	Descending
)

func (d Direction) sign() int {
	if d == Descending {
		return -1
	}
	return 1
}

// Comparator orders cell values. It holds a collator and is not safe for
// concurrent use; each pipeline owns one.
type Comparator struct {
	coll *collate.Collator
}

// NewComparator returns a comparator whose string fallback is case-insensitive
// and collated for tag.
func NewComparator(tag language.Tag) *Comparator {
	return &Comparator{coll: collate.New(tag, collate.IgnoreCase)}
}

// Compare orders a and b under dir. The cascade, first applicable step wins:
//
//  1. both null: equal
//  2. one null: null first ascending, last descending
//  3. both dates: by timestamp
//  4. both parse as dates: by parsed timestamp
//  5. both numbers: numerically
//  6. both parse as floats: numerically
//  7. both booleans: false before true
//  8. case-insensitive collated text
//
// Opaque handles are ordered like nulls.
func (c *Comparator) Compare(a, b cell.Value, dir Direction) int {
	aNull, bNull := isNullish(a), isNullish(b)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -dir.sign()
	case bNull:
		return dir.sign()
	}
	return c.compareValues(a, b) * dir.sign()
}

func (c *Comparator) compareValues(a, b cell.Value) int {
	if at, ok := a.Time(); ok {
		if bt, ok := b.Time(); ok {
			return at.Compare(bt)
		}
	}

	if at, ok := a.ParsesAsDate(); ok {
		if bt, ok := b.ParsesAsDate(); ok {
			return at.Compare(bt)
		}
	}

	if an, ok := a.Num(); ok {
		if bn, ok := b.Num(); ok {
			return compareFloat(an, bn)
		}
	}

	if af, ok := a.AsFloat(); ok {
		if bf, ok := b.AsFloat(); ok {
			return compareFloat(af, bf)
		}
	}

	if ab, ok := a.BoolVal(); ok {
		if bb, ok := b.BoolVal(); ok {
			return compareBool(ab, bb)
		}
	}

	return c.coll.CompareString(a.Text(), b.Text())
}

func isNullish(v cell.Value) bool {
	return v.Kind() == cell.KindNull || v.Kind() == cell.KindOpaque
}

// compareFloat treats NaN as equal to everything.
func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// SortRows returns a stably sorted copy of rows ordered by column.
func (c *Comparator) SortRows(rows []cell.Row, column string, dir Direction) []cell.Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(x, y cell.Row) int {
		return c.Compare(x.Get(column), y.Get(column), dir)
	})
	return out
}
