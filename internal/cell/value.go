// Package cell defines the typed values that flow through the table pipeline.
//
// A [Value] is a closed tagged variant: every value carries an explicit [Kind]
// and the predicate and comparator code switches on that kind instead of
// probing dynamic types at runtime. Rows map column names to values and keep
// their column order.
package cell

import (
	"math"
	"sort"
	"time"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindSequence
	KindMapping
	KindOpaque
)

var kindNames = [...]string{
	KindNull:     "null",
	KindString:   "string",
	KindNumber:   "number",
	KindBool:     "bool",
	KindDate:     "date",
	KindSequence: "sequence",
	KindMapping:  "mapping",
	KindOpaque:   "opaque",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Well-known mapping keys.
const (
	LabelKey     = "label"
	ValueKey     = "value"
	StartDateKey = "startDate"
	EndDateKey   = "endDate"
)

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind   Kind
	str    string
	num    float64
	b      bool
	t      time.Time
	seq    []Value
	m      map[string]Value
	handle any
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int returns a numeric value from an integer.
func Int(i int64) Value { return Value{kind: KindNumber, num: float64(i)} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Sequence returns an ordered sequence of values.
func Sequence(items ...Value) Value {
	seq := make([]Value, len(items))
	copy(seq, items)
	return Value{kind: KindSequence, seq: seq}
}

// Strings is shorthand for a sequence of string values.
func Strings(items ...string) Value {
	seq := make([]Value, len(items))
	for i, s := range items {
		seq[i] = String(s)
	}
	return Value{kind: KindSequence, seq: seq}
}

// Mapping returns a nested mapping. The map is copied.
func Mapping(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMapping, m: cp}
}

// Label returns a label/value pair, the entry shape used by multi-select cells.
func Label(label string, value Value) Value {
	return Mapping(map[string]Value{LabelKey: String(label), ValueKey: value})
}

// DateRange returns a {startDate, endDate} mapping. Null bounds are omitted.
func DateRange(start, end Value) Value {
	m := make(map[string]Value, 2)
	if !start.IsNull() {
		m[StartDateKey] = start
	}
	if !end.IsNull() {
		m[EndDateKey] = end
	}
	return Value{kind: KindMapping, m: m}
}

// Opaque wraps a pre-rendered visual handle. Opaque values carry no
// filterable or sortable payload.
func Opaque(handle any) Value { return Value{kind: KindOpaque, handle: handle} }

// Kind returns the variant discriminant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// BoolVal returns the boolean payload.
func (v Value) BoolVal() (bool, bool) { return v.b, v.kind == KindBool }

// Time returns the date payload.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindDate }

// Items returns the sequence elements. The returned slice must not be modified.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Field returns a mapping entry.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	f, ok := v.m[key]
	return f, ok
}

// Keys returns the mapping keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Handle returns the opaque handle.
func (v Value) Handle() (any, bool) { return v.handle, v.kind == KindOpaque }

// Len returns the number of elements of a sequence or entries of a mapping,
// the byte length of a string, and zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return len(v.m)
	case KindString:
		return len(v.str)
	}
	return 0
}

// Equal reports whether a and b hold the same variant and payload.
// Opaque values are never equal to anything, including themselves.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindNumber:
		return a.num == b.num || (math.IsNaN(a.num) && math.IsNaN(b.num))
	case KindBool:
		return a.b == b.b
	case KindDate:
		return a.t.Equal(b.t)
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
