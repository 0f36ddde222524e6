package cell

// convert.go turns driver and decoder output into Values.
//
// Rows arrive from pgx (native Go types plus pgtype wrappers), from decoded
// JSON files, and from hand-built fixtures. Anything that is not recognizable
// data is wrapped as an opaque handle so it can never leak into substring or
// ordering logic.

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// FromAny converts a Go value into a Value.
func FromAny(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case *Value:
		if val == nil {
			return Null()
		}
		return *val
	case string:
		return String(val)
	case []byte:
		return String(string(val))
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int8:
		return Int(int64(val))
	case int16:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case uint:
		return Number(float64(val))
	case uint8:
		return Number(float64(val))
	case uint16:
		return Number(float64(val))
	case uint32:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case float32:
		return Number(float64(val))
	case float64:
		return Number(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return String(val.String())
		}
		return Number(f)
	case time.Time:
		return Date(val)
	case *time.Time:
		if val == nil {
			return Null()
		}
		return Date(*val)
	case [16]byte:
		return String(uuid.UUID(val).String())
	case uuid.UUID:
		return String(val.String())
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = FromAny(item)
		}
		return Value{kind: KindSequence, seq: items}
	case []string:
		return Strings(val...)
	case map[string]any:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			m[k] = FromAny(item)
		}
		return Value{kind: KindMapping, m: m}
	}

	if pv, ok := fromPgtype(v); ok {
		return pv
	}
	return fromReflect(v)
}

// fromPgtype handles the pgtype wrappers pgx returns from rows.Values().
func fromPgtype(v any) (Value, bool) {
	switch val := v.(type) {
	case pgtype.Text:
		if !val.Valid {
			return Null(), true
		}
		return String(val.String), true
	case pgtype.Bool:
		if !val.Valid {
			return Null(), true
		}
		return Bool(val.Bool), true
	case pgtype.Int2:
		if !val.Valid {
			return Null(), true
		}
		return Int(int64(val.Int16)), true
	case pgtype.Int4:
		if !val.Valid {
			return Null(), true
		}
		return Int(int64(val.Int32)), true
	case pgtype.Int8:
		if !val.Valid {
			return Null(), true
		}
		return Int(val.Int64), true
	case pgtype.Float4:
		if !val.Valid {
			return Null(), true
		}
		return Number(float64(val.Float32)), true
	case pgtype.Float8:
		if !val.Valid {
			return Null(), true
		}
		return Number(val.Float64), true
	case pgtype.Numeric:
		return fromNumeric(val), true
	case pgtype.Date:
		if !val.Valid || val.InfinityModifier != pgtype.Finite {
			return Null(), true
		}
		return Date(val.Time), true
	case pgtype.Timestamp:
		if !val.Valid || val.InfinityModifier != pgtype.Finite {
			return Null(), true
		}
		return Date(val.Time), true
	case pgtype.Timestamptz:
		if !val.Valid || val.InfinityModifier != pgtype.Finite {
			return Null(), true
		}
		return Date(val.Time), true
	case pgtype.UUID:
		if !val.Valid {
			return Null(), true
		}
		return String(uuid.UUID(val.Bytes).String()), true
	}
	return Value{}, false
}

func fromNumeric(n pgtype.Numeric) Value {
	if !n.Valid {
		return Null()
	}
	if n.NaN {
		return Number(math.NaN())
	}
	switch n.InfinityModifier {
	case pgtype.Infinity:
		return Number(math.Inf(1))
	case pgtype.NegativeInfinity:
		return Number(math.Inf(-1))
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		if n.Int == nil {
			return Null()
		}
		r := new(big.Float).SetInt(n.Int)
		out, _ := r.Float64()
		return Number(out * math.Pow10(int(n.Exp)))
	}
	return Number(f.Float64)
}

// fromReflect covers typed slices and maps (e.g. []int32 for int4[]) and
// falls back to an opaque handle.
func fromReflect(v any) Value {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null()
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = FromAny(rv.Index(i).Interface())
		}
		return Value{kind: KindSequence, seq: items}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Opaque(v)
		}
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = FromAny(iter.Value().Interface())
		}
		return Value{kind: KindMapping, m: m}
	case reflect.String:
		return String(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	}
	if s, ok := v.(fmt.Stringer); ok {
		return String(s.String())
	}
	return Opaque(v)
}
