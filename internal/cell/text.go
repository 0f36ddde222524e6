package cell

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Date layouts used for the default text form.
const (
	dayLayout      = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Text returns the default textual form of v.
//
//   - null and opaque values render as ""
//   - numbers use the shortest representation that round-trips
//   - dates render as 2006-01-02, with a time part when not at midnight
//   - sequences join their elements' text with ","
//   - mappings render as their structural serialization, or "" if that fails
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return formatDate(v.t)
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, item := range v.seq {
			parts[i] = item.Text()
		}
		return strings.Join(parts, ",")
	case KindMapping:
		s, err := Serialize(v)
		if err != nil {
			return ""
		}
		return s
	}
	return ""
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dayLayout)
	}
	return t.Format(dateTimeLayout)
}

// Serialize returns the structural JSON serialization of v. Mapping keys are
// emitted in sorted order so equal values serialize identically. It fails for
// values JSON cannot represent (non-finite numbers) and for opaque handles.
func Serialize(v Value) (string, error) {
	native, err := v.native(true)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(native)
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", v.kind, err)
	}
	return string(b), nil
}

// Native converts v to plain Go values (string, float64, bool, time.Time,
// []any, map[string]any). Opaque handles and non-finite numbers become nil.
func (v Value) Native() any {
	n, _ := v.native(false)
	return n
}

func (v Value) native(strict bool) (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindString:
		return v.str, nil
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			if strict {
				return nil, fmt.Errorf("unsupported number %v", v.num)
			}
			return nil, nil
		}
		return v.num, nil
	case KindBool:
		return v.b, nil
	case KindDate:
		return v.t, nil
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			n, err := item.native(strict)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case KindMapping:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			n, err := item.native(strict)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case KindOpaque:
		if strict {
			return nil, fmt.Errorf("opaque value is not serializable")
		}
		return nil, nil
	}
	return nil, nil
}

// MarshalJSON encodes v leniently: opaque handles and non-finite numbers
// become null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// UnmarshalJSON decodes any JSON value. Objects become mappings, arrays
// become sequences; no date detection is performed.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode cell value: %w", err)
	}
	*v = FromAny(raw)
	return nil
}
