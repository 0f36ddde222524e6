package cell

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Field is one named cell, used to build rows in column order.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for a Field.
func F(name string, v any) Field { return Field{Name: name, Value: FromAny(v)} }

// Row is an ordered mapping from column name to Value.
type Row struct {
	keys  []string
	cells map[string]Value
}

// NewRow builds a row from fields. A repeated name keeps its first position
// and its last value.
func NewRow(fields ...Field) Row {
	r := Row{
		keys:  make([]string, 0, len(fields)),
		cells: make(map[string]Value, len(fields)),
	}
	for _, f := range fields {
		if _, seen := r.cells[f.Name]; !seen {
			r.keys = append(r.keys, f.Name)
		}
		r.cells[f.Name] = f.Value
	}
	return r
}

// Get returns the value at column, or Null if the column is absent.
func (r Row) Get(column string) Value {
	return r.cells[column]
}

// Has reports whether the row carries column.
func (r Row) Has(column string) bool {
	_, ok := r.cells[column]
	return ok
}

// Keys returns the column names in order. The slice must not be modified.
func (r Row) Keys() []string { return r.keys }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.keys) }

// With returns a copy of r with column set to v.
func (r Row) With(column string, v Value) Row {
	out := Row{
		keys:  make([]string, len(r.keys), len(r.keys)+1),
		cells: make(map[string]Value, len(r.cells)+1),
	}
	copy(out.keys, r.keys)
	for k, cv := range r.cells {
		out.cells[k] = cv
	}
	if _, ok := out.cells[column]; !ok {
		out.keys = append(out.keys, column)
	}
	out.cells[column] = v
	return out
}

// MarshalJSON encodes the row as an object, preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := r.cells[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, preserving key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	row, err := decodeRow(dec)
	if err != nil {
		return err
	}
	*r = row
	return nil
}

// DecodeRows reads a JSON array of objects, preserving each object's key order.
func DecodeRows(rd io.Reader) ([]Row, error) {
	dec := json.NewDecoder(rd)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errors.New("read rows: expected a JSON array")
	}

	var rows []Row
	for dec.More() {
		row, err := decodeRow(dec)
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

func decodeRow(dec *json.Decoder) (Row, error) {
	tok, err := dec.Token()
	if err != nil {
		return Row{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Row{}, errors.New("expected a JSON object")
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Row{}, fmt.Errorf("unexpected key %v", keyTok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return Row{}, fmt.Errorf("column %q: %w", key, err)
		}
		fields = append(fields, Field{Name: key, Value: FromAny(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return Row{}, err
	}
	return NewRow(fields...), nil
}

// VisibleColumns returns the first row's columns minus those starting with
// reservedPrefix. An empty row set has no visible columns.
func VisibleColumns(rows []Row, reservedPrefix string) []string {
	if len(rows) == 0 {
		return []string{}
	}
	cols := make([]string, 0, rows[0].Len())
	for _, k := range rows[0].Keys() {
		if reservedPrefix != "" && strings.HasPrefix(k, reservedPrefix) {
			continue
		}
		cols = append(cols, k)
	}
	return cols
}
