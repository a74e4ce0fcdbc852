package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Row maps a field name to a scalar value (string, float64, bool, time.Time or nil).
// An absent key is a missing value, distinct from an explicit nil.
type Row map[string]any

// Frame is an ordered sequence of rows sharing one column schema. Columns is
// the key order of the first row and defines the schema of the whole frame.
type Frame struct {
	Columns []string
	Rows    []Row
}

// NewFrame builds a frame whose schema is the given column order.
func NewFrame(columns []string, rows []Row) *Frame {
	return &Frame{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// HasColumn reports whether name is part of the schema.
func (f *Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the frame. Transformations always run on a
// clone so they never alias the engine's live buffers.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([]Row, len(f.Rows)),
	}
	for i, r := range f.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = cloneValue(v)
		}
		out.Rows[i] = cp
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, vv := range t {
			cp[k] = cloneValue(vv)
		}
		return cp
	case time.Time:
		return t
	default:
		return v
	}
}

// DecodeFrame decodes a JSON array of flat objects, keeping the key order of
// the first object as the frame's schema.
func DecodeFrame(data []byte) (*Frame, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return decodeFrame(dec)
}

func decodeFrame(dec *json.Decoder) (*Frame, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, ErrValidation("rows must be a JSON array")
	}

	frame := &Frame{}
	for dec.More() {
		row, keys, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		if len(frame.Rows) == 0 {
			frame.Columns = keys
		}
		frame.Rows = append(frame.Rows, row)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return frame, nil
}

func decodeObject(dec *json.Decoder) (Row, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("read row: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, ErrValidation("each row must be a JSON object")
	}
	row := Row{}
	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("read row key: %w", err)
		}
		key, _ := kt.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("read value of %q: %w", key, err)
		}
		if _, seen := row[key]; !seen {
			keys = append(keys, key)
		}
		row[key] = normalizeNumber(v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("read row: %w", err)
	}
	return row, keys, nil
}

// normalizeNumber turns json.Number into float64 so numeric cells share one type.
func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return f
}

// UnmarshalJSON keeps the first object's key order as Columns.
func (f *Frame) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeFrame(data)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// MarshalJSON writes the frame as an array of objects in column order.
func (f Frame) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range f.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		first := true
		for _, c := range f.Columns {
			v, ok := r[c]
			if !ok {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			k, _ := json.Marshal(c)
			buf.Write(k)
			buf.WriteByte(':')
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %q: %w", c, err)
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
