package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Mark is the geometric shape a chart specification renders.
type Mark string

// Supported and recognized marks.
const (
	MarkBar    Mark = "bar"
	MarkLine   Mark = "line"
	MarkTick   Mark = "tick"
	MarkPoint  Mark = "point"
	MarkCircle Mark = "circle"
	MarkText   Mark = "text"
)

// Encoding field types.
const (
	TypeQuantitative = "quantitative"
	TypeTemporal     = "temporal"
	TypeNominal      = "nominal"
	TypeOrdinal      = "ordinal"
)

// Encoding channel names used by chart specifications.
const (
	ChannelX      = "x"
	ChannelY      = "y"
	ChannelColumn = "column"
	ChannelRow    = "row"
	ChannelColor  = "color"
)

// FieldDef describes the data field bound to one encoding channel.
type FieldDef struct {
	Field     string `json:"field,omitempty"`
	Type      string `json:"type,omitempty"`
	TimeUnit  string `json:"timeUnit,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`
	Bin       bool   `json:"bin,omitempty"`
}

// IsQuantitative reports whether the channel carries a quantitative field.
func (f FieldDef) IsQuantitative() bool { return f.Type == TypeQuantitative }

// IsTemporal reports whether the channel carries a temporal field.
func (f FieldDef) IsTemporal() bool { return f.Type == TypeTemporal }

// UnmarshalJSON accepts `bin` as either a boolean or a parameter object.
func (f *FieldDef) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field     json.RawMessage `json:"field"`
		Type      string          `json:"type"`
		TimeUnit  json.RawMessage `json:"timeUnit"`
		Aggregate string          `json:"aggregate"`
		Bin       json.RawMessage `json:"bin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Type = raw.Type
	f.Aggregate = raw.Aggregate
	f.Field = stringOrEmpty(raw.Field)
	f.TimeUnit = stringOrEmpty(raw.TimeUnit)
	b := bytes.TrimSpace(raw.Bin)
	f.Bin = len(b) > 0 && !bytes.Equal(b, []byte("false")) && !bytes.Equal(b, []byte("null"))
	return nil
}

// stringOrEmpty decodes a JSON string, returning "" for objects and other shapes.
func stringOrEmpty(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// DataDef is the data block of a chart specification.
type DataDef struct {
	Name   string `json:"name,omitempty"`
	URL    string `json:"url,omitempty"`
	Values []Row  `json:"values,omitempty"`
	Format struct {
		Type string `json:"type,omitempty"`
	} `json:"format,omitempty"`
}

// ChartSpec is a declarative chart specification. It is read-only once decoded.
type ChartSpec struct {
	Name     string
	Mark     Mark
	Encoding map[string]FieldDef
	// RawEncoding is the encoding block exactly as it appeared in the source document.
	RawEncoding json.RawMessage
	Data        *DataDef
}

// Channel returns the field definition bound to a channel, if any.
func (s *ChartSpec) Channel(name string) (FieldDef, bool) {
	if s == nil || s.Encoding == nil {
		return FieldDef{}, false
	}
	fd, ok := s.Encoding[name]
	return fd, ok
}

// ChannelNames returns the encoded channels in document order.
func (s *ChartSpec) ChannelNames() []string {
	var names []string
	if len(s.RawEncoding) > 0 {
		dec := json.NewDecoder(bytes.NewReader(s.RawEncoding))
		if tok, err := dec.Token(); err == nil && tok == json.Delim('{') {
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					break
				}
				name, _ := kt.(string)
				var skip json.RawMessage
				if err := dec.Decode(&skip); err != nil {
					break
				}
				if _, ok := s.Encoding[name]; ok {
					names = append(names, name)
				}
			}
		}
	}
	if len(names) == len(s.Encoding) {
		return names
	}
	names = names[:0]
	for name := range s.Encoding {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SerializedEncoding returns the encoding block as text.
func (s *ChartSpec) SerializedEncoding() string {
	if len(s.RawEncoding) > 0 {
		return string(s.RawEncoding)
	}
	b, err := json.Marshal(s.Encoding)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseChartSpec decodes a chart specification document.
func ParseChartSpec(data []byte) (*ChartSpec, error) {
	var raw struct {
		Name     string          `json:"name"`
		Mark     json.RawMessage `json:"mark"`
		Encoding json.RawMessage `json:"encoding"`
		Data     *DataDef        `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrValidation("decode chart specification: %v", err)
	}

	mark, err := parseMark(raw.Mark)
	if err != nil {
		return nil, err
	}

	spec := &ChartSpec{
		Name:        raw.Name,
		Mark:        mark,
		Encoding:    map[string]FieldDef{},
		RawEncoding: raw.Encoding,
		Data:        raw.Data,
	}
	if len(bytes.TrimSpace(raw.Encoding)) > 0 && !bytes.Equal(bytes.TrimSpace(raw.Encoding), []byte("null")) {
		if err := json.Unmarshal(raw.Encoding, &spec.Encoding); err != nil {
			return nil, ErrValidation("decode encoding block: %v", err)
		}
	}
	return spec, nil
}

// parseMark accepts `"bar"` as well as `{"type": "bar", ...}`.
func parseMark(raw json.RawMessage) (Mark, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return Mark(name), nil
	}
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", ErrValidation("decode mark: %v", err)
	}
	return Mark(obj.Type), nil
}

// TemporalDescriptor names a temporal field and the time-bucket unit the
// chart applied to it. An empty Unit means the field holds raw timestamps.
type TemporalDescriptor struct {
	Field string `json:"field"`
	Unit  string `json:"unit,omitempty"`
}

func (t TemporalDescriptor) String() string {
	if t.Unit == "" {
		return t.Field
	}
	return fmt.Sprintf("%s(%s)", t.Unit, t.Field)
}
