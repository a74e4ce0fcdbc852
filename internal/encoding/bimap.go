package encoding

import (
	"encoding/json"
	"strings"
)

// BidirectionalMap keeps a forward (channel -> field) and a backward
// (field -> channel) map in lockstep. The zero value is ready to use.
//
// Keys are not unique across sides: a colliding write replaces the earlier
// pair on both sides (last write wins).
type BidirectionalMap struct {
	forward      map[string]string
	backward     map[string]string
	forwardKeys  []string
	backwardKeys []string
}

// NewBidirectionalMap returns an empty map.
func NewBidirectionalMap() *BidirectionalMap {
	return &BidirectionalMap{}
}

// AddForward binds key to value and value back to key.
func (m *BidirectionalMap) AddForward(key, value string) {
	if m.forward == nil {
		m.forward = map[string]string{}
		m.backward = map[string]string{}
	}
	if old, ok := m.forward[key]; ok && m.backward[old] == key {
		delete(m.backward, old)
		m.backwardKeys = without(m.backwardKeys, old)
	}
	if old, ok := m.backward[value]; ok && m.forward[old] == value {
		delete(m.forward, old)
		m.forwardKeys = without(m.forwardKeys, old)
	}
	if _, ok := m.forward[key]; !ok {
		m.forwardKeys = append(m.forwardKeys, key)
	}
	if _, ok := m.backward[value]; !ok {
		m.backwardKeys = append(m.backwardKeys, value)
	}
	m.forward[key] = value
	m.backward[value] = key
}

// AddBackward binds value to key in the backward direction; it is AddForward(value, key).
func (m *BidirectionalMap) AddBackward(key, value string) {
	m.AddForward(value, key)
}

// GetForward returns the field bound to a channel.
func (m *BidirectionalMap) GetForward(key string) (string, bool) {
	v, ok := m.forward[key]
	return v, ok
}

// GetBackward returns the channel bound to a field.
func (m *BidirectionalMap) GetBackward(key string) (string, bool) {
	v, ok := m.backward[key]
	return v, ok
}

// HasForward reports whether a channel is bound.
func (m *BidirectionalMap) HasForward(key string) bool {
	_, ok := m.forward[key]
	return ok
}

// ForwardKeys returns the bound channels in insertion order.
func (m *BidirectionalMap) ForwardKeys() []string {
	return append([]string(nil), m.forwardKeys...)
}

// BackwardKeys returns the bound fields in insertion order.
func (m *BidirectionalMap) BackwardKeys() []string {
	return append([]string(nil), m.backwardKeys...)
}

// Len returns the number of bound pairs.
func (m *BidirectionalMap) Len() int {
	return len(m.forward)
}

// String renders one "key <-> value" pair per line.
func (m *BidirectionalMap) String() string {
	return m.format("\n")
}

// Compact renders the pairs on a single comma-separated line.
func (m *BidirectionalMap) Compact() string {
	return m.format(", ")
}

func (m *BidirectionalMap) format(sep string) string {
	parts := make([]string, 0, len(m.forwardKeys))
	for _, k := range m.forwardKeys {
		parts = append(parts, k+" <-> "+m.forward[k])
	}
	return strings.Join(parts, sep)
}

// MarshalJSON encodes the forward map.
func (m *BidirectionalMap) MarshalJSON() ([]byte, error) {
	if m.forward == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.forward)
}

func without(keys []string, drop string) []string {
	out := keys[:0]
	for _, k := range keys {
		if k != drop {
			out = append(out, k)
		}
	}
	return out
}
