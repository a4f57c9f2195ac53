package catalog

import (
	"bytes"
	"encoding/json"
)

// Payload is a schema-less JSON object stored on an entity. A nil Payload means the
// field is absent.
type Payload map[string]any

// Get returns the value stored under key
func (p Payload) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[key]
	return v, ok
}

// IsEmpty reports whether the payload has no keys
func (p Payload) IsEmpty() bool {
	return len(p) == 0
}

// Keys returns the payload keys in map order
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns a shallow copy of the payload
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParsePayload decodes a JSON object, keeping numbers as json.Number so that
// numeric rules see the exact stored text.
func ParsePayload(raw []byte) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return p, nil
}

// MarshalPayload encodes the payload, returning nil for an absent payload
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}
