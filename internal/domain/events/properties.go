package events

import (
	"bytes"
	"encoding/json"
)

// Properties is an insertion-ordered mapping of property names to values.
// Setting an existing name replaces the value but keeps its original slot,
// so serialization order is stable across updates. A nil *Properties reads
// as empty.
type Properties struct {
	names  []string
	values map[string]Value
}

func NewProperties() *Properties {
	return &Properties{values: make(map[string]Value)}
}

// Set stores a value under name and returns the receiver for chaining.
func (p *Properties) Set(name string, v Value) *Properties {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, exists := p.values[name]; !exists {
		p.names = append(p.names, name)
	}
	p.values[name] = v
	return p
}

func (p *Properties) Get(name string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p.values[name]
	return v, ok
}

func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Names returns the property names in insertion order.
func (p *Properties) Names() []string {
	if p == nil {
		return nil
	}
	cp := make([]string, len(p.names))
	copy(cp, p.names)
	return cp
}

// Clone returns a deep copy. Cloning nil yields an empty mapping so callers
// can mutate the result unconditionally.
func (p *Properties) Clone() *Properties {
	out := NewProperties()
	if p == nil {
		return out
	}
	for _, name := range p.names {
		out.Set(name, p.values[name].clone())
	}
	return out
}

// Merge lays overlay over base: base order first, overlay values win on
// collision, names new to overlay are appended in overlay order.
func Merge(base, overlay *Properties) *Properties {
	out := base.Clone()
	if overlay == nil {
		return out
	}
	for _, name := range overlay.names {
		out.Set(name, overlay.values[name].clone())
	}
	return out
}

// MarshalJSON writes a compact JSON object in insertion order.
func (p *Properties) MarshalJSON() ([]byte, error) {
	if p == nil || len(p.names) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := p.values[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders the mapping as the compact JSON string carried on the wire.
func (p *Properties) Encode() (string, error) {
	b, err := p.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
