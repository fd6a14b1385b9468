package core

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Record is an ordered mapping from field name to value.
//
// Field order is the order of first insertion. Reading a missing field
// yields the empty string.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns an empty record sized for n fields.
func NewRecord(n int) Record {
	return Record{
		keys:   make([]string, 0, n),
		values: make(map[string]string, n),
	}
}

// RecordOf builds a record from alternating field/value arguments.
// A trailing field without a value is stored with an empty value.
func RecordOf(pairs ...string) Record {
	r := NewRecord(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		v := ""
		if i+1 < len(pairs) {
			v = pairs[i+1]
		}
		r.Set(pairs[i], v)
	}
	return r
}

// Set assigns a value. Overwriting keeps the original position.
func (r *Record) Set(field, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[field]; !ok {
		r.keys = append(r.keys, field)
	}
	r.values[field] = value
}

// Get returns the value of field, or "" when absent.
func (r Record) Get(field string) string {
	return r.values[field]
}

// Lookup returns the value of field and whether it is present.
func (r Record) Lookup(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Fields returns the field names in order.
func (r Record) Fields() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.keys)
}

// IsBlank reports whether no field holds a non-blank value.
func (r Record) IsBlank() bool {
	for _, k := range r.keys {
		if strings.TrimSpace(r.values[k]) != "" {
			return false
		}
	}
	return true
}

// Map returns an unordered copy of the record.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.keys))
	for _, k := range r.keys {
		out[k] = r.values[k]
	}
	return out
}

// MarshalJSON encodes the record as a JSON object preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
