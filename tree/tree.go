// Package tree models the schema-less object trees produced by the
// archive decoder. A Value is a tagged union of the shapes the decoder
// can emit; every accessor returns Absent instead of failing, so callers
// can chain lookups over untrusted structure without branching.
package tree

import "time"

// Kind identifies the runtime variant of a Value.
type Kind uint8

const (
	Absent Kind = iota
	Map
	Seq
	Text
	Bytes
	Time
	Scalar
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Map:
		return "map"
	case Seq:
		return "seq"
	case Text:
		return "text"
	case Bytes:
		return "bytes"
	case Time:
		return "time"
	case Scalar:
		return "scalar"
	}
	return "unknown"
}

// mapData keeps insertion order alongside the key index.
type mapData struct {
	keys   []string
	values map[string]Value
}

// Value is one node of a decoded object tree. The zero Value is Absent.
type Value struct {
	kind   Kind
	m      *mapData
	items  []Value
	text   string
	data   []byte
	when   time.Time
	scalar any
}

// NewMap returns an empty, mutable map value.
func NewMap() Value {
	return Value{kind: Map, m: &mapData{values: make(map[string]Value)}}
}

// Set inserts or replaces a key. First insertion order is preserved.
// No-op on non-map values.
func (v Value) Set(key string, child Value) {
	if v.kind != Map {
		return
	}
	if _, exists := v.m.values[key]; !exists {
		v.m.keys = append(v.m.keys, key)
	}
	v.m.values[key] = child
}

// NewSeq wraps items as an ordered sequence.
func NewSeq(items []Value) Value {
	return Value{kind: Seq, items: items}
}

// NewText wraps a text scalar.
func NewText(s string) Value {
	return Value{kind: Text, text: s}
}

// NewBytes wraps a byte blob.
func NewBytes(b []byte) Value {
	return Value{kind: Bytes, data: b}
}

// NewTime wraps a date-time.
func NewTime(t time.Time) Value {
	return Value{kind: Time, when: t}
}

// NewScalar wraps any other scalar (numbers, booleans).
func NewScalar(s any) Value {
	return Value{kind: Scalar, scalar: s}
}

// Kind returns the runtime variant of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether v is the Absent variant.
func (v Value) IsAbsent() bool {
	return v.kind == Absent
}

// Key returns the entry for name, or Absent if v is not a map or the
// key is missing.
func (v Value) Key(name string) Value {
	if v.kind != Map {
		return Value{}
	}
	return v.m.values[name]
}

// At returns the i-th element, or Absent if v is not a sequence or i is
// out of range.
func (v Value) At(i int) Value {
	if v.kind != Seq || i < 0 || i >= len(v.items) {
		return Value{}
	}
	return v.items[i]
}

// Dig descends a chain of map keys, returning Absent on the first
// mismatch.
func (v Value) Dig(keys ...string) Value {
	for _, key := range keys {
		v = v.Key(key)
	}
	return v
}

// Text returns the text payload and whether v is a text value.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == Text
}

// Bytes returns the blob payload and whether v is a bytes value.
func (v Value) Bytes() ([]byte, bool) {
	return v.data, v.kind == Bytes
}

// Time returns the date-time payload and whether v is a time value.
func (v Value) Time() (time.Time, bool) {
	return v.when, v.kind == Time
}

// Scalar returns the scalar payload and whether v is a scalar value.
func (v Value) Scalar() (any, bool) {
	return v.scalar, v.kind == Scalar
}

// Len returns the element count for maps and sequences, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Map:
		return len(v.m.keys)
	case Seq:
		return len(v.items)
	}
	return 0
}

// Keys returns map keys in first-insertion order, nil for non-maps.
func (v Value) Keys() []string {
	if v.kind != Map {
		return nil
	}
	return v.m.keys
}

// Items returns the sequence elements, nil for non-sequences.
func (v Value) Items() []Value {
	if v.kind != Seq {
		return nil
	}
	return v.items
}

// Elements normalizes the "sometimes one object, sometimes a list"
// shape into a uniform slice: Absent yields nil, a sequence yields its
// elements, anything else yields a single-element slice.
func (v Value) Elements() []Value {
	switch v.kind {
	case Absent:
		return nil
	case Seq:
		return v.items
	}
	return []Value{v}
}
