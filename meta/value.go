// Package meta implements the Metadata Block: a free-form nested value of
// ordered maps, sequences and scalars, serialized as YAML.
package meta

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"
)

// Kind is the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is one key/value pair of a map.
type Entry struct {
	Key   string
	Value Value
}

// Value is a recursive sum type. The zero Value is null.
//
// Values have value semantics: constructors and accessors copy the
// underlying slices so no two Values alias each other.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	s       string
	items   []Value
	entries []Entry
	// tag is the YAML tag a string was read with when it was not !!str,
	// e.g. !!timestamp, so it is written back unquoted.
	tag string
	// keyTags is the same for the map keys that were not strings.
	keyTags map[string]string
}

func Null() Value           { return Value{} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }

// Seq returns a sequence of the given items.
func Seq(items ...Value) Value {
	return Value{kind: KindSeq, items: cloneItems(items)}
}

// Map returns a map with the given entries in order. A repeated key keeps
// its first position and its last value.
func Map(entries ...Entry) Value {
	v := Value{kind: KindMap, entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		v = v.With(e.Key, e.Value)
	}
	return v
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsString() string { return v.s }

// Len returns the number of items of a sequence or entries of a map.
func (v Value) Len() int {
	switch v.kind {
	case KindSeq:
		return len(v.items)
	case KindMap:
		return len(v.entries)
	default:
		return 0
	}
}

// Items returns a copy of the items of a sequence.
func (v Value) Items() []Value {
	return cloneItems(v.items)
}

// Entries returns a copy of the entries of a map, in order.
func (v Value) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	for i, e := range v.entries {
		out[i] = Entry{Key: e.Key, Value: e.Value.Clone()}
	}
	return out
}

// Keys returns the keys of a map, in order.
func (v Value) Keys() []string {
	out := make([]string, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.Key
	}
	return out
}

// Get returns the value of key in a map.
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value.Clone(), true
		}
	}
	return Value{}, false
}

// With returns a copy of the map v with key set to val. An existing key
// keeps its position; a new key is appended. A non-map v is replaced by a
// map holding only key.
func (v Value) With(key string, val Value) Value {
	out := Value{kind: KindMap}
	if v.kind == KindMap {
		out.entries = v.Entries()
		out.keyTags = maps.Clone(v.keyTags)
	}
	for i := range out.entries {
		if out.entries[i].Key == key {
			out.entries[i].Value = val.Clone()
			return out
		}
	}
	out.entries = append(out.entries, Entry{Key: key, Value: val.Clone()})
	return out
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSeq:
		v.items = cloneItems(v.items)
	case KindMap:
		v.entries = v.Entries()
		v.keyTags = maps.Clone(v.keyTags)
	}
	return v
}

// Equal reports deep equality. Map entries must be in the same order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindSeq:
		return slices.EqualFunc(v.items, o.items, Value.Equal)
	case KindMap:
		return slices.EqualFunc(v.entries, o.entries, func(a, b Entry) bool {
			return a.Key == b.Key && a.Value.Equal(b.Value)
		})
	default:
		return false
	}
}

// Any converts v to plain Go values: map[string]any, []any, and scalars.
// Key order is lost.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindSeq:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Any()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.entries))
		for _, e := range v.entries {
			out[e.Key] = e.Value.Any()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts plain Go values to a Value. Map keys are sorted since Go
// maps have no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t.Clone(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint32:
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Value{kind: KindSeq, items: items}, nil
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return Value{kind: KindSeq, items: items}, nil
	case map[string]any:
		out := Value{kind: KindMap, entries: make([]Entry, 0, len(t))}
		for _, k := range slices.Sorted(maps.Keys(t)) {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			out.entries = append(out.entries, Entry{Key: k, Value: v})
		}
		return out, nil
	default:
		return Value{}, fmt.Errorf("unsupported metadata type %T", x)
	}
}

func cloneItems(items []Value) []Value {
	if items == nil {
		return nil
	}
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
