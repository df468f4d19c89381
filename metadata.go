package pf

import "fmt"

// Scalar is the set of Go types that map onto a Kind. int is stored as long.
type Scalar interface {
	int | int64 | float64 | string | bool
}

// Attributes is implemented by anything that can answer scalar lookups.
// Both *Metadata and *AntelopePf satisfy it.
type Attributes interface {
	Lookup(key string) (Value, bool)
}

// Metadata is an ordered, typed key-value store. The zero value is empty and
// ready to use. A Metadata is not safe for concurrent use.
type Metadata struct {
	keys     []string
	values   map[string]Value
	modified map[string]struct{}
}

// NewMetadata returns an empty store.
func NewMetadata() *Metadata {
	return &Metadata{}
}

func (m *Metadata) init() {
	if m.values == nil {
		m.values = make(map[string]Value)
		m.modified = make(map[string]struct{})
	}
}

// Put inserts or replaces the value stored under key. A replaced key keeps
// its position in iteration order.
func (m *Metadata) Put(key string, v Value) {
	if key == "" || !v.IsValid() {
		return
	}
	m.init()
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	m.modified[key] = struct{}{}
}

// PutLong stores an integer.
func (m *Metadata) PutLong(key string, v int64) { m.Put(key, Long(v)) }

// PutInt stores an int; it is kept as a long.
func (m *Metadata) PutInt(key string, v int) { m.Put(key, Long(int64(v))) }

// PutDouble stores a real.
func (m *Metadata) PutDouble(key string, v float64) { m.Put(key, Double(v)) }

// PutString stores text.
func (m *Metadata) PutString(key string, v string) { m.Put(key, Str(v)) }

// PutBool stores a boolean.
func (m *Metadata) PutBool(key string, v bool) { m.Put(key, Bool(v)) }

// Put stores v under key with the Kind matching T.
func Put[T Scalar](m *Metadata, key string, v T) {
	switch x := any(v).(type) {
	case int:
		m.Put(key, Long(int64(x)))
	case int64:
		m.Put(key, Long(x))
	case float64:
		m.Put(key, Double(x))
	case string:
		m.Put(key, Str(x))
	case bool:
		m.Put(key, Bool(x))
	}
}

// Get returns the value under key as T. It fails with a *GetError when the
// key is absent or the stored kind is not T's kind; there is no numeric
// coercion.
func Get[T Scalar](attrs Attributes, key string) (T, error) {
	var out T
	want := kindFor[T]()
	v, ok := attrs.Lookup(key)
	if !ok {
		return out, &GetError{Key: key, Space: SpaceAttribute, Want: want}
	}
	if v.kind != want {
		return out, &GetError{Key: key, Space: SpaceAttribute, Want: want, Found: v.kind}
	}
	switch p := any(&out).(type) {
	case *int:
		*p = int(v.longVal)
	case *int64:
		*p = v.longVal
	case *float64:
		*p = v.doubleVal
	case *string:
		*p = v.strVal
	case *bool:
		*p = v.boolVal
	}
	return out, nil
}

func kindFor[T Scalar]() Kind {
	var zero T
	switch any(zero).(type) {
	case int, int64:
		return KindLong
	case float64:
		return KindDouble
	case string:
		return KindString
	case bool:
		return KindBool
	}
	return KindInvalid
}

// Lookup returns the value stored under key.
func (m *Metadata) Lookup(key string) (Value, bool) {
	if m == nil || m.values == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// GetDouble returns a real attribute.
func (m *Metadata) GetDouble(key string) (float64, error) { return Get[float64](m, key) }

// GetInt returns an integer attribute as int.
func (m *Metadata) GetInt(key string) (int, error) { return Get[int](m, key) }

// GetLong returns an integer attribute.
func (m *Metadata) GetLong(key string) (int64, error) { return Get[int64](m, key) }

// GetString returns a text attribute.
func (m *Metadata) GetString(key string) (string, error) { return Get[string](m, key) }

// GetBool returns a boolean attribute. A missing key is an error, not false.
func (m *Metadata) GetBool(key string) (bool, error) { return Get[bool](m, key) }

// Has reports whether key is set.
func (m *Metadata) Has(key string) bool {
	_, ok := m.Lookup(key)
	return ok
}

// Type returns the kind stored under key.
func (m *Metadata) Type(key string) (Kind, error) {
	v, ok := m.Lookup(key)
	if !ok {
		return KindInvalid, &GetError{Key: key, Space: SpaceAttribute}
	}
	return v.kind, nil
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Erase removes key. It reports whether the key was present.
func (m *Metadata) Erase(key string) bool {
	if !m.Has(key) {
		return false
	}
	delete(m.values, key)
	delete(m.modified, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// ModifiedKeys returns the keys put or merged since creation or the last
// ClearModified, in iteration order.
func (m *Metadata) ModifiedKeys() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, k := range m.keys {
		if _, ok := m.modified[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// ClearModified resets the modified-key record.
func (m *Metadata) ClearModified() {
	if m.modified != nil {
		m.modified = make(map[string]struct{})
	}
}

// Clone returns an independent copy, including the modified-key record.
func (m *Metadata) Clone() *Metadata {
	out := NewMetadata()
	if m == nil || m.values == nil {
		return out
	}
	out.init()
	out.keys = append(out.keys, m.keys...)
	for k, v := range m.values {
		out.values[k] = v
	}
	for k := range m.modified {
		out.modified[k] = struct{}{}
	}
	return out
}

// Merge copies every attribute of other into m, replacing values for keys
// present in both. Keys only in m are left alone. It returns m.
func (m *Metadata) Merge(other *Metadata) *Metadata {
	if other == nil {
		return m
	}
	for _, k := range other.keys {
		m.Put(k, other.values[k])
	}
	return m
}

// Plus returns a new store holding m merged with other. Neither operand
// changes.
func (m *Metadata) Plus(other *Metadata) *Metadata {
	return m.Clone().Merge(other)
}

// Equal reports whether both stores hold the same keys with identical values.
// Iteration order is not compared.
func (m *Metadata) Equal(other *Metadata) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, k := range m.Keys() {
		a, _ := m.Lookup(k)
		b, ok := other.Lookup(k)
		if !ok || a != b {
			return false
		}
	}
	return true
}

// GoString supports %#v.
func (m *Metadata) GoString() string {
	return fmt.Sprintf("pf.Metadata(%d keys)", m.Len())
}
