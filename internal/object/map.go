package object

// IsaKey is the magic key that points a map at its prototype parent,
// forming the __isa chain spec.md §3/§4.4 describes.
const IsaKey = "__isa"

// Map is a mutable, insertion-ordered mapping from Value to Value. Key
// lookup uses Hash+Equal at DefaultEqualityDepth rather than Go map
// identity, per the Design Notes ("Map key equality") in spec.md §9 —
// two distinct *String keys with the same content must collide.
type Map struct {
	keys   []Value
	vals   []Value
	byHash map[uint64][]int

	// AssignOverride, if set, is invoked on every element-set before the
	// underlying store is mutated. If it reports handled=true, Set
	// leaves the store untouched (spec.md §3).
	AssignOverride func(key, val Value) (handled bool)
}

func (*Map) Type() Type { return MapType }

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{byHash: make(map[uint64][]int)}
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns the map's keys in insertion order. Callers must not
// mutate the returned slice.
func (m *Map) Keys() []Value { return m.keys }

// find returns the slot index of key, or -1 if absent.
func (m *Map) find(key Value) int {
	h := Hash(key, DefaultEqualityDepth)
	for _, idx := range m.byHash[h] {
		if Equal(m.keys[idx], key, DefaultEqualityDepth) == 1 {
			return idx
		}
	}
	return -1
}

// Get looks up key, walking neither __isa nor any prototype — that
// belongs to the dotted-access resolver in the vm package.
func (m *Map) Get(key Value) (Value, bool) {
	idx := m.find(key)
	if idx < 0 {
		return nil, false
	}
	return m.vals[idx], true
}

// GetStr is a convenience wrapper for the very common string-key case
// (e.g. __isa lookups).
func (m *Map) GetStr(key string) (Value, bool) {
	return m.Get(NewString(key))
}

// RawSet inserts or overwrites key without consulting AssignOverride.
// Used for construction (parsing map literals) and by intrinsics that
// must bypass a host-installed override hook (e.g. building a prototype
// object from scratch).
func (m *Map) RawSet(key, val Value) {
	if idx := m.find(key); idx >= 0 {
		m.vals[idx] = val
		return
	}
	idx := len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, val)
	h := Hash(key, DefaultEqualityDepth)
	m.byHash[h] = append(m.byHash[h], idx)
}

// Set inserts or overwrites key, honouring AssignOverride.
func (m *Map) Set(key, val Value) {
	if m.AssignOverride != nil {
		if m.AssignOverride(key, val) {
			return
		}
	}
	m.RawSet(key, val)
}

// Delete removes key if present, preserving the order of the rest.
func (m *Map) Delete(key Value) bool {
	idx := m.find(key)
	if idx < 0 {
		return false
	}
	m.keys = append(m.keys[:idx], m.keys[idx+1:]...)
	m.vals = append(m.vals[:idx], m.vals[idx+1:]...)
	m.byHash = make(map[uint64][]int, len(m.keys))
	for i, k := range m.keys {
		h := Hash(k, DefaultEqualityDepth)
		m.byHash[h] = append(m.byHash[h], i)
	}
	return true
}

// Clone returns a shallow copy: new key/value slices, same element
// references. Used by map "+" and the "replace" intrinsic; CopyA builds
// map literals through the vm's cloneValue instead.
func (m *Map) Clone() *Map {
	n := NewMap()
	for i, k := range m.keys {
		n.RawSet(k, m.vals[i])
	}
	return n
}

// Isa returns the map this map's __isa key points at, if any.
func (m *Map) Isa() (*Map, bool) {
	v, ok := m.GetStr(IsaKey)
	if !ok {
		return nil, false
	}
	parent, ok := v.(*Map)
	return parent, ok
}
