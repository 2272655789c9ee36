package versionmap

import (
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/ssaflow/bitset"
)

// Map is the segmented map from slot keys to reaching-version sets.
//
// A Map owns the sets stored in it: Put hands ownership over and Copy clones
// every set. A Map is not safe for concurrent use.
type Map struct {
	domains [numDomains]slots
	size    int
}

// New returns an empty map.
func New() *Map {
	return &Map{}
}

func (m *Map) domain(d Domain) *slots {
	if d >= numDomains {
		panic(fmt.Sprintf("versionmap: invalid domain %d", d))
	}
	return &m.domains[d]
}

// Size returns the number of occupied slots across all domains.
func (m *Map) Size() int {
	return m.size
}

// IsEmpty reports whether no slot is occupied.
func (m *Map) IsEmpty() bool {
	return m.size == 0
}

// Get returns the set at key, or nil.
func (m *Map) Get(key Key) *Versions {
	return m.domain(key.Domain).get(key.Index)
}

// Has reports whether key is occupied.
func (m *Map) Has(key Key) bool {
	return m.Get(key) != nil
}

// Put stores set at key. A nil or empty set removes the slot.
func (m *Map) Put(key Key, set *Versions) {
	if set == nil || set.IsEmpty() {
		m.Remove(key)
		return
	}
	if m.domain(key.Domain).put(key.Index, set) {
		m.size++
	}
}

// SetSingle replaces the set at key with {version}.
func (m *Map) SetSingle(key Key, f *bitset.SparseFactory[int32], version int32) {
	set := f.EmptySet()
	set.Add(version)
	m.Put(key, set)
}

// Remove deletes key.
func (m *Map) Remove(key Key) {
	if m.domain(key.Domain).remove(key.Index) {
		m.size--
	}
}

// ClearDomain removes every slot of domain d.
func (m *Map) ClearDomain(d Domain) {
	m.size -= m.domain(d).clear()
}

// Union merges other into m: absent slots receive a copy of other's set,
// present slots are unioned in place. No slot is ever removed.
func (m *Map) Union(other *Map) {
	for d := range numDomains {
		dst, src := &m.domains[d], &other.domains[d]
		for i := src.first(); i >= 0; i = src.next(i) {
			idx := uint32(i)
			if cur := dst.get(idx); cur != nil {
				cur.Union(src.values[i])
				continue
			}
			dst.put(idx, src.values[i].Copy())
			m.size++
		}
	}
}

// Intersection keeps only slots present in both maps, intersecting their
// sets. Slots whose intersection is empty are removed.
func (m *Map) Intersection(other *Map) {
	for d := range numDomains {
		dst, src := &m.domains[d], &other.domains[d]
		for i := dst.first(); i >= 0; {
			nxt := dst.next(i)
			idx := uint32(i)
			if o := src.get(idx); o != nil {
				dst.values[i].Intersection(o)
				if !dst.values[i].IsEmpty() {
					i = nxt
					continue
				}
			}
			dst.remove(idx)
			m.size--
			i = nxt
		}
	}
}

// Complement subtracts other's sets from the matching slots of m, removing
// slots that become empty. Slots only present in other are ignored.
func (m *Map) Complement(other *Map) {
	for d := range numDomains {
		dst, src := &m.domains[d], &other.domains[d]
		for i := dst.first(); i >= 0; {
			nxt := dst.next(i)
			idx := uint32(i)
			if o := src.get(idx); o != nil {
				dst.values[i].Complement(o)
				if dst.values[i].IsEmpty() {
					dst.remove(idx)
					m.size--
				}
			}
			i = nxt
		}
	}
}

// Copy returns a deep copy of m.
func (m *Map) Copy() *Map {
	c := &Map{size: m.size}
	for d := range numDomains {
		c.domains[d] = m.domains[d].copy()
	}
	return c
}

// Equals reports whether both maps hold equal sets under the same keys.
func (m *Map) Equals(other *Map) bool {
	if m == other {
		return true
	}
	if other == nil || m.size != other.size {
		return false
	}
	for k, v := range other.All() {
		if !v.Equals(m.Get(k)) {
			return false
		}
	}
	return true
}

// All yields every occupied slot: field slots first, then stack slots, then
// locals, each in ascending index order.
func (m *Map) All() iter.Seq2[Key, *Versions] {
	return func(yield func(Key, *Versions) bool) {
		for _, d := range iterationOrder {
			s := &m.domains[d]
			for i := s.first(); i >= 0; i = s.next(i) {
				if !yield(Key{Domain: d, Index: uint32(i)}, s.values[i]) {
					return
				}
			}
		}
	}
}

// Keys returns the occupied keys in iteration order.
func (m *Map) Keys() []Key {
	keys := make([]Key, 0, m.size)
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// CheckInvariants verifies skip chains, the absence of empty slots and the
// size counter.
func (m *Map) CheckInvariants() error {
	total := 0
	for d := range numDomains {
		n, err := m.domains[d].checkInvariants(Domain(d))
		if err != nil {
			return err
		}
		total += n
	}
	if total != m.size {
		return fmt.Errorf("versionmap: size = %d, counted %d occupied slots", m.size, total)
	}
	return nil
}

// String renders the map as {key={members}, ...} for logs. Keys print in
// their legacy integer form; keys without one print as domain:index.
func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for k, v := range m.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		if l, err := k.legacy(); err == nil {
			fmt.Fprintf(&sb, "%d=%s", l, v)
		} else {
			fmt.Fprintf(&sb, "%s=%s", k, v)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
