package versionmap

import (
	"fmt"

	"github.com/hupe1980/ssaflow/bitset"
)

// Versions is a set of version ids.
type Versions = bitset.SparseSet[int32]

// slots is one domain: a dense array of optional sets plus a skip chain over
// occupied slots. skip[i] is the next occupied slot after i, or 0.
type slots struct {
	values []*Versions
	skip   []uint32
}

func (s *slots) get(i uint32) *Versions {
	if int(i) >= len(s.values) {
		return nil
	}
	return s.values[i]
}

func (s *slots) first() int {
	if len(s.values) == 0 {
		return -1
	}
	if s.values[0] != nil {
		return 0
	}
	if n := s.skip[0]; n != 0 {
		return int(n)
	}
	return -1
}

func (s *slots) next(i int) int {
	if n := s.skip[i]; n != 0 {
		return int(n)
	}
	return -1
}

func (s *slots) ensure(i int) {
	if i < len(s.values) {
		return
	}
	n := max(len(s.values), 4)
	for n <= i {
		n *= 2
	}

	v := make([]*Versions, n)
	copy(v, s.values)
	sk := make([]uint32, n)
	copy(sk, s.skip)
	s.values, s.skip = v, sk
}

// redirect repairs the skip chain after slot i changed occupancy; see
// bitset.SparseSet for the same walk over blocks.
func (s *slots) redirect(i int, oldTarget, newTarget uint32) {
	for j := i - 1; j >= 0; j-- {
		if s.skip[j] != oldTarget {
			break
		}
		s.skip[j] = newTarget
	}
}

// put stores a non-empty set and reports whether the slot was vacant.
func (s *slots) put(i uint32, set *Versions) bool {
	idx := int(i)
	s.ensure(idx)
	vacant := s.values[idx] == nil
	s.values[idx] = set
	if vacant {
		s.redirect(idx, s.skip[idx], i)
	}
	return vacant
}

// remove vacates slot i and reports whether it was occupied.
func (s *slots) remove(i uint32) bool {
	idx := int(i)
	if idx >= len(s.values) || s.values[idx] == nil {
		return false
	}
	s.values[idx] = nil
	s.redirect(idx, i, s.skip[idx])
	return true
}

// clear vacates every slot and returns how many were occupied.
func (s *slots) clear() int {
	n := 0
	for i := s.first(); i >= 0; {
		nxt := s.next(i)
		s.values[i] = nil
		n++
		i = nxt
	}
	clear(s.skip)
	return n
}

func (s *slots) copy() slots {
	c := slots{
		values: make([]*Versions, len(s.values)),
		skip:   make([]uint32, len(s.skip)),
	}
	copy(c.skip, s.skip)
	for i := s.first(); i >= 0; i = s.next(i) {
		c.values[i] = s.values[i].Copy()
	}
	return c
}

func (s *slots) checkInvariants(d Domain) (occupied int, err error) {
	if len(s.values) != len(s.skip) {
		return 0, fmt.Errorf("versionmap: %s: bad backing lengths values=%d skip=%d", d, len(s.values), len(s.skip))
	}
	var want uint32
	for i := len(s.values) - 1; i >= 0; i-- {
		if s.skip[i] != want {
			return 0, fmt.Errorf("versionmap: %s: skip[%d] = %d, want %d", d, i, s.skip[i], want)
		}
		v := s.values[i]
		if v == nil {
			continue
		}
		if v.IsEmpty() {
			return 0, fmt.Errorf("versionmap: %s: slot %d holds an empty set", d, i)
		}
		if err := v.CheckInvariants(); err != nil {
			return 0, fmt.Errorf("versionmap: %s: slot %d: %w", d, i, err)
		}
		occupied++
		want = uint32(i)
	}
	return occupied, nil
}
