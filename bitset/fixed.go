package bitset

import (
	"iter"
	"math/bits"

	"github.com/hupe1980/ssaflow/universe"
)

// FixedFactory creates sets over a closed universe.
type FixedFactory[E comparable] struct {
	universe *universe.Index[E]
	words    int
}

// NewFixedFactory builds a closed universe from elements in iteration order.
func NewFixedFactory[E comparable](elements []E) *FixedFactory[E] {
	ix := universe.NewFixed(elements)
	return &FixedFactory[E]{
		universe: ix,
		words:    ix.Blocks(),
	}
}

// Universe returns the factory's element index.
func (f *FixedFactory[E]) Universe() *universe.Index[E] {
	return f.universe
}

// EmptySet returns a set with no members.
func (f *FixedFactory[E]) EmptySet() *FixedSet[E] {
	return &FixedSet[E]{
		factory: f,
		words:   make([]uint32, f.words),
	}
}

// CopiedSet returns a set containing the whole universe.
func (f *FixedFactory[E]) CopiedSet() *FixedSet[E] {
	s := f.EmptySet()
	last, ok := f.universe.Last()
	if !ok {
		return s
	}

	for i := 0; i < int(last.Block); i++ {
		s.words[i] = ^uint32(0)
	}
	// Only the bits up to and including the last element.
	s.words[last.Block] = last.Mask | (last.Mask - 1)
	return s
}

// FixedSet is a dense bit-vector over a closed universe.
type FixedSet[E comparable] struct {
	factory *FixedFactory[E]
	words   []uint32
}

func (s *FixedSet[E]) mustShare(other *FixedSet[E]) {
	if s.factory != other.factory {
		panic("bitset: fixed sets belong to different factories")
	}
}

// Factory returns the factory that created s.
func (s *FixedSet[E]) Factory() *FixedFactory[E] {
	return s.factory
}

// Add inserts e.
func (s *FixedSet[E]) Add(e E) {
	pos := s.factory.universe.Intern(e)
	s.words[pos.Block] |= pos.Mask
}

// AddAll inserts every element of elems.
func (s *FixedSet[E]) AddAll(elems ...E) {
	for _, e := range elems {
		s.Add(e)
	}
}

// Remove deletes e.
func (s *FixedSet[E]) Remove(e E) {
	pos := s.factory.universe.Intern(e)
	s.words[pos.Block] &^= pos.Mask
}

// Contains reports whether e is a member.
func (s *FixedSet[E]) Contains(e E) bool {
	pos := s.factory.universe.Intern(e)
	return s.words[pos.Block]&pos.Mask != 0
}

// ContainsAll reports whether s is a superset of other.
func (s *FixedSet[E]) ContainsAll(other *FixedSet[E]) bool {
	s.mustShare(other)
	for i, w := range other.words {
		if w&^s.words[i] != 0 {
			return false
		}
	}
	return true
}

// Union sets s to s ∪ other.
func (s *FixedSet[E]) Union(other *FixedSet[E]) {
	s.mustShare(other)
	for i, w := range other.words {
		s.words[i] |= w
	}
}

// Intersection sets s to s ∩ other.
func (s *FixedSet[E]) Intersection(other *FixedSet[E]) {
	s.mustShare(other)
	for i, w := range other.words {
		s.words[i] &= w
	}
}

// Complement removes every member of other from s.
func (s *FixedSet[E]) Complement(other *FixedSet[E]) {
	s.mustShare(other)
	for i, w := range other.words {
		s.words[i] &^= w
	}
}

// Equals reports whether s and other have the same members.
// Sets of different factories are never equal.
func (s *FixedSet[E]) Equals(other *FixedSet[E]) bool {
	if s == other {
		return true
	}
	if other == nil || s.factory != other.factory {
		return false
	}
	for i, w := range s.words {
		if other.words[i] != w {
			return false
		}
	}
	return true
}

// IsEmpty reports whether s has no members.
func (s *FixedSet[E]) IsEmpty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Cardinality returns the number of members.
func (s *FixedSet[E]) Cardinality() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount32(w)
	}
	return n
}

// Clear removes every member.
func (s *FixedSet[E]) Clear() {
	for e := range s.All() {
		s.Remove(e)
	}
}

// All yields the members in universe order.
func (s *FixedSet[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		ix := s.factory.universe
		for i := range s.words {
			w := s.words[i]
			for w != 0 {
				pos := i*universe.BlockBits + bits.TrailingZeros32(w)
				if !yield(ix.Element(pos)) {
					return
				}
				w &= w - 1
			}
		}
	}
}

// Slice returns the members in universe order.
func (s *FixedSet[E]) Slice() []E {
	out := make([]E, 0, s.Cardinality())
	for e := range s.All() {
		out = append(out, e)
	}
	return out
}

// ToSet materializes the members into a map.
func (s *FixedSet[E]) ToSet() map[E]struct{} {
	out := make(map[E]struct{}, s.Cardinality())
	for e := range s.All() {
		out[e] = struct{}{}
	}
	return out
}

// Copy returns an independent copy of s.
func (s *FixedSet[E]) Copy() *FixedSet[E] {
	words := make([]uint32, len(s.words))
	copy(words, s.words)
	return &FixedSet[E]{factory: s.factory, words: words}
}

func (s *FixedSet[E]) String() string {
	return formatMembers(s.All())
}
