package bitset

import (
	"fmt"
	"iter"
	"math/bits"

	"github.com/hupe1980/ssaflow/universe"
)

// SparseFactory creates sets over a growable universe.
type SparseFactory[E comparable] struct {
	universe *universe.Index[E]
}

// NewSparseFactory builds a growable universe seeded with seed.
// Elements outside the seed are interned on first use.
func NewSparseFactory[E comparable](seed []E) *SparseFactory[E] {
	return &SparseFactory[E]{
		universe: universe.NewGrowable(seed),
	}
}

// Universe returns the factory's element index.
func (f *SparseFactory[E]) Universe() *universe.Index[E] {
	return f.universe
}

// EmptySet returns a set with no members, sized to the current universe.
func (f *SparseFactory[E]) EmptySet() *SparseSet[E] {
	n := max(f.universe.Blocks(), 1)
	return &SparseSet[E]{
		factory: f,
		bits:    make([]uint32, n),
		skip:    make([]uint32, n),
	}
}

// SetOf returns a set containing elems.
func (f *SparseFactory[E]) SetOf(elems ...E) *SparseSet[E] {
	s := f.EmptySet()
	for _, e := range elems {
		s.Add(e)
	}
	return s
}

// SparseSet is a bit-vector over a growable universe.
//
// Invariant: len(bits) == len(skip) >= 1, and skip[i] is the smallest j > i
// with bits[j] != 0, or 0 if there is none.
type SparseSet[E comparable] struct {
	factory *SparseFactory[E]
	bits    []uint32
	skip    []uint32
}

func (s *SparseSet[E]) mustShare(other *SparseSet[E]) {
	if s.factory != other.factory {
		panic("bitset: sparse sets belong to different factories")
	}
}

// Factory returns the factory that created s.
func (s *SparseSet[E]) Factory() *SparseFactory[E] {
	return s.factory
}

// first returns the index of the first non-empty block, or -1.
func (s *SparseSet[E]) first() int {
	if s.bits[0] != 0 {
		return 0
	}
	if next := s.skip[0]; next != 0 {
		return int(next)
	}
	return -1
}

// next returns the non-empty block following block i, or -1.
func (s *SparseSet[E]) next(i int) int {
	if n := s.skip[i]; n != 0 {
		return int(n)
	}
	return -1
}

// ensure grows the backing arrays so that block is addressable.
// Capacity doubles until large enough; new blocks are empty, so existing
// skip entries stay valid and new entries are the 0 sentinel.
func (s *SparseSet[E]) ensure(block int) {
	if block < len(s.bits) {
		return
	}
	n := len(s.bits)
	for n <= block {
		n *= 2
	}

	b := make([]uint32, n)
	copy(b, s.bits)
	sk := make([]uint32, n)
	copy(sk, s.skip)
	s.bits, s.skip = b, sk
}

// redirect rewrites the skip chain after block changed emptiness.
//
// Pre: skip is valid for every block except that blocks before `block` may
// still point at oldTarget although newTarget is now correct for them.
// Post: invariant S holds.
//
// Walking backward from block-1, every block whose skip equals oldTarget is
// redirected to newTarget. The first block pointing anywhere else is already
// chained to an intervening non-empty block, so the walk stops there.
func (s *SparseSet[E]) redirect(block int, oldTarget, newTarget uint32) {
	for i := block - 1; i >= 0; i-- {
		if s.skip[i] != oldTarget {
			break
		}
		s.skip[i] = newTarget
	}
}

// populated must be called after bits[block] went from zero to non-zero.
func (s *SparseSet[E]) populated(block int) {
	s.redirect(block, s.skip[block], uint32(block))
}

// emptied must be called after bits[block] went from non-zero to zero.
func (s *SparseSet[E]) emptied(block int) {
	s.redirect(block, uint32(block), s.skip[block])
}

// rebuildSkip recomputes skip in one backward pass.
func (s *SparseSet[E]) rebuildSkip() {
	var next uint32
	for i := len(s.bits) - 1; i >= 0; i-- {
		s.skip[i] = next
		if s.bits[i] != 0 {
			next = uint32(i)
		}
	}
}

// Add inserts e, interning it in the universe if unseen.
func (s *SparseSet[E]) Add(e E) {
	pos := s.factory.universe.Intern(e)
	block := int(pos.Block)
	s.ensure(block)

	old := s.bits[block]
	s.bits[block] = old | pos.Mask
	if old == 0 {
		s.populated(block)
	}
}

// Remove deletes e. Unknown elements are ignored and not interned.
func (s *SparseSet[E]) Remove(e E) {
	pos, ok := s.factory.universe.PositionOf(e)
	if !ok {
		return
	}
	block := int(pos.Block)
	if block >= len(s.bits) {
		return
	}

	old := s.bits[block]
	if old&pos.Mask == 0 {
		return
	}
	s.bits[block] = old &^ pos.Mask
	if s.bits[block] == 0 {
		s.emptied(block)
	}
}

// Contains reports whether e is a member. Unknown elements are not members.
func (s *SparseSet[E]) Contains(e E) bool {
	pos, ok := s.factory.universe.PositionOf(e)
	if !ok {
		return false
	}
	block := int(pos.Block)
	return block < len(s.bits) && s.bits[block]&pos.Mask != 0
}

// ContainsAll reports whether s is a superset of other.
func (s *SparseSet[E]) ContainsAll(other *SparseSet[E]) bool {
	s.mustShare(other)
	for i := other.first(); i >= 0; i = other.next(i) {
		if i >= len(s.bits) || other.bits[i]&^s.bits[i] != 0 {
			return false
		}
	}
	return true
}

// Union sets s to s ∪ other, visiting only the non-empty blocks of other.
func (s *SparseSet[E]) Union(other *SparseSet[E]) {
	s.mustShare(other)
	for i := other.first(); i >= 0; i = other.next(i) {
		s.ensure(i)
		old := s.bits[i]
		s.bits[i] = old | other.bits[i]
		if old == 0 {
			s.populated(i)
		}
	}
}

// Intersection sets s to s ∩ other.
//
// Blocks beyond the shorter operand are treated as empty on the other side,
// so they are zeroed here; skip is rebuilt wholesale afterwards because many
// blocks may have emptied at once.
func (s *SparseSet[E]) Intersection(other *SparseSet[E]) {
	s.mustShare(other)
	n := min(len(s.bits), len(other.bits))
	for i := 0; i < n; i++ {
		s.bits[i] &= other.bits[i]
	}
	for i := n; i < len(s.bits); i++ {
		s.bits[i] = 0
	}
	s.rebuildSkip()
}

// Complement removes every member of other from s.
func (s *SparseSet[E]) Complement(other *SparseSet[E]) {
	s.mustShare(other)
	limit := len(other.bits)
	for i := s.first(); i >= 0 && i < limit; {
		// Read the successor before touching the chain.
		nxt := s.next(i)
		if w := other.bits[i]; w != 0 {
			s.bits[i] &^= w
			if s.bits[i] == 0 {
				s.emptied(i)
			}
		}
		i = nxt
	}
}

// Equals reports whether s and other have the same members.
// Missing trailing blocks count as zero.
func (s *SparseSet[E]) Equals(other *SparseSet[E]) bool {
	if s == other {
		return true
	}
	if other == nil || s.factory != other.factory {
		return false
	}

	short, long := s.bits, other.bits
	if len(short) > len(long) {
		short, long = long, short
	}
	for i, w := range short {
		if long[i] != w {
			return false
		}
	}
	for _, w := range long[len(short):] {
		if w != 0 {
			return false
		}
	}
	return true
}

// IsEmpty reports whether s has no members.
func (s *SparseSet[E]) IsEmpty() bool {
	return s.first() < 0
}

// Cardinality returns the number of members.
func (s *SparseSet[E]) Cardinality() int {
	n := 0
	for i := s.first(); i >= 0; i = s.next(i) {
		n += bits.OnesCount32(s.bits[i])
	}
	return n
}

// CardinalityClass returns 0, 1 or 2, where 2 stands for "two or more".
// It stops as soon as a second member is seen.
func (s *SparseSet[E]) CardinalityClass() int {
	n := 0
	for i := s.first(); i >= 0; i = s.next(i) {
		w := s.bits[i]
		if w&(w-1) != 0 {
			return 2
		}
		n++
		if n > 1 {
			return 2
		}
	}
	return n
}

// Single returns the only member of s. ok is false unless s has exactly one.
func (s *SparseSet[E]) Single() (e E, ok bool) {
	if s.CardinalityClass() != 1 {
		return e, false
	}
	i := s.first()
	return s.element(i, s.bits[i]), true
}

func (s *SparseSet[E]) element(block int, w uint32) E {
	return s.factory.universe.Element(block*universe.BlockBits + bits.TrailingZeros32(w))
}

// Clear removes every member.
func (s *SparseSet[E]) Clear() {
	for i := s.first(); i >= 0; {
		nxt := s.next(i)
		s.bits[i] = 0
		i = nxt
	}
	clear(s.skip)
}

// All yields the members in universe order by following skip pointers.
//
// The member just yielded may be removed by the loop body. Any other
// mutation during iteration has undefined results.
func (s *SparseSet[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for i := s.first(); i >= 0; {
			w := s.bits[i]
			for w != 0 {
				if !yield(s.element(i, w)) {
					return
				}
				w &= w - 1
			}
			// Removal empties block i without touching skip[i].
			i = s.next(i)
		}
	}
}

// Slice returns the members in universe order.
func (s *SparseSet[E]) Slice() []E {
	out := make([]E, 0, s.Cardinality())
	for e := range s.All() {
		out = append(out, e)
	}
	return out
}

// ToSet materializes the members into a map.
func (s *SparseSet[E]) ToSet() map[E]struct{} {
	out := make(map[E]struct{}, s.Cardinality())
	for e := range s.All() {
		out[e] = struct{}{}
	}
	return out
}

// Copy returns an independent copy of s.
func (s *SparseSet[E]) Copy() *SparseSet[E] {
	c := &SparseSet[E]{
		factory: s.factory,
		bits:    make([]uint32, len(s.bits)),
		skip:    make([]uint32, len(s.skip)),
	}
	copy(c.bits, s.bits)
	copy(c.skip, s.skip)
	return c
}

// Blocks returns the length of the backing arrays.
func (s *SparseSet[E]) Blocks() int {
	return len(s.bits)
}

// CheckInvariants recomputes the skip chain by exhaustive scan and reports
// the first mismatch.
func (s *SparseSet[E]) CheckInvariants() error {
	if len(s.bits) == 0 || len(s.bits) != len(s.skip) {
		return fmt.Errorf("bitset: bad backing lengths bits=%d skip=%d", len(s.bits), len(s.skip))
	}
	var want uint32
	for i := len(s.bits) - 1; i >= 0; i-- {
		if s.skip[i] != want {
			return fmt.Errorf("bitset: skip[%d] = %d, want %d", i, s.skip[i], want)
		}
		if s.bits[i] != 0 {
			want = uint32(i)
		}
	}
	return nil
}

func (s *SparseSet[E]) String() string {
	return formatMembers(s.All())
}
