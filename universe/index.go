package universe

import (
	"fmt"
	"math/bits"
)

// BlockBits is the number of positions covered by one block.
const BlockBits = 32

// Position locates an element inside a bit-vector.
type Position struct {
	Block uint32
	Mask  uint32
}

// Linear returns the zero-based ordinal of the position.
func (p Position) Linear() int {
	return int(p.Block)*BlockBits + bits.TrailingZeros32(p.Mask)
}

// PositionAt converts a linear ordinal back into a Position.
func PositionAt(i int) Position {
	return Position{Block: uint32(i / BlockBits), Mask: uint32(1) << (i % BlockBits)}
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%#x", p.Block, p.Mask)
}

// Index maps elements of type E to positions.
type Index[E comparable] struct {
	positions map[E]Position
	elements  []E
	growable  bool

	// last allocated position; zero Mask means nothing allocated yet.
	lastBlock uint32
	lastMask  uint32
}

// NewFixed creates a closed universe containing elements in iteration order.
// Duplicates keep the position of their first occurrence.
func NewFixed[E comparable](elements []E) *Index[E] {
	return newIndex(elements, false)
}

// NewGrowable creates a universe seeded with elements that accepts new
// elements through Intern.
func NewGrowable[E comparable](seed []E) *Index[E] {
	return newIndex(seed, true)
}

func newIndex[E comparable](elements []E, growable bool) *Index[E] {
	ix := &Index[E]{
		positions: make(map[E]Position, len(elements)),
		elements:  make([]E, 0, len(elements)),
		growable:  growable,
	}
	for _, e := range elements {
		if _, ok := ix.positions[e]; ok {
			continue
		}
		ix.appendElement(e)
	}
	return ix
}

// appendElement allocates the position following the last one.
func (ix *Index[E]) appendElement(e E) Position {
	switch {
	case ix.lastMask == 0:
		ix.lastBlock, ix.lastMask = 0, 1
	case ix.lastMask == 1<<(BlockBits-1):
		ix.lastBlock, ix.lastMask = ix.lastBlock+1, 1
	default:
		ix.lastMask <<= 1
	}

	pos := Position{Block: ix.lastBlock, Mask: ix.lastMask}
	ix.positions[e] = pos
	ix.elements = append(ix.elements, e)
	return pos
}

// Intern returns the position of e, allocating one if the universe is
// growable. It panics when e is unknown to a fixed universe.
func (ix *Index[E]) Intern(e E) Position {
	if pos, ok := ix.positions[e]; ok {
		return pos
	}
	if !ix.growable {
		panic(fmt.Sprintf("universe: element %v is not part of the fixed universe", e))
	}
	return ix.appendElement(e)
}

// PositionOf looks up e without allocating.
func (ix *Index[E]) PositionOf(e E) (Position, bool) {
	pos, ok := ix.positions[e]
	return pos, ok
}

// Element returns the element at linear position i.
func (ix *Index[E]) Element(i int) E {
	return ix.elements[i]
}

// Len returns the number of elements in the universe.
func (ix *Index[E]) Len() int {
	return len(ix.elements)
}

// Blocks returns the number of 32-bit words needed to hold the universe.
func (ix *Index[E]) Blocks() int {
	return (len(ix.elements) + BlockBits - 1) / BlockBits
}

// Growable reports whether Intern may allocate new positions.
func (ix *Index[E]) Growable() bool {
	return ix.growable
}

// Last returns the most recently allocated position.
// ok is false for an empty universe.
func (ix *Index[E]) Last() (pos Position, ok bool) {
	if ix.lastMask == 0 {
		return Position{}, false
	}
	return Position{Block: ix.lastBlock, Mask: ix.lastMask}, true
}
