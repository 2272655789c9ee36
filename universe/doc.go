// Package universe assigns every distinct element of a set family a stable
// bit position.
//
// An Index is shared by all sets created from the same factory. Each element
// is mapped to a (block, mask) pair the first time it is seen: block selects a
// 32-bit word and mask has exactly one bit set within that word. Positions
// are handed out in order (0, 1, 2, ...) and never change once assigned.
//
// Two flavours exist:
//   - Fixed: the universe is closed at construction. Interning an unseen
//     element is a caller bug and panics.
//   - Growable: new elements are appended after the seed, advancing the mask
//     and rolling over to the next block on overflow.
//
// An Index is not safe for concurrent mutation. It may be read from several
// goroutines once no further elements are interned.
package universe
