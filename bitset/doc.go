// Package bitset provides universe-indexed bit-vector sets for dataflow
// analysis.
//
// # Overview
//
// Every set is created by a factory that owns a universe.Index. Sets never
// copy the element mapping; they only hold their backing words and a pointer
// to the factory, so all sets of one factory agree on element positions.
//
// Two families exist:
//
//	FixedSet   closed universe, dense words, every operation O(universe/32)
//	SparseSet  growable universe, skip pointers, operations O(non-empty blocks)
//
// # Skip pointers
//
// A SparseSet keeps, next to its words, a skip array of the same length:
//
//	bits:  [ 0x0 | 0x4 | 0x0 | 0x0 | 0x81 | 0x0 ]
//	skip:  [  1  |  4  |  4  |  4  |  0   |  0  ]
//
// skip[i] is the index of the next non-empty block after i, or 0 when there
// is none. Block 0 can never be a skip target, so 0 doubles as the sentinel.
// Iteration, union and complement follow these pointers and never touch the
// empty stretches in between.
//
// # Contract
//
// Mixing sets of different factories, or touching an element a closed
// universe has never seen, is a programming error and panics.
//
// # Example
//
//	f := bitset.NewFixedFactory([]string{"a", "b", "c", "d"})
//	x := f.EmptySet()
//	x.AddAll("a", "c")
//	y := f.EmptySet()
//	y.AddAll("b", "c")
//	x.Intersection(y) // x == {c}
package bitset
