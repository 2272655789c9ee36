package dataflow

import (
	"slices"

	"github.com/hupe1980/ssaflow/bitset"
)

// Dominators returns, for every block reachable from the entry, the sorted
// set of blocks that dominate it (including itself).
func Dominators(m *Method) (map[int][]int, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	preds := m.predecessors()
	succs := func(b int) []int { return m.Blocks[b].Succs }

	order := reversePostOrder(len(m.Blocks), []int{m.Entry}, succs)
	return dominance(order, []int{m.Entry}, func(b int) []int { return preds[b] }, succs), nil
}

// PostDominators returns, for every block that reaches an exit, the sorted
// set of blocks that post-dominate it (including itself). Exits are blocks
// without successors.
func PostDominators(m *Method) (map[int][]int, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	preds := m.predecessors()
	predsOf := func(b int) []int { return preds[b] }

	var exits []int
	for b, blk := range m.Blocks {
		if len(blk.Succs) == 0 {
			exits = append(exits, b)
		}
	}

	order := reversePostOrder(len(m.Blocks), exits, predsOf)
	return dominance(order, exits, func(b int) []int { return m.Blocks[b].Succs }, predsOf), nil
}

// dominance solves dom(b) = {b} ∪ ⋂ dom(f) for f in flow(b) over the
// closed universe order. Roots start as {root}, every other block as the
// full universe. back(b) lists the blocks to revisit when dom(b) changes.
// Blocks of flow(b) outside the universe are unconstrained and skipped.
func dominance(order, roots []int, flow, back func(int) []int) map[int][]int {
	if len(order) == 0 {
		return map[int][]int{}
	}

	factory := bitset.NewFixedFactory(order)
	isRoot := factory.EmptySet()
	isRoot.AddAll(roots...)

	doms := make(map[int]*bitset.FixedSet[int], len(order))
	full := factory.CopiedSet()
	for _, b := range order {
		if isRoot.Contains(b) {
			own := factory.EmptySet()
			own.Add(b)
			doms[b] = own
			continue
		}
		doms[b] = full.Copy()
	}

	dirty := factory.CopiedSet()
	for !dirty.IsEmpty() {
		for _, b := range order {
			if !dirty.Contains(b) {
				continue
			}
			dirty.Remove(b)
			if isRoot.Contains(b) {
				continue
			}

			next := factory.EmptySet()
			first := true
			for _, f := range flow(b) {
				if _, ok := factory.Universe().PositionOf(f); !ok {
					continue
				}
				if first {
					next.Union(doms[f])
					first = false
				} else {
					next.Intersection(doms[f])
				}
			}
			next.Add(b)

			if next.Equals(doms[b]) {
				continue
			}
			doms[b] = next
			for _, p := range back(b) {
				if _, ok := factory.Universe().PositionOf(p); ok {
					dirty.Add(p)
				}
			}
		}
	}

	out := make(map[int][]int, len(doms))
	for b, set := range doms {
		members := set.Slice()
		slices.Sort(members)
		out[b] = members
	}
	return out
}
