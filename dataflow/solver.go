package dataflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/ssaflow/bitset"
	"github.com/hupe1980/ssaflow/versionmap"
)

// DefSite locates the definition that created a version.
type DefSite struct {
	Version int32
	Block   int
	Index   int
	Key     versionmap.Key
}

// UseSite is a read together with the versions that may reach it.
type UseSite struct {
	Block    int
	Index    int
	Key      versionmap.Key
	Versions *versionmap.Versions
}

// Phi is a slot reached by two or more versions at the start of a block
// with several predecessors.
type Phi struct {
	Block    int
	Key      versionmap.Key
	Versions []int32
}

// Result holds the fixed point of the reaching-versions analysis.
type Result struct {
	Method string

	// Iterations is the number of passes over the reachable blocks.
	Iterations int
	// Merges counts predecessor maps folded into in-maps.
	Merges int

	factory *bitset.SparseFactory[int32]
	order   []int
	preds   [][]int
	in      []*versionmap.Map
	out     []*versionmap.Map
	defs    []DefSite
	uses    []UseSite
}

// Factory returns the version-set factory shared by all maps of the result.
func (r *Result) Factory() *bitset.SparseFactory[int32] {
	return r.factory
}

// Order returns the reachable blocks in reverse post-order.
func (r *Result) Order() []int {
	return r.order
}

// In returns the map at block entry, or nil for unreachable blocks.
func (r *Result) In(block int) *versionmap.Map {
	return r.in[block]
}

// Out returns the map at block exit, or nil for unreachable blocks.
func (r *Result) Out(block int) *versionmap.Map {
	return r.out[block]
}

// OutMaps returns the out-map of every block; unreachable blocks are nil.
func (r *Result) OutMaps() []*versionmap.Map {
	return r.out
}

// Def returns the definition site of version v.
func (r *Result) Def(v int32) (DefSite, bool) {
	if v < 1 || int(v) > len(r.defs) {
		return DefSite{}, false
	}
	return r.defs[v-1], true
}

// Defs returns every definition in version order.
func (r *Result) Defs() []DefSite {
	return r.defs
}

// Uses returns every read with its reaching versions.
func (r *Result) Uses() []UseSite {
	return r.uses
}

// MustIn returns the versions that reach block along every incoming edge.
// It is nil for unreachable blocks.
func (r *Result) MustIn(block int) *versionmap.Map {
	if r.in[block] == nil {
		return nil
	}
	var must *versionmap.Map
	for _, p := range r.preds[block] {
		out := r.out[p]
		if out == nil {
			continue
		}
		if must == nil {
			must = out.Copy()
			continue
		}
		must.Intersection(out)
	}
	if must == nil {
		return versionmap.New()
	}
	return must
}

// Killed returns the versions reaching the entry of block that do not
// survive to its exit. It is nil for unreachable blocks.
func (r *Result) Killed(block int) *versionmap.Map {
	if r.in[block] == nil {
		return nil
	}
	k := r.in[block].Copy()
	k.Complement(r.out[block])
	return k
}

// Phis returns the phi candidates ordered by block, then slot.
func (r *Result) Phis() []Phi {
	var phis []Phi
	blocks := slices.Clone(r.order)
	slices.Sort(blocks)
	for _, b := range blocks {
		if r.reachablePreds(b) < 2 {
			continue
		}
		for k, v := range r.in[b].All() {
			if v.CardinalityClass() < 2 {
				continue
			}
			vs := v.Slice()
			slices.Sort(vs)
			phis = append(phis, Phi{Block: b, Key: k, Versions: vs})
		}
	}
	return phis
}

// reachablePreds counts the predecessors of b that the entry reaches.
func (r *Result) reachablePreds(b int) int {
	n := 0
	for _, p := range r.preds[b] {
		if r.out[p] != nil {
			n++
		}
	}
	return n
}

type solver struct {
	opts    Options
	method  *Method
	res     *Result
	version [][]int32 // version[b][i] for OpDefine instructions
}

// ReachingVersions computes the reaching-versions fixed point of m.
func ReachingVersions(ctx context.Context, m *Method, optFns ...Option) (*Result, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	s := &solver{opts: opts, method: m}
	s.init()

	if err := s.run(ctx); err != nil {
		return nil, err
	}
	if err := s.collectUses(); err != nil {
		return nil, err
	}

	opts.Logger.DebugContext(ctx, "reaching versions converged",
		"method", m.Name,
		"blocks", len(m.Blocks),
		"reachable", len(s.res.order),
		"versions", len(s.res.defs),
		"iterations", s.res.Iterations,
		"merges", s.res.Merges,
	)
	return s.res, nil
}

func (s *solver) init() {
	m := s.method
	preds := m.predecessors()
	order := reversePostOrder(len(m.Blocks), []int{m.Entry}, func(b int) []int {
		return m.Blocks[b].Succs
	})

	// Versions are numbered from 1 in block, then instruction order.
	var defs []DefSite
	s.version = make([][]int32, len(m.Blocks))
	for b, blk := range m.Blocks {
		s.version[b] = make([]int32, len(blk.Instrs))
		for i, in := range blk.Instrs {
			if in.Op != OpDefine {
				continue
			}
			v := int32(len(defs) + 1)
			defs = append(defs, DefSite{Version: v, Block: b, Index: i, Key: in.Key})
			s.version[b][i] = v
		}
	}

	seed := make([]int32, len(defs))
	for i := range defs {
		seed[i] = defs[i].Version
	}

	s.res = &Result{
		Method:  m.Name,
		factory: bitset.NewSparseFactory(seed),
		order:   order,
		preds:   preds,
		in:      make([]*versionmap.Map, len(m.Blocks)),
		out:     make([]*versionmap.Map, len(m.Blocks)),
		defs:    defs,
	}
}

func (s *solver) run(ctx context.Context) error {
	res := s.res
	// Dirty flags over the reachable blocks.
	flags := bitset.NewFixedFactory(res.order)
	dirty := flags.CopiedSet()

	for !dirty.IsEmpty() {
		if res.Iterations >= s.opts.MaxIterations {
			return &ErrNotConverged{Method: s.method.Name, Iterations: res.Iterations}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Iterations++

		for _, b := range res.order {
			if !dirty.Contains(b) {
				continue
			}
			dirty.Remove(b)

			in := s.merge(b)
			out := in.Copy()
			if err := s.transfer(b, out, nil); err != nil {
				return err
			}
			res.in[b] = in

			if res.out[b] != nil && res.out[b].Equals(out) {
				continue
			}
			res.out[b] = out
			for _, succ := range s.method.Blocks[b].Succs {
				dirty.Add(succ)
			}
		}
	}
	return nil
}

// merge folds the out-maps of b's predecessors into a fresh in-map.
func (s *solver) merge(b int) *versionmap.Map {
	var in *versionmap.Map
	for _, p := range s.res.preds[b] {
		out := s.res.out[p]
		if out == nil {
			continue
		}
		s.res.Merges++
		if in == nil {
			in = out.Copy()
			continue
		}
		in.Union(out)
	}
	if in == nil {
		in = versionmap.New()
	}
	return in
}

// transfer applies the instructions of b to m. visit, if set, observes
// every instruction with the map state before it.
func (s *solver) transfer(b int, m *versionmap.Map, visit func(i int, in Instr, m *versionmap.Map)) error {
	for i, in := range s.method.Blocks[b].Instrs {
		if visit != nil {
			visit(i, in, m)
		}
		switch in.Op {
		case OpDefine:
			m.SetSingle(in.Key, s.res.factory, s.version[b][i])
		case OpClearStack:
			m.ClearDomain(versionmap.Stack)
		case OpInvalidateFields:
			m.ClearDomain(versionmap.Field)
		}
	}

	if s.opts.DebugChecks {
		if err := m.CheckInvariants(); err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrInvariantViolation, b, err)
		}
	}
	return nil
}

// collectUses replays every reachable block once against its final in-map.
func (s *solver) collectUses() error {
	blocks := slices.Clone(s.res.order)
	slices.Sort(blocks)

	for _, b := range blocks {
		m := s.res.in[b].Copy()
		err := s.transfer(b, m, func(i int, in Instr, m *versionmap.Map) {
			if in.Op != OpUse {
				return
			}
			vs := s.res.factory.EmptySet()
			if cur := m.Get(in.Key); cur != nil {
				vs = cur.Copy()
			}
			s.res.uses = append(s.res.uses, UseSite{Block: b, Index: i, Key: in.Key, Versions: vs})
		})
		if err != nil {
			return err
		}
	}
	return nil
}
