package dataflow

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hupe1980/ssaflow/testutil"
	"github.com/hupe1980/ssaflow/versionmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	l0 = versionmap.LocalKey(0)
	l1 = versionmap.LocalKey(1)
	s0 = versionmap.StackKey(0)
	s1 = versionmap.StackKey(1)
	f2 = versionmap.FieldKey(2)
)

func diamond() *Method {
	return &Method{
		Name: "diamond",
		Blocks: []Block{
			{Instrs: []Instr{Define(l1), Define(s0)}, Succs: []int{1, 2}},
			{Instrs: []Instr{Define(l1)}, Succs: []int{3}},
			{Instrs: []Instr{Use(l1)}, Succs: []int{3}},
			{Instrs: []Instr{Use(l1)}},
		},
	}
}

func loop() *Method {
	return &Method{
		Name: "loop",
		Blocks: []Block{
			{Instrs: []Instr{Define(l0)}, Succs: []int{1}},
			{Instrs: []Instr{Use(l0)}, Succs: []int{2, 3}},
			{Instrs: []Instr{Define(l0)}, Succs: []int{1}},
			{},
		},
	}
}

func members(m *versionmap.Map, k versionmap.Key) []int32 {
	s := m.Get(k)
	if s == nil {
		return nil
	}
	return s.Slice()
}

func TestReachingVersions_PhisIgnoreUnreachablePreds(t *testing.T) {
	m := &Method{
		Name: "tail",
		Blocks: []Block{
			{Instrs: []Instr{Define(l0)}, Succs: []int{1, 2}},
			{Instrs: []Instr{Define(l0)}, Succs: []int{3}},
			{Succs: []int{3}},
			{Succs: []int{4}},
			{Instrs: []Instr{Use(l0)}},
			{Succs: []int{4}},
		},
	}
	r, err := ReachingVersions(context.Background(), m, WithDebugChecks(true))
	require.NoError(t, err)

	assert.Equal(t, []int32{1, 2}, members(r.In(4), l0))
	assert.Nil(t, r.Out(5))
	assert.Equal(t, []Phi{{Block: 3, Key: l0, Versions: []int32{1, 2}}}, r.Phis())
}

func TestReachingVersions_Diamond(t *testing.T) {
	r, err := ReachingVersions(context.Background(), diamond(), WithDebugChecks(true))
	require.NoError(t, err)

	assert.Equal(t, []int32{1, 3}, members(r.In(3), l1))
	assert.Equal(t, []int32{2}, members(r.In(3), s0))

	assert.Equal(t, []Phi{{Block: 3, Key: l1, Versions: []int32{1, 3}}}, r.Phis())

	uses := r.Uses()
	require.Len(t, uses, 2)
	assert.Equal(t, 2, uses[0].Block)
	assert.Equal(t, []int32{1}, uses[0].Versions.Slice())
	assert.Equal(t, 3, uses[1].Block)
	assert.Equal(t, []int32{1, 3}, uses[1].Versions.Slice())

	must := r.MustIn(3)
	assert.False(t, must.Has(l1), "l1 differs on the two paths")
	assert.Equal(t, []int32{2}, members(must, s0))

	killed := r.Killed(1)
	assert.Equal(t, 1, killed.Size())
	assert.Equal(t, []int32{1}, members(killed, l1))

	d, ok := r.Def(3)
	require.True(t, ok)
	assert.Equal(t, DefSite{Version: 3, Block: 1, Index: 0, Key: l1}, d)
	_, ok = r.Def(0)
	assert.False(t, ok)
	assert.Len(t, r.Defs(), 3)
}

func TestReachingVersions_Loop(t *testing.T) {
	r, err := ReachingVersions(context.Background(), loop(), WithDebugChecks(true))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, r.Iterations, 2)
	assert.Equal(t, []int32{1, 2}, members(r.In(1), l0))
	assert.Equal(t, []Phi{{Block: 1, Key: l0, Versions: []int32{1, 2}}}, r.Phis())
	assert.Equal(t, []int32{1, 2}, members(r.In(3), l0))
	assert.Equal(t, []int32{1, 2}, r.Uses()[0].Versions.Slice())
}

func TestReachingVersions_DomainClears(t *testing.T) {
	m := &Method{
		Name: "handler",
		Blocks: []Block{
			{Instrs: []Instr{Define(s1), Define(f2), Define(l0)}, Succs: []int{1}},
			{Instrs: []Instr{Use(f2), ClearStack(), InvalidateFields(), Use(s1), Use(l0)}},
		},
	}
	r, err := ReachingVersions(context.Background(), m, WithDebugChecks(true))
	require.NoError(t, err)

	uses := r.Uses()
	require.Len(t, uses, 3)
	assert.Equal(t, []int32{2}, uses[0].Versions.Slice())
	assert.True(t, uses[1].Versions.IsEmpty())
	assert.Equal(t, []int32{3}, uses[2].Versions.Slice())

	out := r.Out(1)
	assert.Equal(t, []versionmap.Key{l0}, out.Keys())

	killed := r.Killed(1)
	assert.Equal(t, []versionmap.Key{f2, s1}, killed.Keys())
}

func TestReachingVersions_Unreachable(t *testing.T) {
	m := &Method{
		Name: "dead",
		Blocks: []Block{
			{Instrs: []Instr{Define(l0)}, Succs: []int{2}},
			{Instrs: []Instr{Define(l0)}, Succs: []int{2}},
			{Instrs: []Instr{Use(l0)}},
		},
	}
	r, err := ReachingVersions(context.Background(), m)
	require.NoError(t, err)

	assert.Nil(t, r.In(1))
	assert.Nil(t, r.Out(1))
	assert.Nil(t, r.MustIn(1))
	assert.Nil(t, r.Killed(1))
	assert.Equal(t, []int{0, 2}, r.Order())
	// The dead definition never reaches block 2.
	assert.Equal(t, []int32{1}, members(r.In(2), l0))
	assert.Empty(t, r.Phis())
}

func TestReachingVersions_EntryLoop(t *testing.T) {
	m := &Method{
		Name: "self",
		Blocks: []Block{
			{Instrs: []Instr{Use(l0), Define(l0)}, Succs: []int{0}},
		},
	}
	r, err := ReachingVersions(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, members(r.In(0), l0))
	assert.Equal(t, []int32{1}, members(r.MustIn(0), l0))
}

func TestReachingVersions_InvalidMethod(t *testing.T) {
	tests := []struct {
		name string
		m    *Method
	}{
		{"no blocks", &Method{Name: "x"}},
		{"bad entry", &Method{Name: "x", Entry: 3, Blocks: []Block{{}}}},
		{"bad successor", &Method{Name: "x", Blocks: []Block{{Succs: []int{5}}}}},
		{"bad op", &Method{Name: "x", Blocks: []Block{{Instrs: []Instr{{Op: 42}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReachingVersions(context.Background(), tt.m)
			var ie *ErrInvalidMethod
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, "x", ie.Method)
		})
	}
}

func TestReachingVersions_NotConverged(t *testing.T) {
	_, err := ReachingVersions(context.Background(), loop(), WithMaxIterations(1))
	var nc *ErrNotConverged
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, 1, nc.Iterations)
	assert.Contains(t, err.Error(), `"loop"`)
}

func TestReachingVersions_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReachingVersions(ctx, diamond())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReachingVersions_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := ReachingVersions(context.Background(), diamond(), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "reaching versions converged")
	require.Contains(t, out, `"method":"diamond"`)
	require.Contains(t, out, `"versions":3`)
}

func randomMethod(rng *testutil.RNG, n int) *Method {
	keys := []versionmap.Key{l0, l1, s0, s1, f2, versionmap.FieldKey(7), versionmap.LocalKey(40)}
	m := &Method{Name: "random", Blocks: make([]Block, n)}
	for b := range m.Blocks {
		for range rng.Intn(5) {
			k := keys[rng.Intn(len(keys))]
			switch rng.Intn(10) {
			case 0:
				m.Blocks[b].Instrs = append(m.Blocks[b].Instrs, ClearStack())
			case 1:
				m.Blocks[b].Instrs = append(m.Blocks[b].Instrs, InvalidateFields())
			case 2, 3, 4:
				m.Blocks[b].Instrs = append(m.Blocks[b].Instrs, Use(k))
			default:
				m.Blocks[b].Instrs = append(m.Blocks[b].Instrs, Define(k))
			}
		}
		for range rng.Intn(3) {
			m.Blocks[b].Succs = append(m.Blocks[b].Succs, rng.Intn(n))
		}
	}
	return m
}

// The fixed point satisfies the dataflow equations: in(b) is the union of
// the predecessors' out-maps and out(b) is in(b) after the transfer.
func TestReachingVersions_FixedPointEquations(t *testing.T) {
	rng := testutil.NewRNG(4711)

	for round := range 150 {
		m := randomMethod(rng, rng.Intn(12)+1)
		r, err := ReachingVersions(context.Background(), m, WithDebugChecks(true))
		require.NoError(t, err, "round %d", round)

		preds := m.predecessors()
		for _, b := range r.Order() {
			want := versionmap.New()
			for _, p := range preds[b] {
				if out := r.Out(p); out != nil {
					want.Union(out)
				}
			}
			require.True(t, want.Equals(r.In(b)), "round %d block %d: in=%s want=%s", round, b, r.In(b), want)

			// Must-reach is always contained in may-reach.
			for k, v := range r.MustIn(b).All() {
				require.True(t, r.In(b).Get(k).ContainsAll(v), "round %d block %d key %s", round, b, k)
			}
		}
	}
}

func TestOp_Text(t *testing.T) {
	for _, op := range []Op{OpDefine, OpUse, OpClearStack, OpInvalidateFields} {
		b, err := op.MarshalText()
		require.NoError(t, err)

		var got Op
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, op, got)
	}

	var op Op
	assert.Error(t, op.UnmarshalText([]byte("jump")))
	_, err := Op(99).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Op(99)", Op(99).String())
}
