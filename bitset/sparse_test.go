package bitset

import (
	"fmt"
	"slices"
	"testing"

	"github.com/hupe1980/ssaflow/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intern grows the universe of f by n filler values starting at base.
func intern(f *SparseFactory[int], base, n int) {
	for v := range n {
		f.Universe().Intern(base + v)
	}
}

func checked[E comparable](t *testing.T, sets ...*SparseSet[E]) {
	t.Helper()
	for _, s := range sets {
		require.NoError(t, s.CheckInvariants())
	}
}

func TestSparseSet_Scenario(t *testing.T) {
	f := NewSparseFactory([]string{"a", "b", "c", "d"})

	x := f.SetOf("a", "c")
	y := f.SetOf("b", "c")

	u := x.Copy()
	u.Union(y)
	assert.Equal(t, []string{"a", "b", "c"}, u.Slice())

	i := x.Copy()
	i.Intersection(y)
	assert.Equal(t, []string{"c"}, i.Slice())

	c := x.Copy()
	c.Complement(y)
	assert.Equal(t, []string{"a"}, c.Slice())

	checked(t, x, y, u, i, c)
}

func TestSparseSet_GrowsUniverse(t *testing.T) {
	f := NewSparseFactory[int32](nil)
	s := f.EmptySet()
	require.Equal(t, 1, s.Blocks())

	s.Add(7)
	for v := int32(100); v < 300; v++ {
		f.Universe().Intern(v)
	}
	s.Add(1000)
	checked(t, s)

	assert.True(t, s.Contains(7))
	assert.True(t, s.Contains(1000))
	assert.False(t, s.Contains(150))
	assert.Equal(t, 202, f.Universe().Len())
	// 202 positions need 7 blocks; doubling from 1 gives 8.
	assert.Equal(t, 8, s.Blocks())

	// A fresh set is sized to the universe at creation.
	assert.Equal(t, 7, f.EmptySet().Blocks())
}

func TestSparseSet_RemoveUnknownDoesNotIntern(t *testing.T) {
	f := NewSparseFactory([]int{1})
	s := f.SetOf(1)

	s.Remove(99)
	assert.False(t, s.Contains(99))
	_, ok := f.Universe().PositionOf(99)
	assert.False(t, ok)
	assert.Equal(t, []int{1}, s.Slice())
}

func TestSparseSet_SkipChain(t *testing.T) {
	// Elements 0..255 occupy blocks 0..7.
	seed := make([]int, 256)
	for i := range seed {
		seed[i] = i
	}
	f := NewSparseFactory(seed)
	s := f.EmptySet()

	s.Add(40)  // block 1
	s.Add(200) // block 6
	checked(t, s)
	assert.Equal(t, []uint32{1, 6, 6, 6, 6, 6, 0, 0}, s.skip)

	s.Add(130) // block 4, splits the chain
	checked(t, s)
	assert.Equal(t, []uint32{1, 4, 4, 4, 6, 6, 0, 0}, s.skip)

	s.Remove(130)
	checked(t, s)
	assert.Equal(t, []uint32{1, 6, 6, 6, 6, 6, 0, 0}, s.skip)

	s.Remove(40)
	checked(t, s)
	assert.Equal(t, []uint32{6, 6, 6, 6, 6, 6, 0, 0}, s.skip)

	s.Add(3) // block 0
	checked(t, s)
	assert.Equal(t, []int{3, 200}, s.Slice())
}

func TestSparseSet_CardinalityClass(t *testing.T) {
	f := NewSparseFactory[int](nil)

	tests := []struct {
		elems []int
		want  int
	}{
		{nil, 0},
		{[]int{5}, 1},
		{[]int{5, 6}, 2},
		{[]int{5, 500}, 2},
		{[]int{1, 2, 3, 400}, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.elems), func(t *testing.T) {
			s := f.SetOf(tt.elems...)
			assert.Equal(t, tt.want, s.CardinalityClass())
			assert.Equal(t, len(tt.elems), s.Cardinality())

			e, ok := s.Single()
			assert.Equal(t, tt.want == 1, ok)
			if ok {
				assert.Equal(t, tt.elems[0], e)
			}
		})
	}
}

func TestSparseSet_RemoveDuringIteration(t *testing.T) {
	f := NewSparseFactory[int](nil)
	s := f.SetOf(1, 2, 40, 41, 300, 301, 302)

	var seen []int
	for e := range s.All() {
		seen = append(seen, e)
		if e%2 == 0 {
			s.Remove(e)
		}
	}
	checked(t, s)
	assert.Equal(t, []int{1, 2, 40, 41, 300, 301, 302}, seen)
	assert.Equal(t, []int{1, 41, 301}, s.Slice())

	// Removing everything while iterating leaves an empty, consistent set.
	for e := range s.All() {
		s.Remove(e)
	}
	checked(t, s)
	assert.True(t, s.IsEmpty())
}

func TestSparseSet_EqualsTrailingBlocks(t *testing.T) {
	f := NewSparseFactory[int](nil)
	short := f.SetOf(3)
	intern(f, 1000, 100)
	long := f.SetOf(3, 900)
	long.Remove(900)

	require.Greater(t, long.Blocks(), short.Blocks())
	assert.True(t, short.Equals(long))
	assert.True(t, long.Equals(short))

	long.Add(900)
	assert.False(t, short.Equals(long))
	assert.False(t, long.Equals(short))

	other := NewSparseFactory[int](nil).SetOf(3)
	assert.False(t, short.Equals(other))
}

func TestSparseSet_UnionGrowsReceiver(t *testing.T) {
	f := NewSparseFactory[int](nil)
	small := f.SetOf(1)
	intern(f, 10_000, 200)
	big := f.SetOf(2, 5000)
	require.Less(t, small.Blocks(), big.Blocks())

	small.Union(big)
	checked(t, small)
	assert.Equal(t, []int{1, 2, 5000}, small.Slice())
	assert.True(t, small.ContainsAll(big))
	assert.False(t, big.ContainsAll(small))
}

func TestSparseSet_IntersectionAndComplementWithShorter(t *testing.T) {
	f := NewSparseFactory[int](nil)
	short := f.SetOf(1, 2)
	intern(f, 10_000, 200)
	long := f.SetOf(1, 2, 3000)
	require.Less(t, short.Blocks(), long.Blocks())

	i := long.Copy()
	i.Intersection(short)
	checked(t, i)
	assert.Equal(t, []int{1, 2}, i.Slice())

	c := long.Copy()
	c.Complement(short)
	checked(t, c)
	assert.Equal(t, []int{3000}, c.Slice())

	c2 := short.Copy()
	c2.Complement(long)
	checked(t, c2)
	assert.True(t, c2.IsEmpty())
}

func TestSparseSet_Clear(t *testing.T) {
	f := NewSparseFactory[int](nil)
	s := f.SetOf(1, 100, 1000)
	s.Clear()
	checked(t, s)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, "{}", s.String())

	s.Add(100)
	checked(t, s)
	assert.Equal(t, "{100}", s.String())
}

func TestSparseSet_CopyIsIndependent(t *testing.T) {
	f := NewSparseFactory[int](nil)
	a := f.SetOf(1, 64)
	b := a.Copy()
	require.True(t, a.Equals(b))

	b.Add(5000)
	b.Remove(1)
	checked(t, a, b)
	assert.Equal(t, []int{1, 64}, a.Slice())
	assert.Equal(t, []int{64, 5000}, b.Slice())
}

func TestSparseSet_MixedFactoriesPanic(t *testing.T) {
	a := NewSparseFactory[int](nil).EmptySet()
	b := NewSparseFactory[int](nil).EmptySet()
	assert.Panics(t, func() { a.Union(b) })
	assert.Panics(t, func() { a.Intersection(b) })
	assert.Panics(t, func() { a.Complement(b) })
}

// model is a reference implementation for property tests.
type model map[int]bool

func (m model) sorted() []int {
	out := make([]int, 0, len(m))
	for k, ok := range m {
		if ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func TestSparseSet_PointwiseProperties(t *testing.T) {
	rng := testutil.NewRNG(4711)
	const universe = 4096

	for round := range 100 {
		f := NewSparseFactory[int](nil)
		// Interleave universe growth in random order so positions are not
		// monotone in value.
		for _, v := range rng.SparseInts(64, universe) {
			f.Universe().Intern(v)
		}

		av := rng.SparseInts(rng.Intn(40), universe)
		bv := rng.SparseInts(rng.Intn(40), universe)
		a, b := f.SetOf(av...), f.SetOf(bv...)
		ma, mb := model{}, model{}
		for _, v := range av {
			ma[v] = true
		}
		for _, v := range bv {
			mb[v] = true
		}

		u := a.Copy()
		u.Union(b)
		in := a.Copy()
		in.Intersection(b)
		c := a.Copy()
		c.Complement(b)
		checked(t, a, b, u, in, c)

		for v := range universe {
			require.Equal(t, ma[v] || mb[v], u.Contains(v), "round %d union %d", round, v)
			require.Equal(t, ma[v] && mb[v], in.Contains(v), "round %d intersection %d", round, v)
			require.Equal(t, ma[v] && !mb[v], c.Contains(v), "round %d complement %d", round, v)
		}

		// Operands are untouched.
		require.Equal(t, ma.sorted(), sortedInts(a.Slice()))
		require.Equal(t, mb.sorted(), sortedInts(b.Slice()))

		// Idempotence.
		self := a.Copy()
		self.Union(a)
		require.True(t, self.Equals(a))
		self.Intersection(a)
		require.True(t, self.Equals(a))
		self.Complement(a)
		require.True(t, self.IsEmpty())
		checked(t, self)
	}
}

// Operands of different backing lengths: the tail beyond the shorter one is
// implicitly zero on that side, so truncating there must agree with the
// pointwise definition.
func TestSparseSet_MismatchedLengths(t *testing.T) {
	rng := testutil.NewRNG(99)
	for range 100 {
		f := NewSparseFactory[int](nil)
		a := f.SetOf(rng.SparseInts(rng.Intn(30)+1, 512)...)
		intern(f, 100_000, 500)
		b := f.SetOf(rng.SparseInts(rng.Intn(30)+1, 512)...)
		b.Add(100_499)
		require.Less(t, a.Blocks(), b.Blocks())

		all := append(a.Slice(), b.Slice()...)
		for _, pair := range [][2]*SparseSet[int]{{a, b}, {b, a}} {
			x, y := pair[0], pair[1]

			in := x.Copy()
			in.Intersection(y)
			c := x.Copy()
			c.Complement(y)
			checked(t, in, c)

			for _, v := range all {
				require.Equal(t, x.Contains(v) && y.Contains(v), in.Contains(v))
				require.Equal(t, x.Contains(v) && !y.Contains(v), c.Contains(v))
			}
		}
	}
}

func TestSparseSet_RandomMutations(t *testing.T) {
	rng := testutil.NewRNG(7)
	f := NewSparseFactory[int](nil)
	s := f.EmptySet()
	m := model{}

	for step := range 5000 {
		v := rng.Intn(2000)
		if rng.Bool(0.6) {
			s.Add(v)
			m[v] = true
		} else {
			s.Remove(v)
			delete(m, v)
		}
		require.NoError(t, s.CheckInvariants(), "step %d", step)
	}
	checked(t, s)
	assert.Equal(t, m.sorted(), sortedInts(s.Slice()))
	assert.Equal(t, len(m), s.Cardinality())
}

func sortedInts(v []int) []int {
	out := slices.Clone(v)
	slices.Sort(out)
	return out
}

func BenchmarkSparseSet_Union(b *testing.B) {
	rng := testutil.NewRNG(1)
	f := NewSparseFactory[int](nil)
	for v := range 100_000 {
		f.Universe().Intern(v)
	}
	x := f.SetOf(rng.SparseInts(16, 100_000)...)
	y := f.SetOf(rng.SparseInts(16, 100_000)...)

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		z := x.Copy()
		z.Union(y)
	}
}

func BenchmarkSparseSet_Iterate(b *testing.B) {
	rng := testutil.NewRNG(1)
	f := NewSparseFactory[int](nil)
	for v := range 100_000 {
		f.Universe().Intern(v)
	}
	x := f.SetOf(rng.SparseInts(16, 100_000)...)

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		n := 0
		for range x.All() {
			n++
		}
	}
}
