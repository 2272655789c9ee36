package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bool returns true with probability p.
func (r *RNG) Bool(p float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64() < p
}

// SparseInts returns up to n distinct sorted values in [0, universe).
// Values cluster in a few 32-wide windows, mimicking version ids that are
// allocated close together within one basic block.
func (r *RNG) SparseInts(n, universe int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[int]struct{}, n)
	out := make([]int, 0, n)
	anchor := r.rand.Intn(universe)
	for len(out) < n && len(seen) < universe {
		// Jump to a new cluster now and then.
		if r.rand.Intn(4) == 0 {
			anchor = r.rand.Intn(universe)
		}
		v := (anchor + r.rand.Intn(32)) % universe
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Subset keeps every element of values with probability p.
func (r *RNG) Subset(values []int, p float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, 0, len(values))
	for _, v := range values {
		if r.rand.Float64() < p {
			out = append(out, v)
		}
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}
