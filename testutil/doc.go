// Package testutil provides testing utilities for ssaflow.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for the sparse,
// clustered integer patterns that reaching-version sets exhibit.
//
// # Random Sets
//
//	rng := testutil.NewRNG(seed)
//	versions := rng.SparseInts(8, 5000)      // 8 distinct values in [0, 5000)
//	picked := rng.Subset(versions, 0.5)      // each kept with p=0.5
//	key := rng.Zipf(64, 1.5)                 // skewed slot choice
package testutil
