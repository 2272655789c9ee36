// Package versionmap implements the segmented map from variable slots to
// reaching-version sets used by the dataflow solver.
//
// Keys live in three disjoint domains:
//
//	Local  true local variables
//	Stack  operand-stack slots
//	Field  synthetic field-access slots
//
// Each domain is a dense slot array with its own skip chain, so merges visit
// only occupied slots. A slot is either absent or holds a non-empty set;
// every operation that can empty a set deletes the slot instead.
//
// The decompiler front end numbers variables with a single signed integer
// (see StackBase). KeyFromLegacy and Key.Legacy translate at the boundary;
// nothing inside the map depends on that convention.
package versionmap
