// Package dataflow runs the reaching-versions analysis of the decompiler's
// SSA construction on top of versionmap and bitset.
//
// A Method is a control-flow graph of blocks; each block is a list of
// instructions that define or read variable slots, or invalidate whole
// domains (stack slots across an exception edge, synthetic field slots
// across calls). Every definition receives a fresh version id.
//
// ReachingVersions iterates a forward "may reach" analysis to its fixed
// point: the in-map of a block is the union of its predecessors' out-maps
// and the out-map is the in-map after the block's instructions. The Result
// exposes the per-block maps together with derived facts used for renaming:
// phi candidates (slots reached by two or more versions), must-reach maps
// (intersection over predecessors) and kill maps (in minus out).
//
// Dominators and PostDominators compute (post)dominator sets with the
// fixed-universe bitset, the way the statement structurer consumes them.
package dataflow
