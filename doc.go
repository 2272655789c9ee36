// Package ssaflow computes reaching versions over control-flow graphs.
//
// It is built from three layers:
//
//   - universe and bitset: bit-vector sets over an interned element index,
//     with a fixed variant for closed universes and a sparse variant whose
//     skip pointers visit only non-empty blocks.
//   - versionmap: a segmented map from variable slots (locals, operand stack
//     slots, synthetic field slots) to sparse version sets.
//   - dataflow: the fixed-point solver that merges maps at join points and
//     reports phi candidates, uses and dominators.
//
// # Quick Start
//
//	a := ssaflow.New(ssaflow.WithConcurrency(4))
//
//	m := &dataflow.Method{
//	    Name: "max",
//	    Blocks: []dataflow.Block{
//	        {Instrs: []dataflow.Instr{dataflow.Define(versionmap.LocalKey(0))}, Succs: []int{1, 2}},
//	        {Instrs: []dataflow.Instr{dataflow.Define(versionmap.LocalKey(0))}, Succs: []int{2}},
//	        {Instrs: []dataflow.Instr{dataflow.Use(versionmap.LocalKey(0))}},
//	    },
//	}
//
//	res, _ := a.Analyze(ctx, m)
//	for _, phi := range res.Phis() {
//	    fmt.Println(phi.Block, phi.Key, phi.Versions)
//	}
//
// # Batches
//
// AnalyzeAll solves many methods concurrently. Workers, the estimated memory
// of in-flight solvers and the rate at which methods start are bounded by
// the resource options:
//
//	a := ssaflow.New(
//	    ssaflow.WithConcurrency(8),
//	    ssaflow.WithMemoryLimit(256<<20),
//	    ssaflow.WithRateLimit(1000),
//	)
//	results, err := a.AnalyzeAll(ctx, methods)
//
// # Snapshots
//
// Export writes the out-maps of a result as a compressed snapshot; Import
// reads them back into any version factory.
//
//	_ = a.Export(ctx, f, res)
//	maps, _ := a.Import(ctx, f, res.Factory())
//
// # Observability
//
// Logging goes through Logger, a thin wrapper over log/slog. Metrics are
// reported to a MetricsCollector; BasicMetricsCollector keeps in-memory
// counters.
package ssaflow
