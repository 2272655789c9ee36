package ssaflow

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/ssaflow/bitset"
	"github.com/hupe1980/ssaflow/codec"
	"github.com/hupe1980/ssaflow/dataflow"
	"github.com/hupe1980/ssaflow/resource"
	"github.com/hupe1980/ssaflow/snapshot"
	"github.com/hupe1980/ssaflow/versionmap"
)

// Analyzer runs the reaching-versions solver with shared logging, metrics
// and resource limits. It is safe for concurrent use.
type Analyzer struct {
	opts options
	rc   *resource.Controller
}

// New creates an Analyzer.
func New(optFns ...Option) *Analyzer {
	opts := applyOptions(optFns)
	return &Analyzer{
		opts: opts,
		rc:   resource.NewController(opts.resources),
	}
}

// MemoryUsage returns the estimated bytes reserved by in-flight solvers.
func (a *Analyzer) MemoryUsage() int64 {
	return a.rc.MemoryUsage()
}

// estimateBytes approximates the solver footprint of m: two maps per block,
// each holding a few words per defined slot.
func estimateBytes(m *dataflow.Method) int64 {
	defs := 0
	for _, b := range m.Blocks {
		for _, in := range b.Instrs {
			if in.Op == dataflow.OpDefine {
				defs++
			}
		}
	}
	return int64(len(m.Blocks)) * int64(defs+1) * 2 * 16
}

func (a *Analyzer) solverOptions() []dataflow.Option {
	return []dataflow.Option{
		dataflow.WithLogger(a.opts.logger.Logger),
		dataflow.WithMaxIterations(a.opts.maxIterations),
		dataflow.WithDebugChecks(a.opts.debugChecks),
	}
}

// Analyze solves a single method.
func (a *Analyzer) Analyze(ctx context.Context, m *dataflow.Method) (*dataflow.Result, error) {
	if m == nil {
		return nil, ErrNilMethod
	}

	if err := a.rc.AcquireWorker(ctx); err != nil {
		return nil, err
	}
	defer a.rc.ReleaseWorker()

	reserved, err := a.rc.AcquireMemory(ctx, estimateBytes(m))
	if err != nil {
		return nil, err
	}
	defer a.rc.ReleaseMemory(reserved)

	start := time.Now()
	res, err := dataflow.ReachingVersions(ctx, m, a.solverOptions()...)
	elapsed := time.Since(start)
	err = translateError(err)

	iterations := 0
	if res != nil {
		iterations = res.Iterations
	}
	a.opts.metricsCollector.RecordAnalyze(len(m.Blocks), iterations, elapsed, err)
	a.opts.logger.LogAnalyze(ctx, m.Name, len(m.Blocks), iterations, elapsed, err)

	return res, err
}

// AnalyzeAll solves methods concurrently and returns the results in input
// order. The first failure cancels the remaining methods and is returned as
// an *ErrMethodFailed.
func (a *Analyzer) AnalyzeAll(ctx context.Context, methods []*dataflow.Method) ([]*dataflow.Result, error) {
	start := time.Now()
	results := make([]*dataflow.Result, len(methods))

	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(a.rc.Config().MaxWorkers))

	for i, m := range methods {
		g.Go(func() error {
			if err := a.rc.WaitMethod(gctx); err != nil {
				return err
			}
			res, err := a.Analyze(gctx, m)
			if err != nil {
				failed.Add(1)
				name := ""
				if m != nil {
					name = m.Name
				}
				return &ErrMethodFailed{Index: i, Method: name, cause: err}
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	elapsed := time.Since(start)

	a.opts.metricsCollector.RecordBatch(len(methods), int(failed.Load()), elapsed)
	a.opts.logger.LogBatch(ctx, len(methods), int(failed.Load()), elapsed)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// DecodeMethods parses a method or a list of methods with the configured
// codec.
func (a *Analyzer) DecodeMethods(data []byte) ([]*dataflow.Method, error) {
	return codec.DecodeMethods(a.opts.codec, data)
}

// Export writes the out-map of every block of res to w. Unreachable blocks
// are written as empty maps.
func (a *Analyzer) Export(ctx context.Context, w io.Writer, res *dataflow.Result) error {
	start := time.Now()
	maps := res.OutMaps()

	err := snapshot.Encode(resource.NewRateLimitedWriter(ctx, w, a.rc), maps,
		snapshot.WithCompression(a.opts.compression))

	a.opts.metricsCollector.RecordSnapshot(len(maps), time.Since(start), err)
	a.opts.logger.LogSnapshot(ctx, "export", len(maps), err)
	return err
}

// Import reads maps written by Export, allocating version sets from f.
func (a *Analyzer) Import(ctx context.Context, r io.Reader, f *bitset.SparseFactory[int32]) ([]*versionmap.Map, error) {
	start := time.Now()

	maps, err := snapshot.Decode(resource.NewRateLimitedReader(ctx, r, a.rc), f)
	err = translateError(err)

	a.opts.metricsCollector.RecordSnapshot(len(maps), time.Since(start), err)
	a.opts.logger.LogSnapshot(ctx, "import", len(maps), err)
	if err != nil {
		return nil, err
	}
	return maps, nil
}

// ExportFile atomically writes the snapshot of res to path.
func (a *Analyzer) ExportFile(ctx context.Context, path string, res *dataflow.Result) error {
	return snapshot.WriteFile(path, func(w io.Writer) error {
		return a.Export(ctx, w, res)
	})
}

// ImportFile reads a snapshot written by ExportFile.
func (a *Analyzer) ImportFile(ctx context.Context, path string, f *bitset.SparseFactory[int32]) ([]*versionmap.Map, error) {
	var maps []*versionmap.Map
	err := snapshot.ReadFile(path, func(r io.Reader) error {
		var err error
		maps, err = a.Import(ctx, r, f)
		return err
	})
	return maps, err
}
