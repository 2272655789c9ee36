// Command ssaflow solves reaching versions for methods described as JSON.
//
// Usage:
//
//	ssaflow [flags] [file]
//
// The input is a JSON array of methods; it is read from stdin when no file
// is given. For every method the phi candidates and the versions reaching
// each use are printed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hupe1980/ssaflow"
	"github.com/hupe1980/ssaflow/codec"
	"github.com/hupe1980/ssaflow/dataflow"
	"github.com/hupe1980/ssaflow/snapshot"
)

var (
	codecName     = flag.String("codec", "go-json", "Input codec (json, go-json)")
	workers       = flag.Int("workers", 4, "Methods solved concurrently")
	maxIterations = flag.Int("max-iterations", dataflow.DefaultMaxIterations, "Solver pass limit per method")
	rateLimit     = flag.Float64("rate", 0, "Methods started per second (0 = unlimited)")
	memoryLimit   = flag.Int64("memory", 0, "Estimated solver memory limit in bytes (0 = unlimited)")
	snapshotDir   = flag.String("snapshot-dir", "", "Write one snapshot per method into this directory")
	compression   = flag.String("compression", "zstd", "Snapshot compression (none, lz4, zstd)")
	dominators    = flag.Bool("dominators", false, "Also print dominator sets")
	debug         = flag.Bool("debug", false, "Enable invariant checks and debug logging")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	c, ok := codec.ByName(*codecName)
	if !ok {
		return fmt.Errorf("unknown codec %q", *codecName)
	}
	comp, err := snapshot.ParseCompression(*compression)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}

	a := ssaflow.New(
		ssaflow.WithCodec(c),
		ssaflow.WithLogger(ssaflow.NewTextLogger(level)),
		ssaflow.WithConcurrency(*workers),
		ssaflow.WithMaxIterations(*maxIterations),
		ssaflow.WithRateLimit(*rateLimit),
		ssaflow.WithMemoryLimit(*memoryLimit),
		ssaflow.WithCompression(comp),
		ssaflow.WithDebugChecks(*debug),
	)

	data, err := readInput(flag.Arg(0))
	if err != nil {
		return err
	}
	methods, err := a.DecodeMethods(data)
	if err != nil {
		return fmt.Errorf("decode methods: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := a.AnalyzeAll(ctx, methods)
	if err != nil {
		return err
	}

	for i, res := range results {
		printResult(os.Stdout, methods[i], res)
		if *dominators {
			if err := printDominators(os.Stdout, methods[i]); err != nil {
				return err
			}
		}
		if *snapshotDir != "" {
			if err := writeSnapshot(ctx, a, i, res); err != nil {
				return err
			}
		}
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printResult(w io.Writer, m *dataflow.Method, res *dataflow.Result) {
	fmt.Fprintf(w, "method %s: blocks=%d reachable=%d versions=%d passes=%d\n",
		m.Name, len(m.Blocks), len(res.Order()), len(res.Defs()), res.Iterations)

	for _, phi := range res.Phis() {
		fmt.Fprintf(w, "  phi   b%d %s %v\n", phi.Block, phi.Key, phi.Versions)
	}
	for _, u := range res.Uses() {
		fmt.Fprintf(w, "  use   b%d[%d] %s <- %s\n", u.Block, u.Index, u.Key, u.Versions)
	}
}

func printDominators(w io.Writer, m *dataflow.Method) error {
	doms, err := dataflow.Dominators(m)
	if err != nil {
		return err
	}
	for b := range m.Blocks {
		if d, ok := doms[b]; ok {
			fmt.Fprintf(w, "  dom   b%d %v\n", b, d)
		}
	}
	return nil
}

func writeSnapshot(ctx context.Context, a *ssaflow.Analyzer, i int, res *dataflow.Result) error {
	if err := os.MkdirAll(*snapshotDir, 0o755); err != nil {
		return err
	}
	name := res.Method
	if name == "" {
		name = fmt.Sprintf("method-%d", i)
	}
	return a.ExportFile(ctx, filepath.Join(*snapshotDir, filepath.Base(name)+".ssav"), res)
}
