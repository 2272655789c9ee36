package ssaflow

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAnalyze is called after each solver run. blocks is the size of
	// the method, iterations the number of passes to the fixed point.
	RecordAnalyze(blocks, iterations int, duration time.Duration, err error)

	// RecordBatch is called after each AnalyzeAll. count is the number of
	// methods attempted, failed the number that failed.
	RecordBatch(count, failed int, duration time.Duration)

	// RecordSnapshot is called after each export or import.
	RecordSnapshot(maps int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAnalyze(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)          {}
func (NoopMetricsCollector) RecordSnapshot(int, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	AnalyzeCount      atomic.Int64
	AnalyzeErrors     atomic.Int64
	AnalyzeTotalNanos atomic.Int64
	AnalyzeBlocks     atomic.Int64
	AnalyzeIterations atomic.Int64
	BatchCount        atomic.Int64
	BatchMethods      atomic.Int64
	BatchFailed       atomic.Int64
	SnapshotCount     atomic.Int64
	SnapshotErrors    atomic.Int64
	SnapshotMaps      atomic.Int64
}

// RecordAnalyze implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAnalyze(blocks, iterations int, duration time.Duration, err error) {
	b.AnalyzeCount.Add(1)
	b.AnalyzeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AnalyzeErrors.Add(1)
		return
	}
	b.AnalyzeBlocks.Add(int64(blocks))
	b.AnalyzeIterations.Add(int64(iterations))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchMethods.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(maps int, _ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotMaps.Add(int64(maps))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AnalyzeCount:      b.AnalyzeCount.Load(),
		AnalyzeErrors:     b.AnalyzeErrors.Load(),
		AnalyzeAvgNanos:   b.getAvgAnalyzeNanos(),
		AnalyzeBlocks:     b.AnalyzeBlocks.Load(),
		AnalyzeIterations: b.AnalyzeIterations.Load(),
		BatchCount:        b.BatchCount.Load(),
		BatchMethods:      b.BatchMethods.Load(),
		BatchFailed:       b.BatchFailed.Load(),
		SnapshotCount:     b.SnapshotCount.Load(),
		SnapshotErrors:    b.SnapshotErrors.Load(),
		SnapshotMaps:      b.SnapshotMaps.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAnalyzeNanos() int64 {
	count := b.AnalyzeCount.Load()
	if count == 0 {
		return 0
	}
	return b.AnalyzeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AnalyzeCount      int64
	AnalyzeErrors     int64
	AnalyzeAvgNanos   int64
	AnalyzeBlocks     int64
	AnalyzeIterations int64
	BatchCount        int64
	BatchMethods      int64
	BatchFailed       int64
	SnapshotCount     int64
	SnapshotErrors    int64
	SnapshotMaps      int64
}
