package attnlens

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// metricsprom ships a Prometheus implementation.
type MetricsCollector interface {
	// RecordSceneLoad is called after each scene load.
	// duration is the total time taken, err is nil if successful.
	RecordSceneLoad(duration time.Duration, err error)

	// RecordDecode is called after each tensor decode.
	// variant is the resolved variant key.
	RecordDecode(variant string, duration time.Duration, err error)

	// RecordFetch is called after each side-car fetch.
	// bytes is the transferred size before decompression.
	RecordFetch(bytes int64, duration time.Duration, err error)

	// RecordInverseQuery is called after each inverse query.
	// selectedKeys is the size of the key selection.
	RecordInverseQuery(selectedKeys int, duration time.Duration, err error)

	// RecordForwardQuery is called after each forward (patch attention) query.
	RecordForwardQuery(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSceneLoad(time.Duration, error)         {}
func (NoopMetricsCollector) RecordDecode(string, time.Duration, error)    {}
func (NoopMetricsCollector) RecordFetch(int64, time.Duration, error)      {}
func (NoopMetricsCollector) RecordInverseQuery(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordForwardQuery(time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SceneLoadCount      atomic.Int64
	SceneLoadErrors     atomic.Int64
	SceneLoadTotalNanos atomic.Int64
	DecodeCount         atomic.Int64
	DecodeErrors        atomic.Int64
	DecodeTotalNanos    atomic.Int64
	FetchCount          atomic.Int64
	FetchErrors         atomic.Int64
	FetchBytes          atomic.Int64
	InverseCount        atomic.Int64
	InverseErrors       atomic.Int64
	InverseTotalNanos   atomic.Int64
	InverseKeys         atomic.Int64
	ForwardCount        atomic.Int64
	ForwardErrors       atomic.Int64
	ForwardTotalNanos   atomic.Int64
}

// RecordSceneLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSceneLoad(duration time.Duration, err error) {
	b.SceneLoadCount.Add(1)
	b.SceneLoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SceneLoadErrors.Add(1)
	}
}

// RecordDecode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecode(variant string, duration time.Duration, err error) {
	b.DecodeCount.Add(1)
	b.DecodeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DecodeErrors.Add(1)
	}
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(bytes int64, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchBytes.Add(bytes)
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordInverseQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInverseQuery(selectedKeys int, duration time.Duration, err error) {
	b.InverseCount.Add(1)
	b.InverseKeys.Add(int64(selectedKeys))
	b.InverseTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InverseErrors.Add(1)
	}
}

// RecordForwardQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordForwardQuery(duration time.Duration, err error) {
	b.ForwardCount.Add(1)
	b.ForwardTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ForwardErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SceneLoadCount:    b.SceneLoadCount.Load(),
		SceneLoadErrors:   b.SceneLoadErrors.Load(),
		SceneLoadAvgNanos: avgNanos(&b.SceneLoadCount, &b.SceneLoadTotalNanos),
		DecodeCount:       b.DecodeCount.Load(),
		DecodeErrors:      b.DecodeErrors.Load(),
		DecodeAvgNanos:    avgNanos(&b.DecodeCount, &b.DecodeTotalNanos),
		FetchCount:        b.FetchCount.Load(),
		FetchErrors:       b.FetchErrors.Load(),
		FetchBytes:        b.FetchBytes.Load(),
		InverseCount:      b.InverseCount.Load(),
		InverseErrors:     b.InverseErrors.Load(),
		InverseAvgNanos:   avgNanos(&b.InverseCount, &b.InverseTotalNanos),
		InverseKeys:       b.InverseKeys.Load(),
		ForwardCount:      b.ForwardCount.Load(),
		ForwardErrors:     b.ForwardErrors.Load(),
		ForwardAvgNanos:   avgNanos(&b.ForwardCount, &b.ForwardTotalNanos),
	}
}

func avgNanos(count, total *atomic.Int64) int64 {
	c := count.Load()
	if c == 0 {
		return 0
	}
	return total.Load() / c
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SceneLoadCount    int64
	SceneLoadErrors   int64
	SceneLoadAvgNanos int64
	DecodeCount       int64
	DecodeErrors      int64
	DecodeAvgNanos    int64
	FetchCount        int64
	FetchErrors       int64
	FetchBytes        int64
	InverseCount      int64
	InverseErrors     int64
	InverseAvgNanos   int64
	InverseKeys       int64
	ForwardCount      int64
	ForwardErrors     int64
	ForwardAvgNanos   int64
}
