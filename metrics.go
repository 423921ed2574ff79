package semdex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordAdd is called after each document upsert.
	// duration is the total time taken, err is nil if successful.
	RecordAdd(duration time.Duration, err error)

	// RecordBatchAdd is called after each batch upsert.
	// count is the number of items attempted, failed is the number that
	// failed, duration is the total time taken.
	RecordBatchAdd(count, failed int, duration time.Duration)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordSearch is called after each search operation. cached reports
	// whether the result was served from the cache.
	RecordSearch(duration time.Duration, cached bool, err error)

	// RecordCluster is called after each clustering run. cached reports
	// whether the result was served from the cache.
	RecordCluster(duration time.Duration, cached bool, err error)

	// RecordRecommend is called after each recommendation run.
	RecordRecommend(duration time.Duration, err error)

	// RecordDrift is called after each drift analysis.
	RecordDrift(duration time.Duration, err error)

	// RecordOptimize is called after each maintenance run.
	RecordOptimize(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchAdd(int, int, time.Duration)   {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)        {}
func (NoopMetricsCollector) RecordSearch(time.Duration, bool, error)  {}
func (NoopMetricsCollector) RecordCluster(time.Duration, bool, error) {}
func (NoopMetricsCollector) RecordRecommend(time.Duration, error)     {}
func (NoopMetricsCollector) RecordDrift(time.Duration, error)         {}
func (NoopMetricsCollector) RecordOptimize(time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount          atomic.Int64
	AddErrors         atomic.Int64
	AddTotalNanos     atomic.Int64
	BatchCount        atomic.Int64
	BatchItems        atomic.Int64
	BatchFailed       atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchCacheHits   atomic.Int64
	SearchTotalNanos  atomic.Int64
	ClusterCount      atomic.Int64
	ClusterErrors     atomic.Int64
	ClusterCacheHits  atomic.Int64
	ClusterTotalNanos atomic.Int64
	RecommendCount    atomic.Int64
	RecommendErrors   atomic.Int64
	DriftCount        atomic.Int64
	DriftErrors       atomic.Int64
	OptimizeCount     atomic.Int64
	OptimizeErrors    atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordBatchAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchAdd(count, failed int, duration time.Duration) {
	b.BatchCount.Add(1)
	b.BatchItems.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(duration time.Duration, cached bool, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if cached {
		b.SearchCacheHits.Add(1)
	}
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCluster(duration time.Duration, cached bool, err error) {
	b.ClusterCount.Add(1)
	b.ClusterTotalNanos.Add(duration.Nanoseconds())
	if cached {
		b.ClusterCacheHits.Add(1)
	}
	if err != nil {
		b.ClusterErrors.Add(1)
	}
}

// RecordRecommend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecommend(duration time.Duration, err error) {
	b.RecommendCount.Add(1)
	if err != nil {
		b.RecommendErrors.Add(1)
	}
}

// RecordDrift implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDrift(duration time.Duration, err error) {
	b.DriftCount.Add(1)
	if err != nil {
		b.DriftErrors.Add(1)
	}
}

// RecordOptimize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOptimize(duration time.Duration, err error) {
	b.OptimizeCount.Add(1)
	if err != nil {
		b.OptimizeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:         b.AddCount.Load(),
		AddErrors:        b.AddErrors.Load(),
		AddAvgNanos:      avgNanos(&b.AddTotalNanos, &b.AddCount),
		BatchCount:       b.BatchCount.Load(),
		BatchItems:       b.BatchItems.Load(),
		BatchFailed:      b.BatchFailed.Load(),
		DeleteCount:      b.DeleteCount.Load(),
		DeleteErrors:     b.DeleteErrors.Load(),
		SearchCount:      b.SearchCount.Load(),
		SearchErrors:     b.SearchErrors.Load(),
		SearchCacheHits:  b.SearchCacheHits.Load(),
		SearchAvgNanos:   avgNanos(&b.SearchTotalNanos, &b.SearchCount),
		ClusterCount:     b.ClusterCount.Load(),
		ClusterErrors:    b.ClusterErrors.Load(),
		ClusterCacheHits: b.ClusterCacheHits.Load(),
		ClusterAvgNanos:  avgNanos(&b.ClusterTotalNanos, &b.ClusterCount),
		RecommendCount:   b.RecommendCount.Load(),
		RecommendErrors:  b.RecommendErrors.Load(),
		DriftCount:       b.DriftCount.Load(),
		DriftErrors:      b.DriftErrors.Load(),
		OptimizeCount:    b.OptimizeCount.Load(),
		OptimizeErrors:   b.OptimizeErrors.Load(),
	}
}

func avgNanos(total, count *atomic.Int64) int64 {
	n := count.Load()
	if n == 0 {
		return 0
	}
	return total.Load() / n
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount         int64
	AddErrors        int64
	AddAvgNanos      int64
	BatchCount       int64
	BatchItems       int64
	BatchFailed      int64
	DeleteCount      int64
	DeleteErrors     int64
	SearchCount      int64
	SearchErrors     int64
	SearchCacheHits  int64
	SearchAvgNanos   int64
	ClusterCount     int64
	ClusterErrors    int64
	ClusterCacheHits int64
	ClusterAvgNanos  int64
	RecommendCount   int64
	RecommendErrors  int64
	DriftCount       int64
	DriftErrors      int64
	OptimizeCount    int64
	OptimizeErrors   int64
}

var (
	_ MetricsCollector = NoopMetricsCollector{}
	_ MetricsCollector = (*BasicMetricsCollector)(nil)
)
