package semdex

import (
	"log/slog"
	"time"

	"github.com/promptlab/semdex/analytics"
	"github.com/promptlab/semdex/embedding"
)

type options struct {
	logger             *Logger
	metricsCollector   MetricsCollector
	embedder           embedding.Embedder
	sink               analytics.Sink
	analyticsCapacity  int
	seed               *int64
	m                  int
	maxLevel           int
	initialCapacity    int
	batchChunkSize     int
	batchParallelism   int
	searchCacheTTL     time.Duration
	clusterCacheTTL    time.Duration
	rebalanceThreshold int
}

// Option configures engine construction.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Passing nil restores the no-op logger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger to stderr with the specified level and
// sets it. Convenience wrapper for WithLogger(NewTextLogger(nil, level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(nil, level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Passing nil restores the no-op collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithEmbedder configures the embedding provider used to turn text queries
// into vectors. Without one, text queries fail validation.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// WithAnalyticsSink configures the destination for engine events. Delivery
// is asynchronous and fire-and-forget; sink failures are logged, never
// surfaced. Passing nil restores the discarding sink.
func WithAnalyticsSink(s analytics.Sink) Option {
	return func(o *options) {
		if s == nil {
			s = analytics.Noop{}
		}
		o.sink = s
	}
}

// WithAnalyticsCapacity bounds the analytics event queue. Events beyond
// capacity are dropped and counted.
func WithAnalyticsCapacity(n int) Option {
	return func(o *options) {
		o.analyticsCapacity = n
	}
}

// WithRandomSeed seeds the random sources behind graph level assignment and
// cluster initialization, making index topology and clustering deterministic
// for tests.
func WithRandomSeed(seed int64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithM sets the number of outgoing neighbors per hierarchical index node.
func WithM(m int) Option {
	return func(o *options) {
		o.m = m
	}
}

// WithMaxLevel caps the hierarchical index level assignment.
func WithMaxLevel(level int) Option {
	return func(o *options) {
		o.maxLevel = level
	}
}

// WithInitialCapacity sizes the vector arena in documents.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		o.initialCapacity = n
	}
}

// WithBatchChunkSize sets the number of documents written per batch chunk.
func WithBatchChunkSize(n int) Option {
	return func(o *options) {
		o.batchChunkSize = n
	}
}

// WithBatchParallelism bounds concurrent writers within a batch chunk.
func WithBatchParallelism(n int) Option {
	return func(o *options) {
		o.batchParallelism = n
	}
}

// WithSearchCacheTTL sets the search result cache lifetime. A negative value
// disables search caching.
func WithSearchCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.searchCacheTTL = ttl
	}
}

// WithClusterCacheTTL sets the cluster result cache lifetime. A negative
// value disables cluster caching.
func WithClusterCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.clusterCacheTTL = ttl
	}
}

// WithRebalanceThreshold sets the corpus size at which the optimizer's
// rebalance step engages.
func WithRebalanceThreshold(n int) Option {
	return func(o *options) {
		o.rebalanceThreshold = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:             NoopLogger(),
		metricsCollector:   NoopMetricsCollector{},
		sink:               analytics.Noop{},
		rebalanceThreshold: DefaultRebalanceThreshold,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
