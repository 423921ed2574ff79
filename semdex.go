package semdex

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/promptlab/semdex/analytics"
	"github.com/promptlab/semdex/cluster"
	"github.com/promptlab/semdex/document"
	"github.com/promptlab/semdex/drift"
	"github.com/promptlab/semdex/index/hnsw"
	"github.com/promptlab/semdex/quantize"
	"github.com/promptlab/semdex/recommend"
	"github.com/promptlab/semdex/search"
	"github.com/promptlab/semdex/store"
)

// batchPause spaces out batch chunks so a large import yields to foreground
// queries.
const batchPause = 10 * time.Millisecond

// Engine ties the document store, the vector indexes, and the analyzers
// together behind a single API. All methods are safe for concurrent use.
type Engine struct {
	store       *store.Store
	searcher    *search.Engine
	clusterer   *cluster.Engine
	recommender *recommend.Engine
	drifter     *drift.Engine

	events  *analytics.Async
	metrics MetricsCollector
	logger  *Logger

	batchChunkSize     int
	batchParallelism   int
	rebalanceThreshold int
}

// New creates an Engine for vectors of the given dimension.
func New(dimension int, optFns ...Option) (*Engine, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension: %d", ErrValidation, dimension)
	}

	opts := applyOptions(optFns)

	s, err := store.New(dimension, func(o *store.Options) {
		if opts.initialCapacity > 0 {
			o.InitialCapacity = opts.initialCapacity
		}
		if opts.m > 0 {
			o.M = opts.m
		}
		if opts.maxLevel > 0 {
			o.MaxLevel = opts.maxLevel
		}
		o.Seed = opts.seed
	})
	if err != nil {
		return nil, translateError(err)
	}

	searcher := search.New(s, func(o *search.Options) {
		o.Embedder = opts.embedder
		if opts.searchCacheTTL != 0 {
			o.CacheTTL = opts.searchCacheTTL
		}
	})

	clusterer := cluster.New(s, func(o *cluster.Options) {
		o.Seed = opts.seed
		if opts.clusterCacheTTL != 0 {
			o.CacheTTL = opts.clusterCacheTTL
		}
	})

	e := &Engine{
		store:              s,
		searcher:           searcher,
		clusterer:          clusterer,
		recommender:        recommend.New(s, searcher),
		drifter:            drift.New(s),
		metrics:            opts.metricsCollector,
		logger:             opts.logger,
		batchChunkSize:     opts.batchChunkSize,
		batchParallelism:   opts.batchParallelism,
		rebalanceThreshold: opts.rebalanceThreshold,
	}

	e.events = analytics.NewAsync(opts.sink, func(o *analytics.AsyncOptions) {
		if opts.analyticsCapacity > 0 {
			o.Capacity = opts.analyticsCapacity
		}
		o.OnError = func(event analytics.Event, err error) {
			e.logger.LogAnalyticsError(event.Type, err)
		}
	})

	return e, nil
}

// AddDocument validates doc, L2-normalizes its vector (an all-zero vector is
// stored unchanged), and upserts it into every index. Adding an id that
// already exists replaces the stored document.
func (e *Engine) AddDocument(ctx context.Context, doc *document.Document) error {
	start := time.Now()

	added, err := e.store.Upsert(doc)
	err = translateError(err)
	if err == nil {
		e.invalidate()
		e.emit(ctx, analytics.EventDocumentAdded, doc.ID, "document", map[string]any{
			"domain": doc.Metadata.Domain,
			"type":   string(doc.Metadata.Type),
			"update": !added,
		})
	}

	e.metrics.RecordAdd(time.Since(start), err)
	e.logger.LogAdd(ctx, docID(doc), added, err)
	return err
}

// UpdateDocument upserts doc. It is an alias for AddDocument: an unknown id
// inserts rather than fails.
func (e *Engine) UpdateDocument(ctx context.Context, doc *document.Document) error {
	return e.AddDocument(ctx, doc)
}

// AddDocumentsBatch writes docs in chunks with bounded parallelism and a
// cooperative pause between chunks. Invalid documents are reported per item
// without aborting the batch; duplicate ids resolve to the last valid
// occurrence. A canceled context stops at the next chunk boundary and returns
// the partial result alongside the context error.
func (e *Engine) AddDocumentsBatch(ctx context.Context, docs []*document.Document) (*store.BatchResult, error) {
	start := time.Now()

	result, err := e.store.BatchUpsert(ctx, docs, func(o *store.BatchOptions) {
		if e.batchChunkSize > 0 {
			o.ChunkSize = e.batchChunkSize
		}
		if e.batchParallelism > 0 {
			o.Parallelism = e.batchParallelism
		}
		o.Pace = rate.NewLimiter(rate.Every(batchPause), 1)
	})
	err = translateError(err)

	for i := range result.Errors {
		result.Errors[i].Err = translateError(result.Errors[i].Err)
	}

	if result.Added+result.Updated > 0 {
		e.invalidate()
		e.emit(ctx, analytics.EventBatchAdded, "", "batch", map[string]any{
			"total":   result.Total,
			"added":   result.Added,
			"updated": result.Updated,
			"failed":  result.Failed,
		})
	}

	e.metrics.RecordBatchAdd(result.Total, result.Failed, time.Since(start))
	e.logger.LogBatch(ctx, result.Total, result.Failed, err)
	return result, err
}

// DeleteDocument removes id from the store, both indexes, and the quantizer.
func (e *Engine) DeleteDocument(ctx context.Context, id string) error {
	start := time.Now()

	err := translateError(e.store.Delete(id))
	if err == nil {
		e.invalidate()
		e.emit(ctx, analytics.EventDocumentDeleted, id, "document", nil)
	}

	e.metrics.RecordDelete(time.Since(start), err)
	e.logger.LogDelete(ctx, id, err)
	return err
}

// GetDocument returns a copy of the stored document.
func (e *Engine) GetDocument(id string) (*document.Document, error) {
	doc, err := e.store.Get(id)
	return doc, translateError(err)
}

// ListDocuments returns a page of documents matching filter in stable
// insertion order, along with the total match count. A nil filter matches
// everything; limit <= 0 disables paging.
func (e *Engine) ListDocuments(filter *document.Filter, offset, limit int) ([]*document.Document, int, error) {
	docs, total, err := e.store.List(filter, offset, limit)
	return docs, total, translateError(err)
}

// RecordUsage increments the usage counter of id and refreshes its updated
// timestamp.
func (e *Engine) RecordUsage(ctx context.Context, id string) error {
	err := translateError(e.store.RecordUsage(id, 1))
	if err == nil {
		e.invalidate()
	}

	e.logger.LogUsage(ctx, id, err)
	return err
}

// CacheStats is a snapshot of one result cache.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// Stats is a point-in-time snapshot of engine state.
type Stats struct {
	Documents int
	Dimension int

	Graph     hnsw.Stats
	Quantizer quantize.Stats

	SearchCache  CacheStats
	ClusterCache CacheStats

	AnalyticsDropped  int64
	AnalyticsFailures int64
}

// Stats returns statistics about the engine.
func (e *Engine) Stats() Stats {
	searchHits, searchMisses := e.searcher.CacheStats()
	clusterHits, clusterMisses := e.clusterer.CacheStats()

	return Stats{
		Documents: e.store.Len(),
		Dimension: e.store.Dim(),
		Graph:     e.store.Graph().Stats(),
		Quantizer: e.store.Quantizer().Stats(),
		SearchCache: CacheStats{
			Entries: e.searcher.CacheLen(),
			Hits:    searchHits,
			Misses:  searchMisses,
		},
		ClusterCache: CacheStats{
			Entries: e.clusterer.CacheLen(),
			Hits:    clusterHits,
			Misses:  clusterMisses,
		},
		AnalyticsDropped:  e.events.Dropped(),
		AnalyticsFailures: e.events.Failures(),
	}
}

// Close drains the analytics pipeline and stops its worker. It is safe to
// call more than once.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	return e.events.Close()
}

// invalidate drops every cached search and cluster result. Invalidation is
// coarse: any write clears both caches.
func (e *Engine) invalidate() {
	e.searcher.Invalidate()
	e.clusterer.Invalidate()
}

// emit queues an analytics event. Delivery is asynchronous and
// fire-and-forget: rejected events are logged by the pipeline, never
// surfaced to the caller.
func (e *Engine) emit(ctx context.Context, eventType, entityID, entityType string, data map[string]any) {
	_ = e.events.Record(ctx, analytics.NewEvent(eventType, entityID, entityType, data))
}

func docID(d *document.Document) string {
	if d == nil {
		return ""
	}
	return d.ID
}
