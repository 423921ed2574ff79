// Package search implements the similarity search pipeline: query
// resolution, candidate generation through the hierarchical graph with a
// brute-force fallback, metadata filtering, ranking, and the result cache.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/promptlab/semdex/cache"
	"github.com/promptlab/semdex/distance"
	"github.com/promptlab/semdex/document"
	"github.com/promptlab/semdex/embedding"
	"github.com/promptlab/semdex/store"
)

const (
	// DefaultThreshold is the minimum similarity applied when a query does
	// not set one.
	DefaultThreshold = 0.5

	// DefaultLimit is the result cap applied when a query does not set one.
	DefaultLimit = 20

	// DefaultCacheTTL is how long cached result sets stay valid.
	DefaultCacheTTL = 15 * time.Minute
)

// Sentinel errors for invalid queries.
var (
	ErrMissingQuery     = errors.New("query must provide a vector or text")
	ErrNoEmbedder       = errors.New("no embedder configured for text queries")
	ErrInvalidLimit     = errors.New("limit must not be negative")
	ErrInvalidThreshold = errors.New("threshold must not exceed 1")
)

// EmbeddingError wraps a failure of the configured embedder.
type EmbeddingError struct {
	Err error
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding query text: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// Query describes a similarity search. Exactly one of Vector or Text must be
// set; Text requires a configured embedder.
type Query struct {
	// Vector is the query vector. Takes precedence over Text.
	Vector []float32

	// Text is embedded into a query vector when Vector is absent.
	Text string

	// Filter restricts candidates by metadata. All conditions are ANDed.
	Filter document.Filter

	// Threshold is the minimum similarity. Zero applies the default;
	// negative disables the floor.
	Threshold float64

	// Limit caps the number of results. Zero applies the default.
	Limit int
}

// Result is a ranked search hit. The document is a private copy.
type Result struct {
	Document   *document.Document
	Similarity float64
	Rank       int
}

// scored is the cached form of a hit: internal id plus similarity. Documents
// are re-resolved on every return so callers never share clones.
type scored struct {
	id  uint32
	sim float32
}

// Options contains configuration options for the search engine.
type Options struct {
	// Embedder turns query text into vectors. Nil disables text queries.
	Embedder embedding.Embedder

	// CacheTTL is how long cached result sets stay valid.
	CacheTTL time.Duration

	// Now overrides the cache clock, for tests.
	Now func() time.Time
}

// DefaultOptions contains the default configuration options for the search
// engine.
var DefaultOptions = Options{
	CacheTTL: DefaultCacheTTL,
}

// Engine executes searches against a store.
type Engine struct {
	store    *store.Store
	embedder embedding.Embedder
	cache    *cache.Cache[[]scored]
}

// New creates a search engine over s.
func New(s *store.Store, optFns ...func(o *Options)) *Engine {
	opts := DefaultOptions

	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	return &Engine{
		store:    s,
		embedder: opts.Embedder,
		cache: cache.New[[]scored](opts.CacheTTL, func(o *cache.Options) {
			if opts.Now != nil {
				o.Now = opts.Now
			}
		}),
	}
}

// Search runs the query and reports whether the result came from the cache.
func (e *Engine) Search(ctx context.Context, q *Query) ([]Result, bool, error) {
	if q == nil {
		return nil, false, ErrMissingQuery
	}

	vec, threshold, limit, err := e.resolve(ctx, q)
	if err != nil {
		return nil, false, err
	}

	key := cacheKey(vec, q.Text, &q.Filter, limit, threshold)
	if hits, ok := e.cache.Get(key); ok {
		return e.assemble(hits), true, nil
	}

	hits := e.run(vec, &q.Filter, threshold, limit, nil)
	e.cache.Set(key, hits)

	return e.assemble(hits), false, nil
}

// FindSimilar searches with a stored document's vector as the query,
// excluding the reference document itself. Results bypass the cache; the
// cache-hit flag is always false.
func (e *Engine) FindSimilar(ctx context.Context, id string, threshold float64, limit int) ([]Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	iid, ok := e.store.Resolve(id)
	if !ok {
		return nil, false, store.ErrNotFound
	}

	vec, ok := e.store.VectorByID(id)
	if !ok {
		return nil, false, store.ErrNotFound
	}

	threshold, limit, err := normalizeParams(threshold, limit)
	if err != nil {
		return nil, false, err
	}

	hits := e.run(vec, nil, threshold, limit, &iid)

	return e.assemble(hits), false, nil
}

// Invalidate clears the result cache and returns the number of dropped
// entries. Every corpus write goes through here.
func (e *Engine) Invalidate() int {
	return e.cache.Clear()
}

// CacheStats returns cumulative cache hit and miss counters.
func (e *Engine) CacheStats() (hits, misses int64) {
	return e.cache.Stats()
}

// CacheLen returns the number of cached result sets.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

// resolve turns the query into a normalized vector and effective parameters.
func (e *Engine) resolve(ctx context.Context, q *Query) ([]float32, float64, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, 0, err
	}

	threshold, limit, err := normalizeParams(q.Threshold, q.Limit)
	if err != nil {
		return nil, 0, 0, err
	}

	var vec []float32

	switch {
	case len(q.Vector) > 0:
		if len(q.Vector) != e.store.Dim() {
			return nil, 0, 0, &document.DimensionMismatchError{Expected: e.store.Dim(), Actual: len(q.Vector)}
		}
		vec, _ = distance.NormalizeL2Copy(q.Vector)
	case q.Text != "":
		if e.embedder == nil {
			return nil, 0, 0, ErrNoEmbedder
		}

		embedded, err := e.embedder.Embed(ctx, q.Text)
		if err != nil {
			return nil, 0, 0, &EmbeddingError{Err: err}
		}
		if len(embedded) != e.store.Dim() {
			return nil, 0, 0, &document.DimensionMismatchError{Expected: e.store.Dim(), Actual: len(embedded)}
		}
		vec, _ = distance.NormalizeL2Copy(embedded)
	default:
		return nil, 0, 0, ErrMissingQuery
	}

	return vec, threshold, limit, nil
}

// run generates, filters, and ranks candidates. The graph serves candidate
// generation once it has been built; otherwise every live vector is scanned.
func (e *Engine) run(vec []float32, filter *document.Filter, threshold float64, limit int, exclude *uint32) []scored {
	var membership func(id uint32) bool
	if filter != nil {
		if fn, ok := e.store.Postings().Compile(filter); ok {
			membership = fn
		}
	}

	var hits []scored

	keep := func(id uint32, sim float32) {
		if exclude != nil && id == *exclude {
			return
		}
		if float64(sim) < threshold {
			return
		}
		if membership != nil && !membership(id) {
			return
		}
		if filter != nil && filterNeedsDocument(filter) {
			d, ok := e.store.DocByInternal(id)
			if !ok || !matchesRanges(filter, d) {
				return
			}
		}

		hits = append(hits, scored{id: id, sim: sim})
	}

	if candidates, ok := e.store.Graph().Search(vec); ok {
		for _, c := range candidates {
			keep(c.ID, c.Similarity)
		}
	} else {
		// Brute-force fallback. Score first, filter after the scan
		// returns: keep resolves documents and must not run under the
		// flat index lock. Ascending id order keeps ties deterministic
		// under the stable sort below.
		var raw []scored
		e.store.Flat().Scan(func(id uint32, v []float32) bool {
			raw = append(raw, scored{id: id, sim: distance.Dot(vec, v)})
			return true
		})
		for _, r := range raw {
			keep(r.id, r.sim)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].sim > hits[j].sim
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	return hits
}

// assemble resolves hits into ranked results with fresh document copies.
func (e *Engine) assemble(hits []scored) []Result {
	out := make([]Result, 0, len(hits))

	for _, h := range hits {
		d, ok := e.store.DocByInternal(h.id)
		if !ok {
			// The document vanished without a cache invalidation; skip it
			// and keep ranks contiguous.
			continue
		}

		out = append(out, Result{
			Document:   d.Clone(),
			Similarity: float64(h.sim),
			Rank:       len(out) + 1,
		})
	}

	return out
}

func normalizeParams(threshold float64, limit int) (float64, int, error) {
	if limit < 0 {
		return 0, 0, ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultLimit
	}

	if threshold > 1 {
		return 0, 0, ErrInvalidThreshold
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	return threshold, limit, nil
}

// filterNeedsDocument reports whether the filter carries range conditions
// that the postings index cannot answer.
func filterNeedsDocument(f *document.Filter) bool {
	return f.EffectivenessMin != nil || f.CreatedAfter != nil || f.CreatedBefore != nil
}

// matchesRanges checks only the range conditions; equality conditions are
// already answered by the postings index.
func matchesRanges(f *document.Filter, d *document.Document) bool {
	if f.EffectivenessMin != nil {
		if d.Metadata.Effectiveness == nil || *d.Metadata.Effectiveness < *f.EffectivenessMin {
			return false
		}
	}

	if f.CreatedAfter != nil && !d.Metadata.Created.After(*f.CreatedAfter) {
		return false
	}

	if f.CreatedBefore != nil && !d.Metadata.Created.Before(*f.CreatedBefore) {
		return false
	}

	return true
}
