// Package cluster implements corpus clustering: k-means under cosine
// distance with per-cluster statistics, an explicit algorithm enum, and a
// one-hour result cache.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/promptlab/semdex/cache"
	"github.com/promptlab/semdex/distance"
	"github.com/promptlab/semdex/document"
	"github.com/promptlab/semdex/store"
)

const (
	// DefaultMaxIterations bounds the k-means assignment/update loop.
	DefaultMaxIterations = 100

	// DefaultCacheTTL is how long clustering results stay cached.
	DefaultCacheTTL = time.Hour

	// dominantTagCount is the number of top tags reported per cluster.
	dominantTagCount = 5
)

// Algorithm selects the clustering algorithm.
type Algorithm string

const (
	// AlgorithmKMeans is k-means under cosine distance.
	AlgorithmKMeans Algorithm = "kmeans"

	// AlgorithmHierarchical is declared but not implemented.
	AlgorithmHierarchical Algorithm = "hierarchical"

	// AlgorithmDBSCAN is declared but not implemented.
	AlgorithmDBSCAN Algorithm = "dbscan"
)

// Sentinel errors for invalid clustering requests.
var (
	ErrInvalidK         = errors.New("cluster count must be positive")
	ErrTooManyClusters  = errors.New("cannot create more clusters than documents")
	ErrUnknownAlgorithm = errors.New("unknown clustering algorithm")
)

// NotImplementedError is returned for algorithm variants that are declared
// in the interface but have no implementation.
type NotImplementedError struct {
	Algorithm Algorithm
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("clustering algorithm %q is not implemented", e.Algorithm)
}

// Stats summarizes one cluster.
type Stats struct {
	// Size is the number of member documents.
	Size int

	// AvgIntraSimilarity is the mean pairwise cosine similarity between
	// members. Zero for clusters with fewer than two members.
	AvgIntraSimilarity float64

	// DominantTags are the most frequent member tags, at most five,
	// ordered by frequency then name.
	DominantTags []string

	// EffectivenessMean, EffectivenessMedian, and EffectivenessStdDev
	// summarize the members that carry an effectiveness score.
	EffectivenessMean   float64
	EffectivenessMedian float64
	EffectivenessStdDev float64
}

// Cluster is one group of documents.
type Cluster struct {
	// ID is the cluster index, 0..k-1.
	ID int

	// Centroid is the mean of the member vectors.
	Centroid []float32

	// DocumentIDs lists the member documents in stable corpus order.
	DocumentIDs []string

	// Stats summarizes the cluster.
	Stats Stats
}

// Options contains configuration options for the cluster engine.
type Options struct {
	// MaxIterations bounds the k-means loop.
	MaxIterations int

	// CacheTTL is how long clustering results stay cached.
	CacheTTL time.Duration

	// Seed seeds the centroid initialization RNG. Nil means time-based.
	Seed *int64

	// Now overrides the cache clock, for tests.
	Now func() time.Time
}

// DefaultOptions contains the default configuration options for the cluster
// engine.
var DefaultOptions = Options{
	MaxIterations: DefaultMaxIterations,
	CacheTTL:      DefaultCacheTTL,
}

// Engine clusters the corpus of a store.
type Engine struct {
	store   *store.Store
	cache   *cache.Cache[[]Cluster]
	maxIter int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a cluster engine over s.
func New(s *store.Store, optFns ...func(o *Options)) *Engine {
	opts := DefaultOptions

	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if opts.MaxIterations < 1 {
		opts.MaxIterations = DefaultMaxIterations
	}

	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	return &Engine{
		store:   s,
		maxIter: opts.MaxIterations,
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // centroid seeding needs no crypto rand
		cache: cache.New[[]Cluster](opts.CacheTTL, func(o *cache.Options) {
			if opts.Now != nil {
				o.Now = opts.Now
			}
		}),
	}
}

// member is a corpus snapshot entry. Vector and tags alias arena memory and
// are read-only.
type member struct {
	id   string
	vec  []float32
	tags []string
	eff  *float64
}

// Cluster groups the corpus into k clusters and reports whether the result
// came from the cache. Only k-means is implemented; the hierarchical and
// dbscan variants return a NotImplementedError.
func (e *Engine) Cluster(ctx context.Context, k int, algorithm Algorithm) ([]Cluster, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	switch algorithm {
	case AlgorithmKMeans, "":
		algorithm = AlgorithmKMeans
	case AlgorithmHierarchical, AlgorithmDBSCAN:
		return nil, false, &NotImplementedError{Algorithm: algorithm}
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	if k < 1 {
		return nil, false, ErrInvalidK
	}

	key := fmt.Sprintf("k=%d;a=%s", k, algorithm)
	if cached, ok := e.cache.Get(key); ok {
		return cloneClusters(cached), true, nil
	}

	var members []member

	e.store.ForEachDocument(func(iid uint32, d *document.Document) bool {
		members = append(members, member{
			id:   d.ID,
			vec:  d.Vector,
			tags: d.Metadata.Tags,
			eff:  d.Metadata.Effectiveness,
		})
		return true
	})

	if k > len(members) {
		return nil, false, ErrTooManyClusters
	}

	vectors := make([][]float32, len(members))
	for i, m := range members {
		vectors[i] = m.vec
	}

	e.rngMu.Lock()
	assignments, centroids, err := runKMeans(ctx, vectors, e.store.Dim(), k, e.maxIter, e.rng)
	e.rngMu.Unlock()

	if err != nil {
		return nil, false, err
	}

	clusters := make([]Cluster, k)

	for j := 0; j < k; j++ {
		clusters[j] = Cluster{ID: j, Centroid: centroids[j]}
	}

	grouped := make([][]member, k)
	for i, m := range members {
		j := assignments[i]
		grouped[j] = append(grouped[j], m)
		clusters[j].DocumentIDs = append(clusters[j].DocumentIDs, m.id)
	}

	for j := range clusters {
		clusters[j].Stats = computeStats(grouped[j])
	}

	e.cache.Set(key, clusters)

	return cloneClusters(clusters), false, nil
}

// Invalidate clears the result cache and returns the number of dropped
// entries.
func (e *Engine) Invalidate() int {
	return e.cache.Clear()
}

// CacheStats returns cumulative cache hit and miss counters.
func (e *Engine) CacheStats() (hits, misses int64) {
	return e.cache.Stats()
}

// CacheLen returns the number of cached clusterings.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

func computeStats(members []member) Stats {
	s := Stats{Size: len(members)}

	// Average pairwise similarity, quadratic in cluster size.
	if len(members) >= 2 {
		var sum float64
		var pairs int

		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				sum += float64(distance.Cosine(members[i].vec, members[j].vec))
				pairs++
			}
		}

		s.AvgIntraSimilarity = sum / float64(pairs)
	}

	s.DominantTags = dominantTags(members)

	var effs []float64
	for _, m := range members {
		if m.eff != nil {
			effs = append(effs, *m.eff)
		}
	}

	if len(effs) > 0 {
		sort.Float64s(effs)

		s.EffectivenessMean = stat.Mean(effs, nil)
		s.EffectivenessMedian = stat.Quantile(0.5, stat.Empirical, effs, nil)

		if len(effs) > 1 {
			s.EffectivenessStdDev = stat.StdDev(effs, nil)
		}
	}

	return s
}

func dominantTags(members []member) []string {
	counts := make(map[string]int)
	for _, m := range members {
		for _, tag := range m.tags {
			counts[tag]++
		}
	}

	if len(counts) == 0 {
		return nil
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}

	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})

	if len(tags) > dominantTagCount {
		tags = tags[:dominantTagCount]
	}

	return tags
}

func cloneClusters(clusters []Cluster) []Cluster {
	out := make([]Cluster, len(clusters))

	for i, c := range clusters {
		out[i] = Cluster{
			ID:          c.ID,
			Centroid:    slices.Clone(c.Centroid),
			DocumentIDs: slices.Clone(c.DocumentIDs),
			Stats:       c.Stats,
		}
		out[i].Stats.DominantTags = slices.Clone(c.Stats.DominantTags)
	}

	return out
}
