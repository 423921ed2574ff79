// Package hnsw implements the hierarchical approximate index: a layered
// neighbor graph over the flat index. Levels follow a geometric distribution,
// each node records its nearest peers as outgoing edges at its assigned
// level, and searches descend from the entry point level by level.
//
// The graph is maintained incrementally on every write but only serves
// searches after Rebuild has run; until then callers fall back to a
// brute-force scan over the flat index.
package hnsw

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/promptlab/semdex/distance"
)

const (
	// DefaultM is the default number of outgoing neighbors per node.
	DefaultM = 10

	// DefaultMaxLevel caps the geometric level assignment.
	DefaultMaxLevel = 16

	// DefaultLevelProb is the probability of promoting a node one level up.
	DefaultLevelProb = 0.5
)

// VectorSource provides read access to the stored vectors. The flat index
// satisfies this interface.
type VectorSource interface {
	// Dot returns the dot product of the stored vector at id and query.
	Dot(id uint32, query []float32) (float32, bool)

	// Scan invokes fn for every live id in ascending order until fn
	// returns false.
	Scan(fn func(id uint32, vec []float32) bool)

	// Len returns the number of live vectors.
	Len() int
}

// Candidate is a scored search candidate.
type Candidate struct {
	ID         uint32
	Similarity float32
}

// Options represents the options for configuring the hierarchical index.
type Options struct {
	// M is the number of outgoing neighbors recorded per node.
	M int

	// MaxLevel caps the level assignment.
	MaxLevel int

	// LevelProb is the probability of promoting a node one level up.
	LevelProb float64

	// Seed seeds the level RNG. Nil means time-based.
	Seed *int64
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	M:         DefaultM,
	MaxLevel:  DefaultMaxLevel,
	LevelProb: DefaultLevelProb,
}

// Stats describes the state of the hierarchical index.
type Stats struct {
	Built    bool
	HasEntry bool
	Entry    uint32
	MaxLevel int
	Nodes    int
	Edges    int
}

// Index is the hierarchical graph. Node state lives in dense slices indexed
// by internal id; adjacency is a plain []uint32 per node.
type Index struct {
	mu     sync.RWMutex
	source VectorSource
	opts   Options
	rng    *rand.Rand

	levels    []int32    // -1 when the slot is absent
	neighbors [][]uint32 // outgoing edges at the node's assigned level

	entry    uint32
	hasEntry bool
	built    bool
	maxLevel int32
}

// New creates a new hierarchical index over source.
func New(source VectorSource, optFns ...func(o *Options)) *Index {
	opts := DefaultOptions

	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if opts.M < 1 {
		opts.M = DefaultM
	}

	if opts.MaxLevel < 0 {
		opts.MaxLevel = DefaultMaxLevel
	}

	if opts.LevelProb < 0 || opts.LevelProb >= 1 {
		opts.LevelProb = DefaultLevelProb
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	return &Index{
		source: source,
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // level assignment needs no crypto rand
	}
}

// Insert adds id to the graph: it assigns a level, finds the M nearest
// existing documents by exhaustive scan over the source, and records them as
// outgoing neighbors. The first id ever inserted becomes the entry point.
// vec must already be L2-normalized by the caller.
func (x *Index) Insert(id uint32, vec []float32) {
	x.mu.Lock()
	defer x.mu.Unlock()

	level := x.randomLevelLocked()
	x.growLocked(id)

	x.levels[id] = level
	x.neighbors[id] = x.nearestLocked(id, vec)

	if !x.hasEntry {
		x.entry = id
		x.hasEntry = true
	}

	if level > x.maxLevel {
		x.maxLevel = level
	}
}

// Remove drops id from the graph. Stale incoming edges from other nodes are
// tolerated: searches skip dead targets and Rebuild or GC prunes them.
func (x *Index) Remove(id uint32) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if int(id) >= len(x.levels) || x.levels[id] < 0 {
		return false
	}

	x.levels[id] = -1
	x.neighbors[id] = nil

	return true
}

// GC prunes outgoing edges whose target is no longer live and returns the
// number of edges dropped.
func (x *Index) GC(live func(id uint32) bool) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	dropped := 0

	for id := range x.neighbors {
		if x.levels[id] < 0 || len(x.neighbors[id]) == 0 {
			continue
		}

		kept := x.neighbors[id][:0]
		for _, nb := range x.neighbors[id] {
			if live(nb) {
				kept = append(kept, nb)
			} else {
				dropped++
			}
		}

		x.neighbors[id] = kept
	}

	return dropped
}

// Rebuild reconstructs the graph from scratch: it snapshots the source,
// assigns fresh levels, reinserts every document against the whole corpus,
// and re-picks the entry point as the highest-level node, ties broken by
// ascending id. The cost is quadratic in corpus size; run it only as
// maintenance.
func (x *Index) Rebuild(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	docs := make([]snapshotDoc, 0, x.source.Len())
	x.source.Scan(func(id uint32, vec []float32) bool {
		v := make([]float32, len(vec))
		copy(v, vec)
		docs = append(docs, snapshotDoc{id: id, vec: v})
		return true
	})

	x.built = false
	x.hasEntry = false
	x.maxLevel = 0
	x.levels = x.levels[:0]
	x.neighbors = x.neighbors[:0]

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		level := x.randomLevelLocked()
		x.growLocked(d.id)
		x.levels[d.id] = level
		x.neighbors[d.id] = x.nearestInLocked(docs, d.id, d.vec)

		if !x.hasEntry || level > x.maxLevel || (level == x.maxLevel && d.id < x.entry) {
			x.entry = d.id
			x.hasEntry = true
			x.maxLevel = level
		}
	}

	x.built = true

	return nil
}

// Search descends the graph from the entry point, expanding the candidate
// frontier by following stored adjacency level by level, then evaluates the
// final frontier exactly against query. Candidates come back ranked by
// similarity, ties broken by ascending id. It reports false when the graph
// cannot serve the query (never built, empty, or a dead entry point); the
// caller should then fall back to a brute-force scan.
func (x *Index) Search(query []float32) ([]Candidate, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.built || !x.hasEntry {
		return nil, false
	}

	if int(x.entry) >= len(x.levels) || x.levels[x.entry] < 0 {
		return nil, false
	}

	seen := make([]bool, len(x.levels))
	frontier := make([]uint32, 0, x.opts.M*2)
	frontier = append(frontier, x.entry)
	seen[x.entry] = true

	for l := x.maxLevel; l >= 0; l-- {
		for i := 0; i < len(frontier); i++ {
			n := frontier[i]
			if x.levels[n] != l {
				continue
			}

			for _, nb := range x.neighbors[n] {
				if int(nb) < len(seen) && !seen[nb] {
					seen[nb] = true
					frontier = append(frontier, nb)
				}
			}
		}
	}

	out := make([]Candidate, 0, len(frontier))

	for _, id := range frontier {
		sim, ok := x.source.Dot(id, query)
		if !ok {
			// Stale edge to a deleted document.
			continue
		}
		out = append(out, Candidate{ID: id, Similarity: sim})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})

	return out, true
}

// Built reports whether Rebuild has completed since the last reset.
func (x *Index) Built() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.built
}

// Stats returns a snapshot of the graph state.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	s := Stats{
		Built:    x.built,
		HasEntry: x.hasEntry,
		Entry:    x.entry,
		MaxLevel: int(x.maxLevel),
	}

	for id := range x.levels {
		if x.levels[id] < 0 {
			continue
		}
		s.Nodes++
		s.Edges += len(x.neighbors[id])
	}

	return s
}

func (x *Index) randomLevelLocked() int32 {
	level := int32(0)
	for x.rng.Float64() < x.opts.LevelProb && int(level) < x.opts.MaxLevel {
		level++
	}

	return level
}

func (x *Index) growLocked(id uint32) {
	for int(id) >= len(x.levels) {
		x.levels = append(x.levels, -1)
		x.neighbors = append(x.neighbors, nil)
	}
}

// nearestLocked finds the M nearest live documents to vec by exhaustive scan
// over the source, excluding self.
func (x *Index) nearestLocked(self uint32, vec []float32) []uint32 {
	best := make([]Candidate, 0, x.opts.M+1)

	x.source.Scan(func(other uint32, ov []float32) bool {
		if other == self {
			return true
		}
		best = insertCandidate(best, Candidate{ID: other, Similarity: distance.Dot(vec, ov)}, x.opts.M)
		return true
	})

	return candidateIDs(best)
}

type snapshotDoc struct {
	id  uint32
	vec []float32
}

// nearestInLocked finds the M nearest documents to vec among the given
// snapshot entries, excluding self.
func (x *Index) nearestInLocked(docs []snapshotDoc, self uint32, vec []float32) []uint32 {
	best := make([]Candidate, 0, x.opts.M+1)

	for _, d := range docs {
		if d.id == self {
			continue
		}
		best = insertCandidate(best, Candidate{ID: d.id, Similarity: distance.Dot(vec, d.vec)}, x.opts.M)
	}

	return candidateIDs(best)
}

// insertCandidate keeps best sorted by similarity descending, ties by
// ascending id, trimmed to at most m entries.
func insertCandidate(best []Candidate, c Candidate, m int) []Candidate {
	pos := len(best)
	for pos > 0 && best[pos-1].Similarity < c.Similarity {
		pos--
	}

	best = append(best, Candidate{})
	copy(best[pos+1:], best[pos:])
	best[pos] = c

	if len(best) > m {
		best = best[:m]
	}

	return best
}

func candidateIDs(best []Candidate) []uint32 {
	if len(best) == 0 {
		return nil
	}

	out := make([]uint32, len(best))
	for i, c := range best {
		out[i] = c.ID
	}

	return out
}
