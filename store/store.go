// Package store owns the document corpus: an arena of documents addressed by
// dense internal ids, the external id lookup, and the index components (flat
// arena, hierarchical graph, quantizer, metadata postings) kept in step with
// every write.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/promptlab/semdex/distance"
	"github.com/promptlab/semdex/document"
	"github.com/promptlab/semdex/index/flat"
	"github.com/promptlab/semdex/index/hnsw"
	"github.com/promptlab/semdex/postings"
	"github.com/promptlab/semdex/quantize"
)

// ErrNotFound is returned when a document id is not in the corpus.
var ErrNotFound = errors.New("document not found")

// Options contains configuration options for the store.
type Options struct {
	// InitialCapacity sizes the vector arena in documents.
	InitialCapacity int

	// M is the number of outgoing neighbors per graph node.
	M int

	// MaxLevel caps the graph level assignment.
	MaxLevel int

	// Seed seeds the graph level RNG. Nil means time-based.
	Seed *int64
}

// DefaultOptions contains the default configuration options for the store.
var DefaultOptions = Options{
	InitialCapacity: 1024,
	M:               hnsw.DefaultM,
	MaxLevel:        hnsw.DefaultMaxLevel,
}

// Store is the corpus arena. Documents held in the arena are never mutated
// in place: updates swap in fresh clones, so readers may share pointers
// obtained under the read lock.
type Store struct {
	mu   sync.RWMutex
	dim  int
	docs []*document.Document // arena, indexed by internal id
	ids  map[string]uint32    // external id lookup
	free []uint32             // internal ids available for reuse
	next uint32

	flat     *flat.Index
	graph    *hnsw.Index
	quant    *quantize.Quantizer
	postings *postings.Index
}

// New creates an empty store for vectors of length dim.
func New(dim int, optFns ...func(o *Options)) (*Store, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dim)
	}

	fl := flat.New(dim, func(o *flat.Options) {
		o.InitialCapacity = opts.InitialCapacity
	})

	s := &Store{
		dim:  dim,
		ids:  make(map[string]uint32),
		flat: fl,
		graph: hnsw.New(fl, func(o *hnsw.Options) {
			o.M = opts.M
			o.MaxLevel = opts.MaxLevel
			o.Seed = opts.Seed
		}),
		quant:    quantize.New(dim),
		postings: postings.New(),
	}

	return s, nil
}

// Dim returns the vector dimension.
func (s *Store) Dim() int {
	return s.dim
}

// Len returns the number of documents in the corpus.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ids)
}

// Flat returns the exact vector index.
func (s *Store) Flat() *flat.Index {
	return s.flat
}

// Graph returns the hierarchical index.
func (s *Store) Graph() *hnsw.Index {
	return s.graph
}

// Quantizer returns the scalar quantizer.
func (s *Store) Quantizer() *quantize.Quantizer {
	return s.quant
}

// Postings returns the metadata postings index.
func (s *Store) Postings() *postings.Index {
	return s.postings
}

// Upsert validates d and writes it into the corpus, normalizing the vector
// and filling absent timestamps. The caller's document is not modified.
// It reports whether the document was newly added.
func (s *Store) Upsert(d *document.Document) (bool, error) {
	if err := document.Validate(d, s.dim); err != nil {
		return false, err
	}

	c := d.Clone()
	// Zero-magnitude vectors are stored unchanged.
	c.Vector, _ = distance.NormalizeL2Copy(c.Vector)

	now := time.Now().UTC()
	if c.Metadata.Created.IsZero() {
		c.Metadata.Created = now
	}
	if c.Metadata.Updated.IsZero() {
		c.Metadata.Updated = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.ids[c.ID]
	if exists {
		s.postings.Remove(id, &s.docs[id].Metadata)
	} else {
		id = s.allocLocked()
		s.ids[c.ID] = id
	}

	s.growLocked(id)
	s.docs[id] = c

	s.flat.Set(id, c.Vector)
	s.graph.Insert(id, c.Vector)
	_ = s.quant.Encode(id, c.Vector)
	s.postings.Add(id, &c.Metadata)

	return !exists, nil
}

// Delete removes the document with the given external id from the corpus and
// every index component.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iid, ok := s.ids[id]
	if !ok {
		return ErrNotFound
	}

	s.postings.Remove(iid, &s.docs[iid].Metadata)
	s.flat.Remove(iid)
	s.graph.Remove(iid)
	s.quant.Remove(iid)

	s.docs[iid] = nil
	delete(s.ids, id)
	s.free = append(s.free, iid)

	return nil
}

// Get returns a copy of the document with the given external id.
func (s *Store) Get(id string) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iid, ok := s.ids[id]
	if !ok {
		return nil, ErrNotFound
	}

	return s.docs[iid].Clone(), nil
}

// Resolve maps an external id to its internal id.
func (s *Store) Resolve(id string) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iid, ok := s.ids[id]

	return iid, ok
}

// DocByInternal returns the arena document for an internal id. The returned
// pointer is shared: callers must treat it as read-only.
func (s *Store) DocByInternal(iid uint32) (*document.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(iid) >= len(s.docs) || s.docs[iid] == nil {
		return nil, false
	}

	return s.docs[iid], true
}

// VectorByID returns a copy of the stored (normalized) vector for an
// external id.
func (s *Store) VectorByID(id string) ([]float32, bool) {
	s.mu.RLock()
	iid, ok := s.ids[id]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	return s.flat.Vector(iid)
}

// ForEachDocument invokes fn for every document in ascending internal id
// order until fn returns false. The documents are shared arena pointers:
// fn must treat them as read-only and must not call back into the store.
func (s *Store) ForEachDocument(fn func(iid uint32, d *document.Document) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for iid, d := range s.docs {
		if d == nil {
			continue
		}
		if !fn(uint32(iid), d) {
			return
		}
	}
}

// List returns documents matching filter in ascending internal id order,
// paged by offset and limit, plus the total match count. A nil filter
// matches everything; limit <= 0 disables paging.
func (s *Store) List(filter *document.Filter, offset, limit int) ([]*document.Document, int, error) {
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		page  []*document.Document
		total int
	)

	for _, d := range s.docs {
		if d == nil {
			continue
		}
		if filter != nil && !filter.Matches(d) {
			continue
		}

		if total >= offset && (limit <= 0 || len(page) < limit) {
			page = append(page, d.Clone())
		}
		total++
	}

	return page, total, nil
}

// SampleVector returns a copy of one stored vector, used as a probe query
// during maintenance.
func (s *Store) SampleVector() ([]float32, bool) {
	var out []float32

	s.flat.Scan(func(id uint32, vec []float32) bool {
		out = make([]float32, len(vec))
		copy(out, vec)
		return false
	})

	return out, out != nil
}

// RecordUsage increments the usage counter of a document by delta. The
// arena document is replaced, not mutated.
func (s *Store) RecordUsage(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	iid, ok := s.ids[id]
	if !ok {
		return ErrNotFound
	}

	c := s.docs[iid].Clone()

	count := delta
	if c.Metadata.UsageCount != nil {
		count += *c.Metadata.UsageCount
	}
	c.Metadata.UsageCount = &count
	c.Metadata.Updated = time.Now().UTC()

	s.docs[iid] = c

	return nil
}

func (s *Store) allocLocked() uint32 {
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		return id
	}

	id := s.next
	s.next++

	return id
}

func (s *Store) growLocked(id uint32) {
	for int(id) >= len(s.docs) {
		s.docs = append(s.docs, nil)
	}
}
