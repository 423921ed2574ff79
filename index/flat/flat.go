// Package flat implements the exact vector index: a dense arena of
// full-precision vectors addressed by internal document ids. It is the ground
// truth for all similarity math; the hierarchical index and the quantizer are
// derived views rebuilt from it during maintenance.
package flat

import (
	"sync"

	"github.com/promptlab/semdex/distance"
)

// Options contains configuration options for the flat index.
type Options struct {
	// InitialCapacity sizes the backing arena in vectors.
	InitialCapacity int
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	InitialCapacity: 1024,
}

// Index stores vectors in a single flattened slice with stride Dim. Slots are
// addressed by internal id; deleted slots stay allocated until the id is
// reused through the store's free list.
type Index struct {
	mu   sync.RWMutex
	dim  int
	data []float32
	live []bool
	len  int
}

// New creates a new flat index for vectors of length dim.
func New(dim int, optFns ...func(o *Options)) *Index {
	opts := DefaultOptions

	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	if opts.InitialCapacity < 0 {
		opts.InitialCapacity = 0
	}

	return &Index{
		dim:  dim,
		data: make([]float32, 0, opts.InitialCapacity*dim),
	}
}

// Dim returns the vector dimension.
func (x *Index) Dim() int {
	return x.dim
}

// Len returns the number of live vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.len
}

// Set stores vec at id, growing the arena as needed. The vector is copied.
// The caller guarantees len(vec) == Dim.
func (x *Index) Set(id uint32, vec []float32) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.grow(id)

	if !x.live[id] {
		x.live[id] = true
		x.len++
	}

	copy(x.data[int(id)*x.dim:(int(id)+1)*x.dim], vec)
}

// Remove tombstones id and reports whether it was live.
func (x *Index) Remove(id uint32) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if int(id) >= len(x.live) || !x.live[id] {
		return false
	}

	x.live[id] = false
	x.len--

	return true
}

// Has reports whether id holds a live vector.
func (x *Index) Has(id uint32) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return int(id) < len(x.live) && x.live[id]
}

// Vector returns a copy of the vector stored at id.
func (x *Index) Vector(id uint32) ([]float32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if int(id) >= len(x.live) || !x.live[id] {
		return nil, false
	}

	out := make([]float32, x.dim)
	copy(out, x.data[int(id)*x.dim:])

	return out, true
}

// Dot returns the dot product of the vector stored at id and query.
// The caller guarantees len(query) == Dim.
func (x *Index) Dot(id uint32, query []float32) (float32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if int(id) >= len(x.live) || !x.live[id] {
		return 0, false
	}

	return distance.Dot(x.data[int(id)*x.dim:(int(id)+1)*x.dim], query), true
}

// Scan invokes fn for every live id in ascending order until fn returns
// false. The vector slice is a view into the arena, valid only during the
// callback; fn must not retain it or write to the index.
func (x *Index) Scan(fn func(id uint32, vec []float32) bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	for id := range x.live {
		if !x.live[id] {
			continue
		}

		if !fn(uint32(id), x.data[id*x.dim:(id+1)*x.dim]) {
			return
		}
	}
}

// MemoryBytes returns the size of the backing arena in bytes.
func (x *Index) MemoryBytes() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.data) * 4
}

func (x *Index) grow(id uint32) {
	for int(id) >= len(x.live) {
		x.live = append(x.live, false)
		x.data = append(x.data, make([]float32, x.dim)...)
	}
}
