// Package postings maintains Roaring-bitmap posting lists over internal
// document ids for the equality-filterable metadata fields: domain, type, and
// tags. The search path compiles a filter's equality conditions into a single
// allow bitmap so non-matching documents are skipped before any similarity
// math; range conditions stay with the document-level filter check.
package postings

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/promptlab/semdex/document"
)

// Index holds one bitmap per observed field value.
type Index struct {
	mu      sync.RWMutex
	domains map[string]*roaring.Bitmap
	types   map[string]*roaring.Bitmap
	tags    map[string]*roaring.Bitmap
}

// New creates an empty posting index.
func New() *Index {
	return &Index{
		domains: make(map[string]*roaring.Bitmap),
		types:   make(map[string]*roaring.Bitmap),
		tags:    make(map[string]*roaring.Bitmap),
	}
}

// Add records id under every indexed value of meta.
func (x *Index) Add(id uint32, meta *document.Metadata) {
	if meta == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	addTo(x.domains, meta.Domain, id)
	addTo(x.types, string(meta.Type), id)
	for _, tag := range meta.Tags {
		addTo(x.tags, tag, id)
	}
}

// Remove drops id from every indexed value of meta. Empty bitmaps are pruned.
func (x *Index) Remove(id uint32, meta *document.Metadata) {
	if meta == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	removeFrom(x.domains, meta.Domain, id)
	removeFrom(x.types, string(meta.Type), id)
	for _, tag := range meta.Tags {
		removeFrom(x.tags, tag, id)
	}
}

// Compile turns the equality conditions of f into a membership test over a
// detached bitmap. Domains, types, and tags each OR within their requested
// values and AND against each other. ok is false when f carries no equality
// conditions and candidates must be evaluated directly.
func (x *Index) Compile(f *document.Filter) (fn func(id uint32) bool, ok bool) {
	if f == nil || (len(f.Domains) == 0 && len(f.Types) == 0 && len(f.Tags) == 0) {
		return nil, false
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var acc *roaring.Bitmap
	intersect := func(group *roaring.Bitmap) {
		if acc == nil {
			acc = group
			return
		}
		acc.And(group)
	}

	if len(f.Domains) > 0 {
		intersect(x.union(x.domains, f.Domains))
	}
	if len(f.Types) > 0 {
		values := make([]string, len(f.Types))
		for i, t := range f.Types {
			values[i] = string(t)
		}
		intersect(x.union(x.types, values))
	}
	if len(f.Tags) > 0 {
		intersect(x.union(x.tags, f.Tags))
	}

	if acc.IsEmpty() {
		// No document can match; fast path to always-false.
		return func(uint32) bool { return false }, true
	}
	return acc.Contains, true
}

// union builds a fresh bitmap of every id posted under the requested values.
func (x *Index) union(m map[string]*roaring.Bitmap, values []string) *roaring.Bitmap {
	out := roaring.New()
	for _, v := range values {
		if bm, ok := m[v]; ok {
			out.Or(bm)
		}
	}
	return out
}

// Values returns the number of distinct indexed values per field.
func (x *Index) Values() (domains, types, tags int) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.domains), len(x.types), len(x.tags)
}

func addTo(m map[string]*roaring.Bitmap, value string, id uint32) {
	if value == "" {
		return
	}
	bm, ok := m[value]
	if !ok {
		bm = roaring.New()
		m[value] = bm
	}
	bm.Add(id)
}

func removeFrom(m map[string]*roaring.Bitmap, value string, id uint32) {
	if value == "" {
		return
	}
	bm, ok := m[value]
	if !ok {
		return
	}
	bm.Remove(id)
	if bm.IsEmpty() {
		delete(m, value)
	}
}
