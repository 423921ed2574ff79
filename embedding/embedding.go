// Package embedding defines the text-to-vector provider consumed by the
// search path. Embedding generation itself is an external collaborator whose
// quality bounds search quality; the engine only requires that outputs match
// its dimension.
package embedding

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/promptlab/semdex/distance"
)

// Embedder converts text into a vector of the engine dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// Static produces deterministic pseudo-embeddings: the text seeds a PRNG that
// fills a unit-normalized vector. Equal texts map to equal vectors. It stands
// in for a real provider in tests and local development.
type Static struct {
	dim int
}

// NewStatic creates a static embedder emitting vectors of length dim.
func NewStatic(dim int) *Static {
	return &Static{dim: dim}
}

// Embed implements Embedder.
func (s *Static) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec

	v := make([]float32, s.dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	distance.NormalizeL2InPlace(v)
	return v, nil
}

var (
	_ Embedder = (EmbedderFunc)(nil)
	_ Embedder = (*Static)(nil)
)
