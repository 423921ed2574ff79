// Package quantize implements the corpus-global scalar quantizer: a single
// (scale, offset) pair derived from the min/max of all stored vector
// components, mapping each component to one byte. Codes are bookkeeping for
// memory accounting and reduced-fidelity inspection; full-precision vectors
// stay authoritative for similarity.
package quantize

import (
	"fmt"
	"math"
	"sync"
)

// Source provides the full-precision vectors the quantizer calibrates from.
type Source interface {
	Scan(fn func(id uint32, vec []float32) bool)
}

// Stats is a snapshot of quantizer state.
type Stats struct {
	Calibrated bool
	Offset     float32
	Scale      float32
	Codes      int
	CodeBytes  int
}

// Quantizer maintains quantized codes addressed by internal document id.
// Parameters are corpus-global and deliberately stale between recalibrations:
// encoding happens on every write with the current parameters, while
// Recalibrate is an explicit, amortized operation.
type Quantizer struct {
	mu         sync.Mutex
	dim        int
	offset     float32 // global component minimum
	scale      float32 // (max - min) / 255
	calibrated bool
	codes      [][]byte
	live       int
}

// New creates a quantizer for vectors of length dim.
func New(dim int) *Quantizer {
	return &Quantizer{dim: dim}
}

// Encode quantizes vec with the current parameters and stores the code at id.
// The first encode seeds the parameters from the vector itself.
func (q *Quantizer) Encode(id uint32, vec []float32) error {
	if len(vec) != q.dim {
		return fmt.Errorf("quantize: vector length %d, want %d", len(vec), q.dim)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.calibrated {
		minVal, maxVal := componentBounds(vec)
		q.setParamsLocked(minVal, maxVal)
	}
	q.grow(id)
	if q.codes[id] == nil {
		q.live++
	}
	q.codes[id] = q.encodeLocked(vec)
	return nil
}

// Decode reconstructs the reduced-fidelity vector stored at id.
func (q *Quantizer) Decode(id uint32) ([]float32, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if int(id) >= len(q.codes) || q.codes[id] == nil {
		return nil, false
	}
	out := make([]float32, q.dim)
	for i, c := range q.codes[id] {
		out[i] = q.offset + float32(c)*q.scale
	}
	return out, true
}

// Remove drops the code stored at id.
func (q *Quantizer) Remove(id uint32) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if int(id) >= len(q.codes) || q.codes[id] == nil {
		return false
	}
	q.codes[id] = nil
	q.live--
	return true
}

// Recalibrate recomputes the global parameters from every vector in source
// and re-encodes all stored codes. Returns the number of codes rewritten.
func (q *Quantizer) Recalibrate(source Source) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	minVal := float32(math.MaxFloat32)
	maxVal := float32(-math.MaxFloat32)
	n := 0
	source.Scan(func(_ uint32, vec []float32) bool {
		for _, x := range vec {
			if x < minVal {
				minVal = x
			}
			if x > maxVal {
				maxVal = x
			}
		}
		n++
		return true
	})
	if n == 0 {
		return 0
	}
	q.setParamsLocked(minVal, maxVal)

	recoded := 0
	source.Scan(func(id uint32, vec []float32) bool {
		q.grow(id)
		if q.codes[id] == nil {
			q.live++
		}
		q.codes[id] = q.encodeLocked(vec)
		recoded++
		return true
	})
	return recoded
}

// Sweep drops codes whose id is no longer live. Returns the number removed.
func (q *Quantizer) Sweep(isLive func(id uint32) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id := range q.codes {
		if q.codes[id] != nil && !isLive(uint32(id)) {
			q.codes[id] = nil
			q.live--
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the quantizer state.
func (q *Quantizer) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		Calibrated: q.calibrated,
		Offset:     q.offset,
		Scale:      q.scale,
		Codes:      q.live,
		CodeBytes:  q.live * q.dim,
	}
}

func (q *Quantizer) setParamsLocked(minVal, maxVal float32) {
	// Constant corpus: widen the range to avoid division by zero.
	if minVal == maxVal {
		maxVal = minVal + 1e-6
	}
	q.offset = minVal
	q.scale = (maxVal - minVal) / 255.0
	q.calibrated = true
}

func (q *Quantizer) encodeLocked(vec []float32) []byte {
	code := make([]byte, len(vec))
	for i, val := range vec {
		normalized := (val - q.offset) / q.scale
		if normalized < 0 {
			normalized = 0
		} else if normalized > 255 {
			normalized = 255
		}
		code[i] = uint8(normalized + 0.5) // Round to nearest
	}
	return code
}

func (q *Quantizer) grow(id uint32) {
	for int(id) >= len(q.codes) {
		q.codes = append(q.codes, nil)
	}
}

func componentBounds(vec []float32) (minVal, maxVal float32) {
	minVal = float32(math.MaxFloat32)
	maxVal = float32(-math.MaxFloat32)
	for _, x := range vec {
		if x < minVal {
			minVal = x
		}
		if x > maxVal {
			maxVal = x
		}
	}
	return minVal, maxVal
}
