package distance

import (
	"math"
	"slices"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Cosine calculates the cosine similarity of two vectors in [-1,1].
// Assumes vectors are the same length (caller's responsibility).
// Returns 0 if either vector has zero L2 norm.
func Cosine(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(na))) * float32(math.Sqrt(float64(nb))))
}

// CosineDistance calculates 1 - Cosine(a, b), ranging [0,2].
func CosineDistance(a, b []float32) float32 {
	return 1 - Cosine(a, b)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false and leaves v unchanged if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// NormalizeL2Copy returns a copy of src, L2-normalized when possible.
// Returns false if src has zero L2 norm; the copy is then unchanged.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	ok := NormalizeL2InPlace(dst)
	return dst, ok
}
