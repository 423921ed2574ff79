// Package distance provides the float32 similarity kernels used across the
// engine.
//
// Stored vectors are L2-normalized on write, so the hot search path reduces
// cosine similarity to a plain dot product. Cosine covers the general case
// for centroids and other unnormalized vectors.
//
// # Usage
//
//	sim := distance.Dot(a, b)             // both unit-length
//	sim = distance.Cosine(centroid, v)    // arbitrary magnitudes
//	ok := distance.NormalizeL2InPlace(v)  // false when ||v|| == 0
package distance
