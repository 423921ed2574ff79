package cluster

import (
	"context"
	"math"
	"math/rand"

	"github.com/promptlab/semdex/distance"
)

// runKMeans groups vectors into k clusters under cosine distance using
// Lloyd's algorithm. Centroids are seeded from k distinct input vectors;
// iteration stops when assignments stabilize or maxIter elapses. Empty
// clusters are re-seeded from a random vector. The caller guarantees
// k <= len(vectors).
func runKMeans(ctx context.Context, vectors [][]float32, dim, k, maxIter int, rng *rand.Rand) ([]int, [][]float32, error) {
	n := len(vectors)

	centroids := make([][]float32, k)
	perm := rng.Perm(n)
	for j := 0; j < k; j++ {
		centroids[j] = append([]float32(nil), vectors[perm[j]]...)
	}

	assignments := make([]int, n)
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		changed := false

		// Assignment step
		for i, vec := range vectors {
			best := -1
			minDist := float32(math.MaxFloat32)

			for j, center := range centroids {
				d := 1 - distance.Cosine(vec, center)
				if d < minDist {
					minDist = d
					best = j
				}
			}

			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if iter > 0 && !changed {
			break
		}

		// Update step
		for i := range sums {
			sums[i] = 0
		}
		for j := range counts {
			counts[j] = 0
		}

		for i, vec := range vectors {
			c := assignments[i]
			for d := 0; d < dim; d++ {
				sums[c*dim+d] += vec[d]
			}
			counts[c]++
		}

		for j := 0; j < k; j++ {
			if counts[j] > 0 {
				scale := 1.0 / float32(counts[j])
				for d := 0; d < dim; d++ {
					centroids[j][d] = sums[j*dim+d] * scale
				}
			} else {
				// Re-seed empty clusters from a random vector.
				copy(centroids[j], vectors[rng.Intn(n)])
			}
		}
	}

	return assignments, centroids, nil
}
