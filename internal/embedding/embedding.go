package embedding

import (
	"context"
	"math"
)

// Encoder maps texts to fixed-length vectors. Implementations must be safe
// for concurrent use. When normalize is true every returned vector has unit
// L2 norm, which lets callers compute cosine similarity as a plain dot
// product.
type Encoder interface {
	Encode(ctx context.Context, texts []string, normalize bool) ([][]float32, error)
	Dimension() int
}

// Normalize scales the vector to unit L2 norm in place. Zero vectors are
// left untouched.
func Normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}

	norm := math.Sqrt(sum)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
}

// Dot returns the dot product of two equal-length vectors. With both sides
// normalized this is the cosine similarity.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// MeanPool averages the vectors into a single probe vector and normalizes
// it. Multiple paraphrases of the same topic pooled this way act as votes
// for one semantic center. Returns nil for empty input.
func MeanPool(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	pooled := make([]float32, len(vectors[0]))
	for _, vector := range vectors {
		for i := range vector {
			pooled[i] += vector[i]
		}
	}

	n := float32(len(vectors))
	for i := range pooled {
		pooled[i] /= n
	}

	Normalize(pooled)
	return pooled
}
