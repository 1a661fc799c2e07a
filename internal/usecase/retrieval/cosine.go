// Package retrieval ranks index snapshots against query vectors.
package retrieval

import "math"

// cosineSimilarity computes cosine similarity with float64 accumulators.
// Mismatched lengths or a zero-norm vector score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) < 1 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
