// Package embeddings provides vector similarity and deterministic local
// embedding generation for episode retrieval.
package embeddings

import "math"

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * normB)
}

// UnitSimilarity maps cosine similarity into [0,1], the range episode
// retrieval similarity is defined over.
func UnitSimilarity(a, b []float32) float64 {
	return (CosineSimilarity(a, b) + 1) / 2
}
