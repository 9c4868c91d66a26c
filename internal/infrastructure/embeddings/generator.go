package embeddings

import (
	"hash/fnv"
	"math"
	"strings"
)

const defaultDimensions = 384

// Generator produces deterministic local embeddings: the same text always
// yields the same vector, and token overlap between texts yields vector
// similarity. Suitable for retrieval without an external embedding service.
type Generator struct {
	dimensions int
}

// NewGenerator creates a generator with the given dimensionality.
func NewGenerator(dimensions int) *Generator {
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	return &Generator{dimensions: dimensions}
}

// Dimensions returns the embedding dimensionality.
func (g *Generator) Dimensions() int {
	return g.dimensions
}

// Generate embeds text by hashing its tokens into a fixed-length vector and
// L2-normalizing the result.
func (g *Generator) Generate(text string) []float32 {
	vector := make([]float32, g.dimensions)
	if text == "" {
		return vector
	}

	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		index := int(sum % uint64(g.dimensions))
		sign := float32(1)
		if (sum>>32)&1 == 1 {
			sign = -1
		}
		vector[index] += sign
	}

	return l2Normalize(vector)
}

func l2Normalize(vector []float32) []float32 {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vector
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}
