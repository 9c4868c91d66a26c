package embeddings

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"mismatched lengths", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
		{"empty", nil, nil, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUnitSimilarityRange(t *testing.T) {
	if got := UnitSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors should map to 1, got %v", got)
	}
	if got := UnitSimilarity([]float32{1, 0}, []float32{-1, 0}); math.Abs(got) > 1e-9 {
		t.Errorf("opposite vectors should map to 0, got %v", got)
	}
	if got := UnitSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("orthogonal vectors should map to 0.5, got %v", got)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	g := NewGenerator(128)

	a := g.Generate("sprint planning for a team of five")
	b := g.Generate("sprint planning for a team of five")

	if len(a) != 128 {
		t.Fatalf("expected 128 dimensions, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at index %d", i)
		}
	}
}

func TestGenerateNormalized(t *testing.T) {
	g := NewGenerator(64)

	vector := g.Generate("backlog grooming session")
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-6 {
		t.Errorf("expected unit norm, got %v", math.Sqrt(norm))
	}
}

func TestGenerateEmptyText(t *testing.T) {
	g := NewGenerator(16)

	vector := g.Generate("")
	for i, v := range vector {
		if v != 0 {
			t.Fatalf("expected zero vector for empty text, non-zero at %d", i)
		}
	}
}

func TestGenerateSimilarityOrdering(t *testing.T) {
	g := NewGenerator(256)

	query := g.Generate("sprint planning payments team")
	close := g.Generate("sprint planning payments squad")
	far := g.Generate("quarterly financial audit report")

	if CosineSimilarity(query, close) <= CosineSimilarity(query, far) {
		t.Error("token overlap should produce higher similarity")
	}
}

func TestNewGeneratorDefaultDimensions(t *testing.T) {
	g := NewGenerator(0)
	if g.Dimensions() != 384 {
		t.Errorf("expected default 384 dimensions, got %d", g.Dimensions())
	}
}
