package embedding

import (
	"math"
	"testing"
)

func TestNormalizeUnitNorm(t *testing.T) {
	vector := []float32{3, 4}
	Normalize(vector)

	norm := math.Sqrt(Dot(vector, vector))
	if math.Abs(norm-1) > 1e-6 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
	if math.Abs(float64(vector[0])-0.6) > 1e-6 || math.Abs(float64(vector[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector: %v", vector)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	vector := []float32{0, 0, 0}
	Normalize(vector)

	for _, v := range vector {
		if v != 0 {
			t.Fatalf("zero vector must stay zero, got %v", vector)
		}
	}
}

func TestDot(t *testing.T) {
	got := Dot([]float32{1, 2, 3}, []float32{4, 5, 6})
	if got != 32 {
		t.Fatalf("expected 32, got %f", got)
	}
}

func TestMeanPool(t *testing.T) {
	pooled := MeanPool([][]float32{
		{1, 0},
		{0, 1},
	})

	if len(pooled) != 2 {
		t.Fatalf("unexpected pooled length: %d", len(pooled))
	}
	// The mean (0.5, 0.5) normalized is (1/sqrt2, 1/sqrt2).
	want := 1 / math.Sqrt2
	if math.Abs(float64(pooled[0])-want) > 1e-6 || math.Abs(float64(pooled[1])-want) > 1e-6 {
		t.Fatalf("unexpected pooled vector: %v", pooled)
	}
}

func TestMeanPoolEmpty(t *testing.T) {
	if pooled := MeanPool(nil); pooled != nil {
		t.Fatalf("expected nil for empty input, got %v", pooled)
	}
}
