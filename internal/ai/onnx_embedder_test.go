package ai

import (
	"math"
	"testing"
)

func TestMeanPoolIgnoresPadding(t *testing.T) {
	// batch 1, seq 3, dim 2; last position is padding
	hidden := []float32{3, 0, 1, 0, 100, 100}
	mask := []int64{1, 1, 0}
	out := meanPool(hidden, mask, 1, 3, 2)
	if len(out) != 1 {
		t.Fatalf("want 1 vector got %d", len(out))
	}
	if math.Abs(float64(out[0][0])-1) > 1e-6 || out[0][1] != 0 {
		t.Fatalf("want unit x vector, got %v", out[0])
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := []float32{0, 0}
	normalize(v)
	if v[0] != 0 || v[1] != 0 {
		t.Fatalf("zero vector must stay zero, got %v", v)
	}
}
