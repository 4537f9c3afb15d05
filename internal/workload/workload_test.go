package workload

import (
	"math"
	"testing"
)

func TestPiBBP(t *testing.T) {
	tests := []struct {
		n        int
		expected float64
		epsilon  float64
	}{
		{0, 0, 0},
		{1, 4.0 - 2.0/4 - 1.0/5 - 1.0/6, 1e-15},
		{20, math.Pi, 1e-14},
		{DefaultIterations, math.Pi, 1e-14},
	}

	for _, tt := range tests {
		got := PiBBP(tt.n)
		if math.Abs(got-tt.expected) > tt.epsilon {
			t.Errorf("PiBBP(%d) = %.17f, want %.17f", tt.n, got, tt.expected)
		}
	}
}

func TestPiBBPNegative(t *testing.T) {
	if got := PiBBP(-1); got != 0 {
		t.Errorf("PiBBP(-1) = %f, want 0", got)
	}
}

func BenchmarkPiBBP(b *testing.B) {
	for b.Loop() {
		_ = PiBBP(DefaultIterations)
	}
}
