package gain

import (
	"math"
	"testing"
)

func TestDbToLinear32(t *testing.T) {
	tests := []struct {
		name string
		db   float32
		want float32
	}{
		{"unity", 0, 1.0},
		{"+6dB roughly doubles", 6.0, 1.9953},
		{"-6dB roughly halves", -6.0, 0.5012},
		{"at MinDB is silence", MinDB, 0},
		{"below MinDB is silence", MinDB - 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DbToLinear32(tt.db)
			if math.Abs(float64(got-tt.want)) > 0.001 {
				t.Errorf("DbToLinear32(%v) = %v, want %v", tt.db, got, tt.want)
			}
		})
	}
}

func TestApplyBufferTo(t *testing.T) {
	src := []float32{1.0, 0.5, -0.5, -1.0}
	dst := make([]float32, len(src))
	want := []float32{0.5, 0.25, -0.25, -0.5}

	ApplyBufferTo(src, 0.5, dst)

	for i, v := range dst {
		if v != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestApplyBufferToShorterDst(t *testing.T) {
	src := []float32{1.0, 2.0, 3.0}
	dst := make([]float32, 2)

	ApplyBufferTo(src, 2.0, dst)

	want := []float32{2.0, 4.0}
	for i, v := range dst {
		if v != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestApplyBufferToInPlace(t *testing.T) {
	buf := []float32{1.0, -2.0, 0.25}
	want := []float32{2.0, -4.0, 0.5}

	ApplyBufferTo(buf, 2.0, buf)

	for i, v := range buf {
		if v != want[i] {
			t.Errorf("buf[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func BenchmarkDbToLinear32(b *testing.B) {
	db := float32(-6.0)
	for i := 0; i < b.N; i++ {
		_ = DbToLinear32(db)
	}
}
