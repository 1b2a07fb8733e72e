package tileproc

import (
	"math"
	"testing"
)

func TestCleanIndex(t *testing.T) {
	nan := float32(math.NaN())
	posInf := float32(math.Inf(1))
	negInf := float32(math.Inf(-1))

	data := []float32{0.5, -9999, nan, posInf, negInf, -0.25}
	values, valid := CleanIndex(data, -9999)

	expValues := []float32{0.5, 0, 0, 1, -1, -0.25}
	expValid := []bool{true, false, true, true, true, true}

	for i := range data {
		if valid[i] != expValid[i] {
			t.Errorf("sample %v: expecting valid %v, actual %v", i, expValid[i], valid[i])
		}
		if values[i] != expValues[i] {
			t.Errorf("sample %v: expecting %v, actual %v", i, expValues[i], values[i])
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	if p := Percentile(sorted, 0); p != 1 {
		t.Errorf("expecting 1 for p0, actual %v", p)
	}
	if p := Percentile(sorted, 100); p != 5 {
		t.Errorf("expecting 5 for p100, actual %v", p)
	}
	if p := Percentile(sorted, 50); p != 3 {
		t.Errorf("expecting 3 for p50, actual %v", p)
	}
	if p := Percentile(sorted, 25); p != 2 {
		t.Errorf("expecting 2 for p25, actual %v", p)
	}
	if p := Percentile([]float64{7}, 98); p != 7 {
		t.Errorf("single sample percentile, actual %v", p)
	}
}

func TestNormalizeRobust(t *testing.T) {
	values := make([]float32, 100)
	valid := make([]bool, 100)
	for i := range values {
		values[i] = float32(i)
		valid[i] = true
	}

	norm, err := NormalizeRobust(values, valid)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if norm[0] != 0 {
		t.Errorf("low outlier should clip to 0, actual %v", norm[0])
	}
	if norm[99] != 1 {
		t.Errorf("high outlier should clip to 1, actual %v", norm[99])
	}
	if math.Abs(float64(norm[50])-0.5) > 0.02 {
		t.Errorf("midpoint should sit near 0.5, actual %v", norm[50])
	}
	for i := 1; i < len(norm); i++ {
		if norm[i] < norm[i-1] {
			t.Fatalf("normalisation not monotonic at %v", i)
		}
	}
}

func TestNormalizeRobustErrors(t *testing.T) {
	values := []float32{1, 2, 3}

	if _, err := NormalizeRobust(values, []bool{false, false, false}); err == nil {
		t.Errorf("expecting error with no valid pixels")
	}

	constant := []float32{0.5, 0.5, 0.5}
	if _, err := NormalizeRobust(constant, []bool{true, true, true}); err == nil {
		t.Errorf("expecting error for a degenerate value range")
	}
}
