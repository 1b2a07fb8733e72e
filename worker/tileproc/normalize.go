package tileproc

import (
	"fmt"
	"math"
	"sort"
)

// CleanIndex maps the raw index samples of one tile window into finite
// values and a validity mask. NoData pixels are invalid. NaN collapses
// to 0, positive infinity to 1 and negative infinity to -1, matching
// the closed [-1, 1] range of a well formed vegetation index.
func CleanIndex(data []float32, noData float64) ([]float32, []bool) {
	values := make([]float32, len(data))
	valid := make([]bool, len(data))

	noData32 := float32(noData)
	for i, v := range data {
		switch {
		case v == noData32:
			continue
		case math.IsNaN(float64(v)):
			values[i] = 0
		case math.IsInf(float64(v), 1):
			values[i] = 1
		case math.IsInf(float64(v), -1):
			values[i] = -1
		default:
			values[i] = v
		}
		valid[i] = true
	}
	return values, valid
}

// Percentile returns the p-th percentile of sorted samples with linear
// interpolation between the two nearest ranks.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100.0 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1.0-frac) + sorted[hi]*frac
}

// NormalizeRobust rescales the valid samples into [0, 1] using the 2nd
// and 98th percentiles so a handful of outliers cannot flatten the
// contrast of the whole tile. Values outside the percentile range clip
// to 0 and 1.
func NormalizeRobust(values []float32, valid []bool) ([]float32, error) {
	samples := make([]float64, 0, len(values))
	for i, v := range values {
		if valid[i] {
			samples = append(samples, float64(v))
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no valid pixels")
	}

	sort.Float64s(samples)
	p2 := Percentile(samples, 2)
	p98 := Percentile(samples, 98)
	if p98 <= p2 {
		return nil, fmt.Errorf("degenerate value range [%v, %v]", p2, p98)
	}

	out := make([]float32, len(values))
	scale := 1.0 / (p98 - p2)
	for i, v := range values {
		if !valid[i] {
			continue
		}
		n := (float64(v) - p2) * scale
		if n < 0 {
			n = 0
		}
		if n > 1 {
			n = 1
		}
		out[i] = float32(n)
	}
	return out, nil
}
