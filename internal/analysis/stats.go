package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of vals.
func Mean(vals []float64) (float64, error) {
	if len(vals) == 0 {
		return math.NaN(), ErrEmptySample
	}
	return stat.Mean(vals, nil), nil
}

// sortedCopy returns vals sorted ascending without touching the caller's slice.
func sortedCopy(vals []float64) []float64 {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	return s
}

// percentileSorted interpolates linearly between the two closest order statistics,
// with rank p*(n-1), the common "linear" percentile definition.
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Percentile returns the p-th quantile of vals, p in [0, 1].
func Percentile(vals []float64, p float64) (float64, error) {
	if len(vals) == 0 {
		return math.NaN(), ErrEmptySample
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN(), fmt.Errorf("percentile %v outside [0, 1]", p)
	}
	return percentileSorted(sortedCopy(vals), p), nil
}

// Summarize computes the headline statistics of an output sample.
func Summarize(vals []float64) (*Summary, error) {
	if len(vals) == 0 {
		return nil, ErrEmptySample
	}
	sorted := sortedCopy(vals)

	s := &Summary{
		NumCases:     len(vals),
		Mean:         stat.Mean(vals, nil),
		Median:       percentileSorted(sorted, 0.5),
		StdDev:       0,
		Min:          floats.Min(vals),
		Max:          floats.Max(vals),
		Percentile5:  percentileSorted(sorted, 0.05),
		Percentile95: percentileSorted(sorted, 0.95),
	}
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	return s, nil
}
