package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile_LinearInterpolation(t *testing.T) {
	vals := []float64{4, 1, 3, 2, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.05, 1.2},
		{0.95, 4.8},
		{1, 5},
	}
	for _, tt := range tests {
		got, err := Percentile(vals, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "p=%v", tt.p)
	}
	// input left unsorted
	assert.Equal(t, []float64{4, 1, 3, 2, 5}, vals)
}

func TestPercentile_Errors(t *testing.T) {
	_, err := Percentile(nil, 0.5)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = Percentile([]float64{1}, 1.5)
	assert.Error(t, err)

	got, err := Percentile([]float64{7}, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestMean(t *testing.T) {
	m, err := Mean([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2.5, m)

	m, err = Mean(nil)
	assert.ErrorIs(t, err, ErrEmptySample)
	assert.True(t, math.IsNaN(m))
}

func TestSummarize(t *testing.T) {
	vals := make([]float64, 101)
	for i := range vals {
		vals[i] = float64(i)
	}
	s, err := Summarize(vals)
	require.NoError(t, err)

	assert.Equal(t, 101, s.NumCases)
	assert.InDelta(t, 50.0, s.Mean, 1e-12)
	assert.InDelta(t, 50.0, s.Median, 1e-12)
	assert.InDelta(t, 5.0, s.Percentile5, 1e-12)
	assert.InDelta(t, 95.0, s.Percentile95, 1e-12)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	assert.LessOrEqual(t, s.Percentile5, s.Percentile95)
	assert.Greater(t, s.StdDev, 0.0)

	_, err = Summarize(nil)
	assert.ErrorIs(t, err, ErrEmptySample)
}
