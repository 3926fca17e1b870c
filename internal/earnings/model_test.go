package earnings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mc_earnings_go/internal/analysis"
	"github.com/user/mc_earnings_go/internal/sim"
)

func defaultConfig() sim.Config {
	return sim.Config{
		Name:              "product_earnings",
		NDraws:            1000,
		Seed:              12345678,
		FirstCaseIsMedian: true,
	}
}

func runSim(t *testing.T, cfg sim.Config) *sim.Sim {
	t.Helper()
	s, err := NewSim(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))
	return s
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		p, s, vc, fc float64
		want         float64
	}{
		{125, 10000, 30, 300000, 949970},
		{0, 0, 0, 0, 0},
		{10, 0, 5, 5, -10},
		{-2, 3, -1, 4, -9},
		{1.5, 2.5, 0.25, 0.5, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Evaluate(tt.p, tt.s, tt.vc, tt.fc))
		assert.Equal(t, tt.p*tt.s-(tt.vc+tt.fc), Evaluate(tt.p, tt.s, tt.vc, tt.fc))
	}
}

func TestEvaluate_NonFinite(t *testing.T) {
	assert.True(t, math.IsInf(Evaluate(math.Inf(1), 1, 0, 0), 1))
	assert.True(t, math.IsNaN(Evaluate(math.NaN(), 1, 0, 0)))
}

func TestRunAndPostprocess_Arity(t *testing.T) {
	_, err := Run([]float64{1, 2, 3})
	assert.Error(t, err)

	out, err := Run([]float64{2, 3, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, out)

	s := runSim(t, sim.Config{Name: "arity", NDraws: 1, Seed: 1})
	assert.Error(t, Postprocess(s.Cases[0], []float64{1, 2}))
}

func TestSim_BaselineCaseUsesMedians(t *testing.T) {
	s := runSim(t, defaultConfig())
	c0 := s.Cases[0]
	require.True(t, c0.IsMedian)

	assert.InDelta(t, 125.0, c0.InVals[UnitPrice], 1e-9)
	assert.InDelta(t, 10000.0, c0.InVals[UnitSales], 1e-6)
	assert.InDelta(t, 30.0, c0.InVals[VariableCosts], 1e-9)
	assert.InDelta(t, 300000.0, c0.InVals[FixedCosts], 1e-6)
	assert.InDelta(t, 949970.0, c0.OutVals[OutVarName], 1e-3)
}

func TestSim_OutputMatchesEvaluator(t *testing.T) {
	s := runSim(t, defaultConfig())
	out, ok := s.OutVar(OutVarName)
	require.True(t, ok)
	require.Len(t, out.Vals, 1001)

	for i, c := range s.Cases {
		want := Evaluate(c.InVals[UnitPrice], c.InVals[UnitSales], c.InVals[VariableCosts], c.InVals[FixedCosts])
		assert.Equal(t, want, out.Vals[i], "case %d", i)
	}
	for _, v := range s.InVars {
		assert.Len(t, v.Vals, 1001)
	}
}

func TestSim_Reproducible(t *testing.T) {
	a := runSim(t, defaultConfig())
	b := runSim(t, defaultConfig())

	for i := range a.InVars {
		assert.Equal(t, a.InVars[i].Vals, b.InVars[i].Vals)
	}
	assert.Equal(t, a.OutVars[0].Vals, b.OutVars[0].Vals)

	single := defaultConfig()
	single.SingleThreaded = true
	c := runSim(t, single)
	assert.Equal(t, a.OutVars[0].Vals, c.OutVars[0].Vals)

	other := defaultConfig()
	other.Seed = 87654321
	d := runSim(t, other)
	assert.NotEqual(t, a.OutVars[0].Vals, d.OutVars[0].Vals)
}

func TestSim_MeanNearExpectedEarnings(t *testing.T) {
	s := runSim(t, defaultConfig())
	out, _ := s.OutVar(OutVarName)

	expected, err := ExpectedEarnings()
	require.NoError(t, err)
	assert.InDelta(t, 949970.0, expected, 1e-6)

	summary, err := out.Summary()
	require.NoError(t, err)

	// standard deviation of the earnings is ~412k, so the standard error at
	// 1001 cases is ~13k; 100k is a loose sanity bound
	assert.InDelta(t, expected, summary.Mean, 100000)

	direct := 0.0
	for _, v := range out.Vals {
		direct += v
	}
	direct /= float64(len(out.Vals))
	assert.InDelta(t, direct, summary.Mean, 1e-6)
	assert.LessOrEqual(t, summary.Percentile5, summary.Percentile95)
}

func TestSim_MedianTolerancesAndSensitivities(t *testing.T) {
	s := runSim(t, defaultConfig())
	out, _ := s.OutVar(OutVarName)

	ti, err := out.AddVarStat(analysis.StatOrderStatTI, analysis.StatParams{P: 0.5, C: 0.95, Bound: analysis.Bound2Sided})
	require.NoError(t, err)
	ci, err := out.AddVarStat(analysis.StatOrderStatP, analysis.StatParams{P: 0.5, C: 0.95, Bound: analysis.Bound2Sided})
	require.NoError(t, err)

	summary, err := out.Summary()
	require.NoError(t, err)
	assert.Less(t, ti.Vals[0], summary.Median)
	assert.Greater(t, ti.Vals[1], summary.Median)
	assert.LessOrEqual(t, ci.Vals[0], summary.Median)
	assert.GreaterOrEqual(t, ci.Vals[1], summary.Median)

	sens, err := s.CalcSensitivities(OutVarName)
	require.NoError(t, err)
	require.Len(t, sens, 4)
	byName := map[string]float64{}
	total := 0.0
	for _, sv := range sens {
		byName[sv.InVar] = sv.Ratio
		total += sv.Ratio
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Greater(t, byName[UnitPrice], byName[FixedCosts])
	assert.Greater(t, byName[UnitSales], byName[FixedCosts])
	assert.Greater(t, byName[FixedCosts], byName[VariableCosts])
}
