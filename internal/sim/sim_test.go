package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/user/mc_earnings_go/internal/analysis"
	"github.com/user/mc_earnings_go/internal/sampling"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// sumFcns adds every input of a case into a single "Sum" output.
func sumFcns(names ...string) Fcns {
	return Fcns{
		Preprocess: func(c *Case) ([]float64, error) {
			args := make([]float64, len(names))
			for i, n := range names {
				v, err := c.InVal(n)
				if err != nil {
					return nil, err
				}
				args[i] = v
			}
			return args, nil
		},
		Run: func(args []float64) ([]float64, error) {
			total := 0.0
			for _, a := range args {
				total += a
			}
			return []float64{total}, nil
		},
		Postprocess: func(c *Case, out []float64) error {
			c.AddOutVal("Sum", out[0])
			return nil
		},
	}
}

func newTestSim(t *testing.T, cfg Config, fcns Fcns) *Sim {
	t.Helper()
	s := New(cfg, fcns)
	a, err := sampling.NewTriangular(0.5, 0, 10)
	require.NoError(t, err)
	b, err := sampling.NewTriangular(0.2, 100, 50)
	require.NoError(t, err)
	_, err = s.AddInVar("A", a)
	require.NoError(t, err)
	_, err = s.AddInVar("B", b)
	require.NoError(t, err)
	return s
}

type countingRecorder struct {
	mu      sync.Mutex
	cases   int
	failed  int
	runs    int
	lastErr error
}

func (r *countingRecorder) ObserveCase(_ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases++
	if err != nil {
		r.failed++
	}
}

func (r *countingRecorder) ObserveRun(_ int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.lastErr = err
}

func TestRun_CollectsOutputsByIndex(t *testing.T) {
	s := newTestSim(t, Config{Name: "sum", NDraws: 200, Seed: 5, FirstCaseIsMedian: true}, sumFcns("A", "B"))
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, s.Cases, 201)
	out, ok := s.OutVar("Sum")
	require.True(t, ok)
	require.Len(t, out.Vals, 201)

	a, _ := s.InVar("A")
	b, _ := s.InVar("B")
	for i := range out.Vals {
		assert.Equal(t, a.Vals[i]+b.Vals[i], out.Vals[i], "case %d", i)
		assert.Equal(t, i, s.Cases[i].Index)
	}
	assert.True(t, s.Cases[0].IsMedian)
	assert.False(t, s.Cases[1].IsMedian)
	assert.InDelta(t, 5.0, s.Cases[0].InVals["A"], 1e-9)
}

func TestRun_ParallelMatchesSingleThreaded(t *testing.T) {
	cfg := Config{Name: "sum", NDraws: 500, Seed: 12345678, FirstCaseIsMedian: true}

	single := cfg
	single.SingleThreaded = true
	s1 := newTestSim(t, single, sumFcns("A", "B"))
	require.NoError(t, s1.Run(context.Background()))

	parallel := cfg
	parallel.Workers = 8
	s2 := newTestSim(t, parallel, sumFcns("A", "B"))
	require.NoError(t, s2.Run(context.Background()))

	assert.Equal(t, s1.OutVars[0].Vals, s2.OutVars[0].Vals)
	for i := range s1.InVars {
		assert.Equal(t, s1.InVars[i].Vals, s2.InVars[i].Vals)
	}
}

func TestRun_RecorderObservesEveryCase(t *testing.T) {
	rec := &countingRecorder{}
	s := newTestSim(t, Config{Name: "sum", NDraws: 50, Seed: 1, FirstCaseIsMedian: true, Workers: 4}, sumFcns("A", "B"))
	s.SetRecorder(rec)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 51, rec.cases)
	assert.Equal(t, 0, rec.failed)
	assert.Equal(t, 1, rec.runs)
	assert.NoError(t, rec.lastErr)
	assert.Positive(t, s.RunTime)
}

func TestRun_CaseErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	fcns := sumFcns("A", "B")
	fcns.Run = func(args []float64) ([]float64, error) {
		if args[0] > 9 {
			return nil, boom
		}
		return []float64{args[0]}, nil
	}
	rec := &countingRecorder{}
	s := newTestSim(t, Config{Name: "fail", NDraws: 2000, Seed: 3, Workers: 4}, fcns)
	s.SetRecorder(rec)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, s.Cases)
	assert.Empty(t, s.OutVars)
	assert.ErrorIs(t, rec.lastErr, boom)
	assert.Positive(t, rec.failed)
}

func TestRun_UnknownInputFails(t *testing.T) {
	s := newTestSim(t, Config{Name: "bad", NDraws: 10, Seed: 3, SingleThreaded: true}, sumFcns("A", "C"))
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no input value "C"`)
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, single := range []bool{true, false} {
		s := newTestSim(t, Config{Name: "cancel", NDraws: 100, Seed: 3, SingleThreaded: single}, sumFcns("A", "B"))
		err := s.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestRun_Validation(t *testing.T) {
	s := New(Config{Name: "nofcns", NDraws: 10}, Fcns{})
	assert.Error(t, s.Run(context.Background()))

	s = New(Config{Name: "novars", NDraws: 10}, sumFcns())
	assert.Error(t, s.Run(context.Background()))

	s = newTestSim(t, Config{Name: "nodraws", NDraws: 0}, sumFcns("A", "B"))
	assert.Error(t, s.Run(context.Background()))
}

func TestRun_MissingOutput(t *testing.T) {
	fcns := sumFcns("A", "B")
	fcns.Postprocess = func(c *Case, out []float64) error {
		if c.Index%2 == 0 {
			c.AddOutVal("Sum", out[0])
		}
		return nil
	}
	s := newTestSim(t, Config{Name: "gaps", NDraws: 10, Seed: 1, FirstCaseIsMedian: true, SingleThreaded: true}, fcns)
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing output")
}

func TestAddInVar_Duplicate(t *testing.T) {
	s := newTestSim(t, Config{Name: "dup", NDraws: 10}, sumFcns("A", "B"))
	tri, err := sampling.NewTriangular(0.5, 0, 1)
	require.NoError(t, err)

	_, err = s.AddInVar("A", tri)
	assert.Error(t, err)
	_, err = s.AddInVar("Z", nil)
	assert.Error(t, err)
}

func TestAddInVar_SeedsDependOnOrder(t *testing.T) {
	s := newTestSim(t, Config{Name: "seeds", NDraws: 10, Seed: 99}, sumFcns("A", "B"))
	seeds := sampling.DeriveSeeds(99, 2)
	assert.Equal(t, seeds[0], s.InVars[0].Seed)
	assert.Equal(t, seeds[1], s.InVars[1].Seed)
}

func TestCalcSensitivities(t *testing.T) {
	s := newTestSim(t, Config{Name: "sens", NDraws: 10, Seed: 1}, sumFcns("A", "B"))
	_, err := s.CalcSensitivities("Sum")
	assert.ErrorIs(t, err, ErrNotRun)

	require.NoError(t, s.Run(context.Background()))
	sens, err := s.CalcSensitivities("Sum")
	require.NoError(t, err)
	require.Len(t, sens, 2)

	out, _ := s.OutVar("Sum")
	assert.Equal(t, sens, out.Sensitivities)
	// B has five times the range of A
	assert.Greater(t, sens[1].Ratio, sens[0].Ratio)

	_, err = s.CalcSensitivities("Nope")
	assert.Error(t, err)
}

func TestOutVar_AddVarStat(t *testing.T) {
	o := NewOutVar("X", []float64{1, 2, 3, 4, 5})
	vs, err := o.AddVarStat(analysis.StatMean, analysis.StatParams{})
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, vs.Vals)
	assert.Len(t, o.VarStats, 1)

	_, err = o.AddVarStat("nope", analysis.StatParams{})
	assert.Error(t, err)
	assert.Len(t, o.VarStats, 1)
}
