package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/user/mc_earnings_go/internal/analysis"
	"github.com/user/mc_earnings_go/internal/sampling"
)

// ErrNotRun is returned when results are requested before Run completed.
var ErrNotRun = errors.New("simulation has not been run")

// Sim is a Monte Carlo simulation: a set of sampled input variables, the cases built from
// them and the output variables collected after every case has been evaluated.
type Sim struct {
	Config

	ID        string
	InVars    []*sampling.InVar
	OutVars   []*OutVar
	Cases     []*Case
	StartedAt time.Time
	RunTime   time.Duration

	fcns     Fcns
	recorder Recorder
}

// New creates a simulation. fcns may be zero for a simulation that is only reloaded for
// reporting, Run will refuse to evaluate it.
func New(cfg Config, fcns Fcns) *Sim {
	return &Sim{
		Config:  cfg,
		ID:      uuid.NewString(),
		InVars:  make([]*sampling.InVar, 0),
		OutVars: make([]*OutVar, 0),
		fcns:    fcns,
	}
}

// SetRecorder attaches a recorder that observes every case and the run as a whole.
func (s *Sim) SetRecorder(r Recorder) {
	s.recorder = r
}

// AddInVar registers an input variable. Its seed is derived from the simulation seed and
// the order of registration.
func (s *Sim) AddInVar(name string, dist sampling.Distribution) (*sampling.InVar, error) {
	if _, ok := s.InVar(name); ok {
		return nil, fmt.Errorf("invar %q already added", name)
	}
	if dist == nil {
		return nil, fmt.Errorf("invar %q: nil distribution", name)
	}
	idx := len(s.InVars)
	seed := sampling.DeriveSeeds(s.Seed, idx+1)[idx]
	v := sampling.NewInVar(name, dist, seed)
	s.InVars = append(s.InVars, v)
	return v, nil
}

// InVar looks up an input variable by name.
func (s *Sim) InVar(name string) (*sampling.InVar, bool) {
	for _, v := range s.InVars {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// OutVar looks up an output variable by name.
func (s *Sim) OutVar(name string) (*OutVar, bool) {
	for _, o := range s.OutVars {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

// NumCases is the number of cases a run produces: NDraws, plus one for the median case.
func (s *Sim) NumCases() int {
	if s.FirstCaseIsMedian {
		return s.NDraws + 1
	}
	return s.NDraws
}

func (s *Sim) workers() int {
	if s.SingleThreaded {
		return 1
	}
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

// Run samples every input variable, evaluates every case and collects the outputs.
// Nothing is kept from a failed run.
func (s *Sim) Run(ctx context.Context) (err error) {
	if s.fcns.Preprocess == nil || s.fcns.Run == nil || s.fcns.Postprocess == nil {
		return fmt.Errorf("sim %q: preprocess, run and postprocess functions are required", s.Name)
	}
	if len(s.InVars) == 0 {
		return fmt.Errorf("sim %q: no input variables", s.Name)
	}
	if s.NumCases() == 0 {
		return fmt.Errorf("sim %q: nothing to run with ndraws=%d", s.Name, s.NDraws)
	}

	s.StartedAt = time.Now()
	s.Cases, s.OutVars = nil, make([]*OutVar, 0)
	defer func() {
		s.RunTime = time.Since(s.StartedAt)
		if s.recorder != nil {
			s.recorder.ObserveRun(s.NumCases(), s.RunTime, err)
		}
		if err != nil {
			s.Cases, s.OutVars = nil, make([]*OutVar, 0)
		}
	}()

	log.Info().Str("sim", s.Name).Int("invars", len(s.InVars)).Int("ndraws", s.NDraws).Msg("Drawing input variables")
	for _, v := range s.InVars {
		if err := v.Draw(s.NDraws, s.FirstCaseIsMedian); err != nil {
			return err
		}
	}

	s.Cases = s.genCases()

	log.Info().Int("cases", len(s.Cases)).Int("workers", s.workers()).Msg("Running cases")
	if err := s.runCases(ctx); err != nil {
		return err
	}

	if err := s.genOutVars(); err != nil {
		return err
	}
	log.Info().Int("outvars", len(s.OutVars)).Msg("Simulation complete")
	return nil
}

func (s *Sim) genCases() []*Case {
	ncases := s.NumCases()
	cases := make([]*Case, ncases)
	for i := range cases {
		c := NewCase(i, s.FirstCaseIsMedian && i == 0)
		for _, v := range s.InVars {
			c.InVals[v.Name] = v.Vals[i]
		}
		cases[i] = c
	}
	return cases
}

func (s *Sim) runCases(ctx context.Context) error {
	if s.workers() == 1 {
		for _, c := range s.Cases {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.runCase(c); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for _, c := range s.Cases {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.runCase(c)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Sim) runCase(c *Case) (err error) {
	start := time.Now()
	defer func() {
		c.RunTime = time.Since(start)
		if s.recorder != nil {
			s.recorder.ObserveCase(c.RunTime, err)
		}
	}()

	args, err := s.fcns.Preprocess(c)
	if err != nil {
		return fmt.Errorf("case %d: preprocess: %w", c.Index, err)
	}
	out, err := s.fcns.Run(args)
	if err != nil {
		return fmt.Errorf("case %d: run: %w", c.Index, err)
	}
	if err := s.fcns.Postprocess(c, out); err != nil {
		return fmt.Errorf("case %d: postprocess: %w", c.Index, err)
	}
	return nil
}

// genOutVars gathers every case's outputs into one OutVar per output name,
// positioned by case index.
func (s *Sim) genOutVars() error {
	names := s.Cases[0].OutNames()
	if len(names) == 0 {
		return fmt.Errorf("sim %q: case 0 produced no outputs", s.Name)
	}
	for _, name := range names {
		vals := make([]float64, len(s.Cases))
		for i, c := range s.Cases {
			v, ok := c.OutVals[name]
			if !ok {
				return fmt.Errorf("case %d: missing output %q", c.Index, name)
			}
			vals[i] = v
		}
		s.OutVars = append(s.OutVars, NewOutVar(name, vals))
	}
	return nil
}

// CalcSensitivities attributes the spread of the named output to each input variable and
// stores the result on the output variable.
func (s *Sim) CalcSensitivities(outvarName string) ([]analysis.Sensitivity, error) {
	o, ok := s.OutVar(outvarName)
	if !ok {
		if len(s.OutVars) == 0 {
			return nil, ErrNotRun
		}
		return nil, fmt.Errorf("unknown outvar %q", outvarName)
	}

	names := make([]string, len(s.InVars))
	inputs := make([][]float64, len(s.InVars))
	for i, v := range s.InVars {
		names[i] = v.Name
		inputs[i] = v.Vals
	}
	sens, err := analysis.Sensitivities(names, inputs, o.Vals)
	if err != nil {
		return nil, fmt.Errorf("outvar %q: %w", o.Name, err)
	}
	o.Sensitivities = sens
	return sens, nil
}
