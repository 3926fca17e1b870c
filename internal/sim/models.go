package sim

import (
	"fmt"
	"time"

	"github.com/user/mc_earnings_go/internal/analysis"
)

// Config holds the run-wide settings of a simulation.
type Config struct {
	Name              string `json:"name" yaml:"name"`
	NDraws            int    `json:"ndraws" yaml:"ndraws"`
	Seed              uint64 `json:"seed" yaml:"seed"`
	FirstCaseIsMedian bool   `json:"first_case_is_median" yaml:"first_case_is_median"`
	SingleThreaded    bool   `json:"single_threaded" yaml:"single_threaded"`
	Workers           int    `json:"workers" yaml:"workers"` // 0 means runtime.NumCPU()
}

// Fcns are the model hooks called once per case, in order.
// Preprocess turns the case inputs into run arguments, Run is the model itself and
// Postprocess records the outputs on the case with AddOutVal.
type Fcns struct {
	Preprocess  func(c *Case) ([]float64, error)
	Run         func(args []float64) ([]float64, error)
	Postprocess func(c *Case, out []float64) error
}

// Recorder receives timing information while a simulation runs.
type Recorder interface {
	ObserveCase(d time.Duration, err error)
	ObserveRun(ncases int, d time.Duration, err error)
}

// Case is one complete sample of every input variable plus the outputs derived from it.
// A case is only ever touched by the goroutine evaluating it.
type Case struct {
	Index    int                `json:"index" yaml:"index"`
	IsMedian bool               `json:"is_median" yaml:"is_median"`
	InVals   map[string]float64 `json:"invals" yaml:"invals"`
	OutVals  map[string]float64 `json:"outvals" yaml:"outvals"`
	RunTime  time.Duration      `json:"run_time" yaml:"run_time"`

	outNames []string
}

// NewCase creates an empty case.
func NewCase(index int, isMedian bool) *Case {
	return &Case{
		Index:    index,
		IsMedian: isMedian,
		InVals:   make(map[string]float64),
		OutVals:  make(map[string]float64),
	}
}

// InVal returns the sampled value of the named input variable for this case.
func (c *Case) InVal(name string) (float64, error) {
	v, ok := c.InVals[name]
	if !ok {
		return 0, fmt.Errorf("case %d: no input value %q", c.Index, name)
	}
	return v, nil
}

// AddOutVal records an output value. Outputs keep the order they were first added in.
func (c *Case) AddOutVal(name string, val float64) {
	if _, exists := c.OutVals[name]; !exists {
		c.outNames = append(c.outNames, name)
	}
	c.OutVals[name] = val
}

// OutNames returns the output names in insertion order.
func (c *Case) OutNames() []string {
	return c.outNames
}

// OutVar collects one output across all cases, indexed like the cases.
type OutVar struct {
	Name          string                 `json:"name" yaml:"name"`
	Vals          []float64              `json:"vals" yaml:"vals"`
	VarStats      []analysis.VarStat     `json:"varstats" yaml:"varstats"`
	Sensitivities []analysis.Sensitivity `json:"sensitivities,omitempty" yaml:"sensitivities,omitempty"`
}

// NewOutVar creates an output variable over already collected values.
func NewOutVar(name string, vals []float64) *OutVar {
	return &OutVar{
		Name:     name,
		Vals:     vals,
		VarStats: make([]analysis.VarStat, 0),
	}
}

// AddVarStat computes a named statistic over the output and attaches it.
func (o *OutVar) AddVarStat(kind string, params analysis.StatParams) (analysis.VarStat, error) {
	vs, err := analysis.ComputeVarStat(o.Vals, kind, params)
	if err != nil {
		return vs, fmt.Errorf("outvar %q: %s: %w", o.Name, kind, err)
	}
	o.VarStats = append(o.VarStats, vs)
	return vs, nil
}

// Summary returns mean, percentiles and spread of the output.
func (o *OutVar) Summary() (*analysis.Summary, error) {
	s, err := analysis.Summarize(o.Vals)
	if err != nil {
		return nil, fmt.Errorf("outvar %q: %w", o.Name, err)
	}
	return s, nil
}
