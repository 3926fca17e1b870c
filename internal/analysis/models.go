package analysis

import "errors"

var (
	// ErrEmptySample is returned when a statistic is requested over no values.
	ErrEmptySample = errors.New("empty sample")
	// ErrTooFewPoints is returned when an order statistic cannot reach the requested confidence.
	ErrTooFewPoints = errors.New("too few data points for requested confidence")
	// ErrDegenerateOutput is returned when the output has no spread to attribute to inputs.
	ErrDegenerateOutput = errors.New("output variable has zero variance")
)

// Bounds accepted by the order statistics.
const (
	Bound2Sided      = "2-sided"
	Bound1SidedUpper = "1-sided upper"
	Bound1SidedLower = "1-sided lower"
)

// Stat kinds accepted by ComputeVarStat.
const (
	StatMean        = "mean"
	StatMedian      = "median"
	StatStd         = "std"
	StatPercentile  = "percentile"
	StatOrderStatTI = "orderstatTI"
	StatOrderStatP  = "orderstatP"
)

// StatParams carries the arguments of a VarStat. Only the fields relevant to the kind are read.
type StatParams struct {
	P     float64 `json:"p,omitempty" yaml:"p,omitempty"`
	C     float64 `json:"c,omitempty" yaml:"c,omitempty"`
	Bound string  `json:"bound,omitempty" yaml:"bound,omitempty"`
}

// VarStat is a named statistic computed over an output variable.
// Interval statistics have two values (low, high), everything else one.
type VarStat struct {
	Kind   string     `json:"kind" yaml:"kind"`
	Name   string     `json:"name" yaml:"name"`
	Params StatParams `json:"params" yaml:"params"`
	Vals   []float64  `json:"vals" yaml:"vals"`
}

// Sensitivity is the share of output spread attributed to one input variable.
type Sensitivity struct {
	InVar string  `json:"invar" yaml:"invar"`
	Index float64 `json:"index" yaml:"index"`
	Ratio float64 `json:"ratio" yaml:"ratio"` // Index normalized so all ratios sum to 1
}

// Summary holds the headline numbers of an output distribution.
type Summary struct {
	NumCases     int     `json:"num_cases" yaml:"num_cases"`
	Mean         float64 `json:"mean" yaml:"mean"`
	Median       float64 `json:"median" yaml:"median"`
	StdDev       float64 `json:"std_dev" yaml:"std_dev"`
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
	Percentile5  float64 `json:"percentile_5" yaml:"percentile_5"`
	Percentile95 float64 `json:"percentile_95" yaml:"percentile_95"`
}
