package sampling

// DistTriangular is the only distribution family the earnings model uses.
const DistTriangular = "triang"

// Distribution is the view of a probability distribution that the sampler needs.
// Callers downstream of the sampler only ever see realized values, never a Distribution.
type Distribution interface {
	Kind() string
	// Params returns the parameters the distribution was built from, keyed the way
	// NewDistribution expects them.
	Params() map[string]float64
	Quantile(p float64) float64
	Mean() float64
	Median() float64
}

// InVar holds one sampled input variable. Pcts[i] is the percentile drawn for case i and
// Vals[i] the value it maps to. Both have one entry per case once Draw has run.
type InVar struct {
	Name string
	Dist Distribution
	Seed uint64
	Pcts []float64
	Vals []float64
}

// NewInVar creates an input variable that has not been sampled yet.
func NewInVar(name string, dist Distribution, seed uint64) *InVar {
	return &InVar{
		Name: name,
		Dist: dist,
		Seed: seed,
		Pcts: make([]float64, 0),
		Vals: make([]float64, 0),
	}
}

// NumCases returns how many cases have been drawn.
func (v *InVar) NumCases() int {
	return len(v.Vals)
}
