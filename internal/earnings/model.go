// Package earnings is the product earnings model: four triangular inputs combined into a
// single Earnings output.
package earnings

import (
	"fmt"

	"github.com/user/mc_earnings_go/internal/sampling"
	"github.com/user/mc_earnings_go/internal/sim"
)

const (
	UnitPrice     = "Unit Price"
	UnitSales     = "Unit Sales"
	VariableCosts = "Variable Costs"
	FixedCosts    = "Fixed Costs"

	// OutVarName is the only output of the model.
	OutVarName = "Earnings"
)

// InputSpec is the triangular distribution of one model input as shape c, loc and scale.
type InputSpec struct {
	Name  string
	C     float64
	Loc   float64
	Scale float64
}

// Inputs lists the model inputs in the order they are registered and passed to Run.
// Every support starts at a positive loc, so no draw is a negative price, volume or cost.
var Inputs = []InputSpec{
	{Name: UnitPrice, C: 0.5, Loc: 50, Scale: 150},
	{Name: UnitSales, C: 0.5, Loc: 5000, Scale: 10000},
	{Name: VariableCosts, C: 0.5, Loc: 10, Scale: 40},
	{Name: FixedCosts, C: 0.5, Loc: 100000, Scale: 400000},
}

// Evaluate is the per-case model. It performs no validation: any inputs, including
// zero or negative ones, give a plain floating-point result.
func Evaluate(unitPrice, unitSales, variableCosts, fixedCosts float64) float64 {
	return unitPrice*unitSales - (variableCosts + fixedCosts)
}

// Preprocess pulls the four inputs out of a case in the order Run expects.
func Preprocess(c *sim.Case) ([]float64, error) {
	args := make([]float64, len(Inputs))
	for i, in := range Inputs {
		v, err := c.InVal(in.Name)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// Run evaluates the earnings for one case.
func Run(args []float64) ([]float64, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("earnings: expected 4 arguments, got %d", len(args))
	}
	return []float64{Evaluate(args[0], args[1], args[2], args[3])}, nil
}

// Postprocess stores the earnings as the case output.
func Postprocess(c *sim.Case, out []float64) error {
	if len(out) != 1 {
		return fmt.Errorf("earnings: expected 1 output, got %d", len(out))
	}
	c.AddOutVal(OutVarName, out[0])
	return nil
}

// Fcns wires the model into a simulation.
func Fcns() sim.Fcns {
	return sim.Fcns{
		Preprocess:  Preprocess,
		Run:         Run,
		Postprocess: Postprocess,
	}
}

// Configure registers the four input variables on s.
func Configure(s *sim.Sim) error {
	for _, in := range Inputs {
		dist, err := sampling.NewTriangular(in.C, in.Loc, in.Scale)
		if err != nil {
			return fmt.Errorf("input %q: %w", in.Name, err)
		}
		if _, err := s.AddInVar(in.Name, dist); err != nil {
			return err
		}
	}
	return nil
}

// NewSim builds a ready-to-run earnings simulation.
func NewSim(cfg sim.Config) (*sim.Sim, error) {
	s := sim.New(cfg, Fcns())
	if err := Configure(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ExpectedEarnings is the analytic mean of the model. Price and sales are independent, so
// E[p*s] = E[p]*E[s].
func ExpectedEarnings() (float64, error) {
	means := make(map[string]float64, len(Inputs))
	for _, in := range Inputs {
		dist, err := sampling.NewTriangular(in.C, in.Loc, in.Scale)
		if err != nil {
			return 0, err
		}
		means[in.Name] = dist.Mean()
	}
	return Evaluate(means[UnitPrice], means[UnitSales], means[VariableCosts], means[FixedCosts]), nil
}
