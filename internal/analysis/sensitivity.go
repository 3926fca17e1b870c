package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Sensitivities attributes the spread of output to each input by regressing the standardized
// output on the standardized inputs. The index of an input is its squared standardized
// regression coefficient; ratios normalize the indices to sum to 1. Inputs with no spread get
// a zero index and are left out of the regression.
func Sensitivities(names []string, inputs [][]float64, output []float64) ([]Sensitivity, error) {
	if len(names) != len(inputs) {
		return nil, fmt.Errorf("sensitivity: %d names for %d inputs", len(names), len(inputs))
	}
	n := len(output)
	if n == 0 {
		return nil, ErrEmptySample
	}
	for i, in := range inputs {
		if len(in) != n {
			return nil, fmt.Errorf("sensitivity: input %q has %d values, output has %d", names[i], len(in), n)
		}
	}

	yMean, yStd := stat.MeanStdDev(output, nil)
	if !(yStd > 0) {
		return nil, fmt.Errorf("sensitivity: %w", ErrDegenerateOutput)
	}

	// columns of the design matrix that actually vary
	var cols []int
	for i, in := range inputs {
		if _, sd := stat.MeanStdDev(in, nil); sd > 0 {
			cols = append(cols, i)
		}
	}

	results := make([]Sensitivity, len(names))
	for i, name := range names {
		results[i] = Sensitivity{InVar: name}
	}
	if len(cols) == 0 {
		return results, nil
	}
	if n <= len(cols) {
		return nil, fmt.Errorf("sensitivity: %d cases for %d inputs: %w", n, len(cols), ErrTooFewPoints)
	}

	x := mat.NewDense(n, len(cols), nil)
	for j, col := range cols {
		m, sd := stat.MeanStdDev(inputs[col], nil)
		for r, v := range inputs[col] {
			x.Set(r, j, (v-m)/sd)
		}
	}
	y := mat.NewVecDense(n, nil)
	for r, v := range output {
		y.SetVec(r, (v-yMean)/yStd)
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("sensitivity: least squares: %w", err)
	}

	total := 0.0
	for j, col := range cols {
		b := beta.AtVec(j)
		results[col].Index = b * b
		total += b * b
	}
	if total > 0 {
		for i := range results {
			results[i].Ratio = results[i].Index / total
		}
	}
	return results, nil
}
