package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/mc_earnings_go/internal/sim"
)

// RunningMean returns the cumulative mean after each case together with the standard error
// of that mean. The standard error of the first point is zero.
func RunningMean(vals []float64) (means, stdErrs []float64) {
	means = make([]float64, len(vals))
	stdErrs = make([]float64, len(vals))

	// Welford
	var mean, m2 float64
	for i, v := range vals {
		n := float64(i + 1)
		delta := v - mean
		mean += delta / n
		m2 += delta * (v - mean)
		means[i] = mean
		if i > 0 {
			stdErrs[i] = math.Sqrt(m2/(n-1)) / math.Sqrt(n)
		}
	}
	return means, stdErrs
}

// CreateConvergencePlot shows how the mean of an output settles as cases accumulate, with a
// band of two standard errors on either side.
func CreateConvergencePlot(o *sim.OutVar) ([]byte, error) {
	if o == nil || len(o.Vals) < 2 {
		return nil, fmt.Errorf("need at least two cases to plot convergence")
	}
	means, stdErrs := RunningMean(o.Vals)

	meanPts := make(plotter.XYs, len(means))
	upper := make(plotter.XYs, len(means))
	lower := make(plotter.XYs, len(means))
	for i := range means {
		x := float64(i + 1)
		meanPts[i] = plotter.XY{X: x, Y: means[i]}
		upper[i] = plotter.XY{X: x, Y: means[i] + 2*stdErrs[i]}
		lower[i] = plotter.XY{X: x, Y: means[i] - 2*stdErrs[i]}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Convergence of Mean %s", o.Name)
	p.X.Label.Text = "Number of Cases"
	p.Y.Label.Text = fmt.Sprintf("Mean %s", o.Name)
	p.Y.Tick.Marker = currencyTicks{}
	p.X.Min = 1
	p.X.Max = float64(len(means))
	p.Add(plotter.NewGrid())

	band := color.RGBA{R: 31, G: 119, B: 180, A: 255}
	for i, pts := range []plotter.XYs{upper, lower} {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create error band: %w", err)
		}
		line.Color = band
		line.Width = vg.Points(0.75)
		line.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(line)
		if i == 0 {
			p.Legend.Add("±2 standard errors", line)
		}
	}

	line, err := plotter.NewLine(meanPts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mean line: %w", err)
	}
	line.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("Running mean", line)

	p.Legend.Top = true
	p.Legend.XOffs = -vg.Points(10)

	return renderPNG(p, FigureWidth, FigureHeight, FigureDPI)
}
