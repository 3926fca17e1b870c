package report

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/mc_earnings_go/internal/analysis"
)

// SortedSensitivities returns a copy ordered by descending ratio, ties by input name.
func SortedSensitivities(sens []analysis.Sensitivity) []analysis.Sensitivity {
	sorted := make([]analysis.Sensitivity, len(sens))
	copy(sorted, sens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Ratio != sorted[j].Ratio {
			return sorted[i].Ratio > sorted[j].Ratio
		}
		return sorted[i].InVar < sorted[j].InVar
	})
	return sorted
}

// CreateSensitivityPlot renders the sensitivity ratios as horizontal bars, largest on top.
func CreateSensitivityPlot(outvarName string, sens []analysis.Sensitivity) ([]byte, error) {
	if len(sens) == 0 {
		return nil, fmt.Errorf("no sensitivities to plot for %q", outvarName)
	}
	sorted := SortedSensitivities(sens)
	n := len(sorted)

	// bar i is drawn at y=i, so fill from the bottom up
	vals := make(plotter.Values, n)
	names := make([]string, n)
	labels := plotter.XYLabels{XYs: make(plotter.XYs, n), Labels: make([]string, n)}
	for i, s := range sorted {
		y := n - 1 - i
		pct := s.Ratio * 100
		vals[y] = pct
		names[y] = s.InVar
		labels.XYs[y] = plotter.XY{X: pct, Y: float64(y)}
		labels.Labels[y] = fmt.Sprintf(" %.1f%%", pct)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Sensitivity Ratios for '%s'", outvarName)
	p.X.Label.Text = "Sensitivity Ratio (%)"
	p.X.Min = 0
	p.X.Max = 100
	p.Add(plotter.NewGrid())

	bars, err := plotter.NewBarChart(vals, vg.Points(28))
	if err != nil {
		return nil, fmt.Errorf("failed to create bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	valueLabels, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to create bar labels: %w", err)
	}
	p.Add(valueLabels)

	p.NominalY(names...)

	return renderPNG(p, FigureWidth, FigureHeight, FigureDPI)
}
