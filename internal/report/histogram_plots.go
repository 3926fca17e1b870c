package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/mc_earnings_go/internal/sim"
)

// HistogramBins is the bin count of the output distribution plot.
const HistogramBins = 50

var statColors = []color.Color{
	color.RGBA{R: 214, G: 39, B: 40, A: 255},  // red
	color.RGBA{R: 44, G: 160, B: 44, A: 255},  // green
	color.RGBA{R: 255, G: 127, B: 14, A: 255}, // orange
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
}

// currencyTicks labels the default ticks as whole dollars.
type currencyTicks struct{}

func (currencyTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i, t := range ticks {
		if t.Label != "" {
			ticks[i].Label = FormatWholeCurrency(t.Value)
		}
	}
	return ticks
}

// CreateHistogramPlot renders the distribution of an output variable with one dashed marker
// per value of each attached VarStat.
func CreateHistogramPlot(o *sim.OutVar, title string, bins int) ([]byte, error) {
	if o == nil || len(o.Vals) == 0 {
		return nil, fmt.Errorf("no output values to plot")
	}
	if bins <= 0 {
		return nil, fmt.Errorf("invalid bin count: %d", bins)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = o.Name
	p.Y.Label.Text = "Number of Cases"
	p.X.Tick.Marker = currencyTicks{}
	p.Add(plotter.NewGrid())

	h, err := plotter.NewHist(plotter.Values(o.Vals), bins)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	h.FillColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	h.LineStyle.Color = color.White
	h.LineStyle.Width = vg.Points(0.5)
	p.Add(h)

	maxCount := 0.0
	for _, b := range h.Bins {
		if b.Weight > maxCount {
			maxCount = b.Weight
		}
	}

	for i, vs := range o.VarStats {
		col := statColors[i%len(statColors)]
		for j, v := range vs.Vals {
			marker, err := plotter.NewLine(plotter.XYs{{X: v, Y: 0}, {X: v, Y: maxCount}})
			if err != nil {
				return nil, fmt.Errorf("failed to create marker for %s: %w", vs.Name, err)
			}
			marker.Color = col
			marker.Width = vg.Points(1.5)
			marker.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
			p.Add(marker)
			if j == 0 {
				p.Legend.Add(vs.Name, marker)
			}
		}
	}
	p.Legend.Top = true

	return renderPNG(p, FigureWidth, FigureHeight, FigureDPI)
}
