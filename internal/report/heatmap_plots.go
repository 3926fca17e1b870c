package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/mc_earnings_go/internal/sampling"
	"github.com/user/mc_earnings_go/internal/sim"
)

// HeatmapBins is the number of bins along each input axis of the heatmap.
const HeatmapBins = 20

const colorBarWidth = 1.3 * vg.Inch

// binnedMean is a plotter.GridXYZ holding the mean output of the cases in each cell of a
// regular grid over two inputs. Empty cells are NaN.
type binnedMean struct {
	xMin, xStep float64
	yMin, yStep float64
	z           [][]float64 // [row][col]
}

func newBinnedMean(xs, ys, zs []float64, bins int) *binnedMean {
	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)
	g := &binnedMean{
		xMin:  xMin,
		xStep: (xMax - xMin) / float64(bins),
		yMin:  yMin,
		yStep: (yMax - yMin) / float64(bins),
		z:     make([][]float64, bins),
	}

	counts := make([][]int, bins)
	for r := range g.z {
		g.z[r] = make([]float64, bins)
		counts[r] = make([]int, bins)
	}
	for i := range zs {
		c := binIndex(xs[i], xMin, g.xStep, bins)
		r := binIndex(ys[i], yMin, g.yStep, bins)
		g.z[r][c] += zs[i]
		counts[r][c]++
	}
	for r := range g.z {
		for c := range g.z[r] {
			if counts[r][c] == 0 {
				g.z[r][c] = math.NaN()
			} else {
				g.z[r][c] /= float64(counts[r][c])
			}
		}
	}
	return g
}

func binIndex(v, min, step float64, bins int) int {
	if step == 0 {
		return 0
	}
	i := int((v - min) / step)
	if i >= bins {
		i = bins - 1
	}
	return i
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func (g *binnedMean) Dims() (c, r int)   { return len(g.z[0]), len(g.z) }
func (g *binnedMean) Z(c, r int) float64 { return g.z[r][c] }
func (g *binnedMean) X(c int) float64    { return g.xMin + (float64(c)+0.5)*g.xStep }
func (g *binnedMean) Y(r int) float64    { return g.yMin + (float64(r)+0.5)*g.yStep }

// zRange returns the smallest and largest non-empty cell.
func (g *binnedMean) zRange() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range g.z {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

// CreateInputHeatmap renders the mean of an output over a grid of two inputs, with a color bar
// on the right.
func CreateInputHeatmap(x, y *sampling.InVar, o *sim.OutVar, bins int) ([]byte, error) {
	if x == nil || y == nil || o == nil {
		return nil, fmt.Errorf("heatmap needs two input variables and an output")
	}
	if len(o.Vals) == 0 || len(x.Vals) != len(o.Vals) || len(y.Vals) != len(o.Vals) {
		return nil, fmt.Errorf("heatmap inputs and output must have the same non-zero number of cases")
	}
	if bins <= 0 {
		return nil, fmt.Errorf("invalid bin count: %d", bins)
	}

	grid := newBinnedMean(x.Vals, y.Vals, o.Vals, bins)
	zMin, zMax := grid.zRange()

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(zMin)
	cmap.SetMax(zMax)

	hm := plotter.NewHeatMap(grid, cmap.Palette(255))
	hm.Min = zMin
	hm.Max = zMax
	hm.NaN = color.Gray{Y: 220}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Mean %s by %s and %s", o.Name, x.Name, y.Name)
	p.X.Label.Text = x.Name
	p.Y.Label.Text = y.Name
	p.Add(hm)

	bar := plot.New()
	bar.HideX()
	bar.Y.Tick.Marker = currencyTicks{}
	bar.Y.Label.Text = fmt.Sprintf("Mean %s", o.Name)
	bar.Title.Text = " "
	cb := &plotter.ColorBar{ColorMap: cmap, Vertical: true}
	bar.Add(cb)

	return renderCanvas(FigureWidth, FigureHeight, FigureDPI, func(dc draw.Canvas) {
		p.Draw(draw.Crop(dc, 0, -colorBarWidth, 0, 0))
		bar.Draw(draw.Crop(dc, FigureWidth-colorBarWidth+vg.Points(10), -vg.Points(40), 0, 0))
	})
}
