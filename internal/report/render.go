package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default figure geometry: 8.0 x 4.5 inches at 100 dpi, i.e. 800 x 450 pixels.
const (
	FigureWidth  = 8.0 * vg.Inch
	FigureHeight = 4.5 * vg.Inch
	FigureDPI    = 100
)

// Default output file names.
const (
	HistogramFile   = "product_earnings_histogram.png"
	SensitivityFile = "sensitivity_analysis_input_params.png"
	ConvergenceFile = "product_earnings_convergence.png"
	HeatmapFile     = "product_earnings_price_sales_heatmap.png"
	PDFFile         = "product_earnings_report.pdf"
)

// renderPNG draws p onto an image canvas of the given size and resolution.
func renderPNG(p *plot.Plot, w, h vg.Length, dpi int) ([]byte, error) {
	return renderCanvas(w, h, dpi, func(dc draw.Canvas) { p.Draw(dc) })
}

// renderCanvas hands a drawing canvas of the given size to fn and encodes the result as PNG.
func renderCanvas(w, h vg.Length, dpi int, fn func(dc draw.Canvas)) ([]byte, error) {
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	fn(draw.New(c))

	buf := new(bytes.Buffer)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteImage saves rendered image bytes, creating the parent directory if needed.
func WriteImage(path string, img []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, img, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
