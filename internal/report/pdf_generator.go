package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/user/mc_earnings_go/internal/sim"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// Keys of the images BuildPDFReport embeds.
const (
	ImageHistogram   = "histogram"
	ImageSensitivity = "sensitivity"
	ImageConvergence = "convergence"
	ImageHeatmap     = "heatmap"
)

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // manually tracked Y position for flowing content
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["caption"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(80, 80, 80)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200) // light grey
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(math.Max(1, float64(len(lines))) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

// writeTable draws a bordered table; widthsRel are fractions of the content width.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}
	s.checkAddPage(s.lineHeight * float64(len(rows)+1))

	row := func(cells []string, style string, fill bool) {
		s.checkAddPage(s.lineHeight)
		s.applyStyle(style)
		x := pdfMargin
		for i, cell := range cells {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, cell, "1", 0, "C", fill, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}

	row(headers, "tableHeader", true)
	for _, r := range rows {
		row(r, "tableCell", false)
	}
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string) {
	// gofpdf refers to registered images by name
	s.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(imageBytes))

	if width > pdfContentWidth {
		ratio := pdfContentWidth / width
		width = pdfContentWidth
		height *= ratio
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.ImageOptions(imageName, x, s.currentY, width, height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "caption", "C")
	}
	s.addSpacer(2)
}

// BuildPDFReport writes a report of one output variable of a finished run: run settings,
// headline statistics, sensitivities and one page per plot in images, keyed by the Image
// constants. A missing plot is noted in the document.
func BuildPDFReport(path string, s *sim.Sim, outvarName string, images map[string][]byte) error {
	r, err := NewSummaryReport(s, outvarName)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(fmt.Sprintf("%s Monte Carlo Report", r.OutVar), true)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph(fmt.Sprintf("Product %s Monte Carlo Report (%d Cases)", r.OutVar, r.Summary.NumCases), "h1", "C")
	styler.addSpacer(3)
	styler.writeParagraph(fmt.Sprintf("Run %s: %d draws, seed %d, first case is median: %t, evaluated in %s.",
		r.SimID, s.NDraws, s.Seed, s.FirstCaseIsMedian, s.RunTime), "normal", "L")
	styler.addSpacer(3)

	styler.writeParagraph("Input Variables", "h2", "L")
	inRows := make([][]string, 0, len(s.InVars))
	for _, v := range s.InVars {
		p := v.Dist.Params()
		inRows = append(inRows, []string{
			v.Name,
			v.Dist.Kind(),
			fmt.Sprintf("%g", p["c"]),
			fmt.Sprintf("%g", p["loc"]),
			fmt.Sprintf("%g", p["scale"]),
			fmt.Sprintf("%.2f", v.Dist.Median()),
		})
	}
	styler.writeTable([]string{"Name", "Distribution", "c", "loc", "scale", "Median"},
		[]float64{0.3, 0.15, 0.1, 0.15, 0.15, 0.15}, inRows)
	styler.addSpacer(5)

	styler.writeParagraph(fmt.Sprintf("%s Statistics", r.OutVar), "h2", "L")
	statRows := [][]string{
		{"Mean", FormatCurrency(r.Summary.Mean)},
		{"Median", FormatCurrency(r.Summary.Median)},
		{"Std Dev", FormatCurrency(r.Summary.StdDev)},
		{"5th Percentile", FormatCurrency(r.Summary.Percentile5)},
		{"95th Percentile", FormatCurrency(r.Summary.Percentile95)},
	}
	for _, vs := range r.VarStats {
		statRows = append(statRows, []string{vs.Name, formatVals(vs.Vals)})
	}
	styler.writeTable([]string{"Statistic", "Value"}, []float64{0.5, 0.5}, statRows)
	styler.addSpacer(5)

	if len(r.Sensitivities) > 0 {
		styler.writeParagraph("Sensitivity", "h2", "L")
		sensRows := make([][]string, 0, len(r.Sensitivities))
		for _, sens := range r.Sensitivities {
			sensRows = append(sensRows, []string{sens.InVar, fmt.Sprintf("%.4f", sens.Index), fmt.Sprintf("%.1f%%", sens.Ratio*100)})
		}
		styler.writeTable([]string{"Input", "Index", "Ratio"}, []float64{0.5, 0.25, 0.25}, sensRows)
	}

	plotDefs := []struct {
		Key     string
		Title   string
		Caption string
	}{
		{ImageHistogram, fmt.Sprintf("%s Distribution", r.OutVar), fmt.Sprintf("Histogram of %s over %d cases", r.OutVar, r.Summary.NumCases)},
		{ImageSensitivity, "Sensitivity Analysis", fmt.Sprintf("Share of %s variance explained by each input", r.OutVar)},
		{ImageConvergence, "Convergence", fmt.Sprintf("Running mean of %s with two standard errors", r.OutVar)},
		{ImageHeatmap, "Input Interaction", fmt.Sprintf("Mean %s per cell of the unit price and unit sales samples", r.OutVar)},
	}

	imgWidth := pdfContentWidth * 0.85
	imgHeight := imgWidth * float64(FigureHeight/FigureWidth)

	for _, pDef := range plotDefs {
		styler.newPage()
		styler.writeParagraph(pDef.Title, "h2", "L")
		if imgBytes, ok := images[pDef.Key]; ok && len(imgBytes) > 0 {
			styler.addImage(imgBytes, pDef.Key, imgWidth, imgHeight, pDef.Caption)
		} else {
			log.Warn().Str("plot", pDef.Key).Msg("Plot not available for PDF report")
			styler.writeParagraph(fmt.Sprintf("Plot for %s not available.", pDef.Title), "normal", "L")
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build PDF report: %w", err)
	}
	return pdf.OutputFileAndClose(path)
}
