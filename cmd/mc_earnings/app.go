package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/user/mc_earnings_go/internal/analysis"
	"github.com/user/mc_earnings_go/internal/earnings"
	"github.com/user/mc_earnings_go/internal/metrics"
	"github.com/user/mc_earnings_go/internal/report"
	"github.com/user/mc_earnings_go/internal/sim"
	"github.com/user/mc_earnings_go/internal/store"
)

// SimName names the run and its result file.
const SimName = "product_earnings"

var errNoOutVar = fmt.Errorf("simulation has no %q output", earnings.OutVarName)

// Settings are the resolved command line options of a run.
type Settings struct {
	NDraws         int
	Seed           uint64
	SingleThreaded bool
	Workers        int
	OutDir         string
	PDF            bool
	CSV            bool
	MetricsFile    string
	Output         string
	Verbose        bool
}

// App runs the earnings pipeline: simulate, attach statistics, plot, print and persist.
type App struct {
	settings Settings
	out      io.Writer
	recorder *metrics.Recorder
}

// NewApp creates an App that prints its summary to out.
func NewApp(settings Settings, out io.Writer) *App {
	return &App{
		settings: settings,
		out:      out,
		recorder: metrics.NewRecorder(),
	}
}

func (a *App) sendStatus(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func (a *App) path(name string) string {
	return filepath.Join(a.settings.OutDir, name)
}

// Run executes the whole pipeline and returns the finished simulation.
func (a *App) Run(ctx context.Context) (*sim.Sim, error) {
	cfg := sim.Config{
		Name:              SimName,
		NDraws:            a.settings.NDraws,
		Seed:              a.settings.Seed,
		FirstCaseIsMedian: true,
		SingleThreaded:    a.settings.SingleThreaded,
		Workers:           a.settings.Workers,
	}
	s, err := earnings.NewSim(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure simulation: %w", err)
	}
	s.SetRecorder(a.recorder)

	a.sendStatus("Running %d cases (seed %d)...", s.NumCases(), cfg.Seed)
	if err := s.Run(ctx); err != nil {
		return nil, fmt.Errorf("run simulation: %w", err)
	}

	o, ok := s.OutVar(earnings.OutVarName)
	if !ok {
		return nil, errNoOutVar
	}

	a.sendStatus("Analyzing %s...", o.Name)
	medianStats := analysis.StatParams{P: 0.5, C: 0.95, Bound: analysis.Bound2Sided}
	for _, kind := range []string{analysis.StatOrderStatTI, analysis.StatOrderStatP} {
		vs, err := o.AddVarStat(kind, medianStats)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("stat", vs.Name).Floats64("vals", vs.Vals).Msg("VarStat attached")
	}
	if _, err := s.CalcSensitivities(o.Name); err != nil {
		return nil, fmt.Errorf("sensitivity analysis: %w", err)
	}

	a.sendStatus("Generating plots...")
	plotImages, err := a.generatePlots(s, o)
	if err != nil {
		return nil, err
	}
	a.sendStatus("Plot generation complete.")

	summary, err := report.NewSummaryReport(s, o.Name)
	if err != nil {
		return nil, err
	}
	if err := report.WriteSummary(a.out, summary, a.settings.Output, a.settings.Verbose); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	resultPath := a.path(store.FileName(s.Name))
	a.sendStatus("Saving results: %s", resultPath)
	if err := store.Save(resultPath, s); err != nil {
		return nil, err
	}

	if a.settings.CSV {
		if err := a.exportCSV(s); err != nil {
			return nil, err
		}
	}

	if a.settings.PDF {
		pdfPath := a.path(report.PDFFile)
		a.sendStatus("Generating PDF: %s...", pdfPath)
		if err := report.BuildPDFReport(pdfPath, s, o.Name, plotImages); err != nil {
			return nil, fmt.Errorf("generate PDF report: %w", err)
		}
	}

	if a.settings.MetricsFile != "" {
		if err := a.recorder.WriteTextfile(a.settings.MetricsFile); err != nil {
			return nil, err
		}
	}

	a.sendStatus("Analysis complete in %s.", s.RunTime)
	return s, nil
}

func (a *App) exportCSV(s *sim.Sim) error {
	csvPath := a.path(store.CSVFileName(s.Name))
	a.sendStatus("Exporting cases: %s", csvPath)
	return store.ExportCSV(csvPath, s)
}

// generatePlots renders and writes every chart, returning the images keyed for the PDF report.
func (a *App) generatePlots(s *sim.Sim, o *sim.OutVar) (map[string][]byte, error) {
	price, okPrice := s.InVar(earnings.UnitPrice)
	sales, okSales := s.InVar(earnings.UnitSales)
	if !okPrice || !okSales {
		return nil, fmt.Errorf("simulation has no %q and %q inputs", earnings.UnitPrice, earnings.UnitSales)
	}

	plotConfigs := []struct {
		Key    string
		File   string
		Render func() ([]byte, error)
	}{
		{report.ImageHistogram, report.HistogramFile, func() ([]byte, error) {
			return report.CreateHistogramPlot(o, "Product Earnings Distribution", report.HistogramBins)
		}},
		{report.ImageSensitivity, report.SensitivityFile, func() ([]byte, error) {
			return report.CreateSensitivityPlot(o.Name, o.Sensitivities)
		}},
		{report.ImageConvergence, report.ConvergenceFile, func() ([]byte, error) {
			return report.CreateConvergencePlot(o)
		}},
		{report.ImageHeatmap, report.HeatmapFile, func() ([]byte, error) {
			return report.CreateInputHeatmap(price, sales, o, report.HeatmapBins)
		}},
	}

	plotImages := make(map[string][]byte, len(plotConfigs))
	for _, pc := range plotConfigs {
		img, err := pc.Render()
		if err != nil {
			return nil, fmt.Errorf("generate plot %s: %w", pc.File, err)
		}
		if err := report.WriteImage(a.path(pc.File), img); err != nil {
			return nil, err
		}
		log.Debug().Str("file", pc.File).Int("bytes", len(img)).Msg("Plot written")
		plotImages[pc.Key] = img
	}
	return plotImages, nil
}
