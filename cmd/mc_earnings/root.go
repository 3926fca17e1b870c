package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/mc_earnings_go/internal/report"
)

// Defaults of the fixed earnings scenario.
const (
	defaultNDraws = 1000
	defaultSeed   = 12345678
)

// newRootCmd builds the command tree. Every invocation gets its own viper instance so
// flags, config file values and defaults never leak between runs.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "mc_earnings",
		Short: "Monte Carlo simulation of product earnings",
		Long: `mc_earnings samples unit price, unit sales, variable costs and fixed costs from
triangular distributions, evaluates earnings = price * sales - (variable + fixed costs) for
every case and reports the resulting earnings distribution.

Outputs written to --out-dir:
  product_earnings_histogram.png              earnings histogram
  sensitivity_analysis_input_params.png       sensitivity ratios per input
  product_earnings_convergence.png            running mean of earnings
  product_earnings_price_sales_heatmap.png    mean earnings by unit price and sales
  product_earnings.mcsim                      full result set (SQLite)
  product_earnings_report.pdf                 with --pdf
  product_earnings_cases.csv                  with --csv`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			initLogging(v, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := settingsFrom(v)
			if err != nil {
				return err
			}
			_, err = NewApp(settings, cmd.OutOrStdout()).Run(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("Simulation failed")
			}
			return err
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file with flag values")
	pf.String("log-level", "info", "log level (debug, info, warn, error, disabled)")
	pf.String("output", report.FormatText, "summary format (text, json, yaml)")
	pf.String("out-dir", ".", "directory for plots, result file and report")
	pf.BoolP("quiet", "q", false, "only log errors")
	pf.BoolP("verbose", "v", false, "print statistics and sensitivity tables")

	// Run flags
	f := cmd.Flags()
	f.Int("ndraws", defaultNDraws, "number of random draws (one more case is run for the median)")
	f.Uint64("seed", defaultSeed, "random seed of the simulation")
	f.Bool("single-threaded", false, "evaluate cases one after another")
	f.Int("workers", 0, "parallel case evaluators (0 means one per CPU)")
	f.Bool("pdf", false, "also write a PDF report")
	f.Bool("csv", false, "also export every case to CSV")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this file")

	for _, name := range []string{"log-level", "output", "out-dir", "quiet", "verbose"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}
	for _, name := range []string{"ndraws", "seed", "single-threaded", "workers", "pdf", "csv", "metrics-file"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}

	cmd.AddCommand(newLoadCmd(v), newVersionCmd(v))
	return cmd
}

// initConfig reads the optional config file. Environment variables are not consulted.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

// initLogging configures the global logger
func initLogging(v *viper.Viper, w io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
	if v.GetBool("quiet") && zerolog.GlobalLevel() < zerolog.ErrorLevel {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"})
}

// settingsFrom resolves flags and config values into run settings.
func settingsFrom(v *viper.Viper) (Settings, error) {
	s := Settings{
		NDraws:         v.GetInt("ndraws"),
		Seed:           v.GetUint64("seed"),
		SingleThreaded: v.GetBool("single-threaded"),
		Workers:        v.GetInt("workers"),
		OutDir:         v.GetString("out-dir"),
		PDF:            v.GetBool("pdf"),
		CSV:            v.GetBool("csv"),
		MetricsFile:    v.GetString("metrics-file"),
		Output:         v.GetString("output"),
		Verbose:        v.GetBool("verbose"),
	}
	if s.NDraws <= 0 {
		return s, fmt.Errorf("ndraws must be positive, got %d", s.NDraws)
	}
	if s.Workers < 0 {
		return s, fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	switch s.Output {
	case report.FormatText, report.FormatJSON, report.FormatYAML:
	default:
		return s, fmt.Errorf("unsupported output format %q (use text, json or yaml)", s.Output)
	}
	return s, nil
}
