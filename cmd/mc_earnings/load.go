package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/mc_earnings_go/internal/earnings"
	"github.com/user/mc_earnings_go/internal/report"
	"github.com/user/mc_earnings_go/internal/store"
)

func newLoadCmd(v *viper.Viper) *cobra.Command {
	var replot, exportCSV bool

	cmd := &cobra.Command{
		Use:   "load <file.mcsim>",
		Short: "Print the summary of a saved simulation",
		Long: `Load a result file written by a previous run and print its earnings summary.
With --plots the charts are rendered again into --out-dir, with --csv every case is
exported there as CSV.`,
		Example: `
  mc_earnings load product_earnings.mcsim
  mc_earnings load product_earnings.mcsim --output json
  mc_earnings load product_earnings.mcsim --plots --out-dir plots`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Load(args[0])
			if err != nil {
				return err
			}
			log.Info().Str("sim", s.Name).Str("id", s.ID).Int("cases", len(s.Cases)).Msg("Loaded simulation")

			app := NewApp(Settings{OutDir: v.GetString("out-dir")}, cmd.OutOrStdout())
			if replot {
				o, ok := s.OutVar(earnings.OutVarName)
				if !ok {
					return errNoOutVar
				}
				if _, err := app.generatePlots(s, o); err != nil {
					return err
				}
			}
			if exportCSV {
				if err := app.exportCSV(s); err != nil {
					return err
				}
			}

			summary, err := report.NewSummaryReport(s, earnings.OutVarName)
			if err != nil {
				return err
			}
			return report.WriteSummary(cmd.OutOrStdout(), summary, v.GetString("output"), v.GetBool("verbose"))
		},
	}
	cmd.Flags().BoolVar(&replot, "plots", false, "render the plots again into --out-dir")
	cmd.Flags().BoolVar(&exportCSV, "csv", false, "export every case to CSV in --out-dir")
	return cmd
}
