package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/user/mc_earnings_go/internal/analysis"
	"github.com/user/mc_earnings_go/internal/sim"
)

// Output formats accepted by WriteSummary.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatCurrency renders v as dollars with thousands separators and two decimals, e.g. $-1,234.50.
func FormatCurrency(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatWholeCurrency is FormatCurrency without the cents.
func FormatWholeCurrency(v float64) string {
	return "$" + humanize.FormatFloat("#,###.", v)
}

// SummaryReport is the machine readable form of a finished run.
type SummaryReport struct {
	SimID         string                 `json:"sim_id" yaml:"sim_id"`
	Name          string                 `json:"name" yaml:"name"`
	NDraws        int                    `json:"ndraws" yaml:"ndraws"`
	Seed          uint64                 `json:"seed" yaml:"seed"`
	OutVar        string                 `json:"outvar" yaml:"outvar"`
	Summary       *analysis.Summary      `json:"summary" yaml:"summary"`
	VarStats      []analysis.VarStat     `json:"varstats" yaml:"varstats"`
	Sensitivities []analysis.Sensitivity `json:"sensitivities" yaml:"sensitivities"`
}

// NewSummaryReport collects the summary of one output variable of s.
func NewSummaryReport(s *sim.Sim, outvarName string) (*SummaryReport, error) {
	o, ok := s.OutVar(outvarName)
	if !ok {
		return nil, fmt.Errorf("no output variable %q", outvarName)
	}
	sum, err := o.Summary()
	if err != nil {
		return nil, err
	}
	return &SummaryReport{
		SimID:         s.ID,
		Name:          s.Name,
		NDraws:        s.NDraws,
		Seed:          s.Seed,
		OutVar:        o.Name,
		Summary:       sum,
		VarStats:      o.VarStats,
		Sensitivities: SortedSensitivities(o.Sensitivities),
	}, nil
}

// PrintSummary writes the three headline lines of the earnings distribution.
func PrintSummary(w io.Writer, sum *analysis.Summary) error {
	_, err := fmt.Fprintf(w, "Mean Earnings: %s\n5th Percentile: %s\n95th Percentile: %s\n",
		FormatCurrency(sum.Mean), FormatCurrency(sum.Percentile5), FormatCurrency(sum.Percentile95))
	return err
}

// PrintDetails writes the statistics and sensitivity tables.
func PrintDetails(w io.Writer, r *SummaryReport) {
	stats := table.NewWriter()
	stats.SetOutputMirror(w)
	stats.SetTitle(fmt.Sprintf("%s (%d cases)", r.OutVar, r.Summary.NumCases))
	stats.AppendHeader(table.Row{"Statistic", "Value"})
	stats.AppendRows([]table.Row{
		{"Mean", FormatCurrency(r.Summary.Mean)},
		{"Median", FormatCurrency(r.Summary.Median)},
		{"Std Dev", FormatCurrency(r.Summary.StdDev)},
		{"Min", FormatCurrency(r.Summary.Min)},
		{"Max", FormatCurrency(r.Summary.Max)},
	})
	if len(r.VarStats) > 0 {
		stats.AppendSeparator()
		for _, vs := range r.VarStats {
			stats.AppendRow(table.Row{vs.Name, formatVals(vs.Vals)})
		}
	}
	stats.SetStyle(table.StyleLight)
	stats.Render()

	if len(r.Sensitivities) == 0 {
		return
	}
	sens := table.NewWriter()
	sens.SetOutputMirror(w)
	sens.SetTitle("Sensitivity")
	sens.AppendHeader(table.Row{"Input", "Index", "Ratio"})
	for _, s := range r.Sensitivities {
		sens.AppendRow(table.Row{s.InVar, fmt.Sprintf("%.4f", s.Index), fmt.Sprintf("%.1f%%", s.Ratio*100)})
	}
	sens.SetStyle(table.StyleLight)
	sens.Render()
}

func formatVals(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = FormatCurrency(v)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// WriteSummary writes r in the requested format. The text format is the headline lines,
// followed by the tables when verbose is set.
func WriteSummary(w io.Writer, r *SummaryReport, format string, verbose bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		if err := PrintSummary(w, r.Summary); err != nil {
			return err
		}
		if verbose {
			PrintDetails(w, r)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use text, json or yaml)", format)
	}
}
