package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/user/mc_earnings_go/internal/sim"
)

// CSVFileName returns the default per-case export name, e.g. "product_earnings_cases.csv".
func CSVFileName(simName string) string {
	return simName + "_cases.csv"
}

// ExportCSV writes one row per case: the case index, whether it is the median case, every
// input value and every output value, in variable order.
func ExportCSV(path string, s *sim.Sim) error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("export %s: %w", path, sim.ErrNotRun)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"case", "is_median"}
	for _, v := range s.InVars {
		header = append(header, v.Name)
	}
	for _, o := range s.OutVars {
		header = append(header, o.Name)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	row := make([]string, len(header))
	for i, c := range s.Cases {
		row[0] = strconv.Itoa(c.Index)
		row[1] = strconv.FormatBool(c.IsMedian)
		col := 2
		for _, v := range s.InVars {
			row[col] = strconv.FormatFloat(v.Vals[i], 'g', -1, 64)
			col++
		}
		for _, o := range s.OutVars {
			row[col] = strconv.FormatFloat(o.Vals[i], 'g', -1, 64)
			col++
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write case %d: %w", c.Index, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV data: %w", err)
	}
	return file.Close()
}
