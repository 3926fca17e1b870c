package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mc_earnings_go/internal/analysis"
	"github.com/user/mc_earnings_go/internal/earnings"
	"github.com/user/mc_earnings_go/internal/sim"
)

func runEarnings(t *testing.T, ndraws int) *sim.Sim {
	t.Helper()
	s, err := earnings.NewSim(sim.Config{
		Name:              "product_earnings",
		NDraws:            ndraws,
		Seed:              12345678,
		FirstCaseIsMedian: true,
		Workers:           4,
	})
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	out, ok := s.OutVar(earnings.OutVarName)
	require.True(t, ok)
	_, err = out.AddVarStat(analysis.StatOrderStatTI, analysis.StatParams{P: 0.5, C: 0.95, Bound: analysis.Bound2Sided})
	require.NoError(t, err)
	_, err = out.AddVarStat(analysis.StatMean, analysis.StatParams{})
	require.NoError(t, err)
	_, err = s.CalcSensitivities(earnings.OutVarName)
	require.NoError(t, err)
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	orig := runEarnings(t, 200)
	path := filepath.Join(t.TempDir(), FileName(orig.Name))
	require.NoError(t, Save(path, orig))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, orig.ID, loaded.ID)
	assert.Equal(t, orig.Config, loaded.Config)
	assert.Equal(t, orig.RunTime, loaded.RunTime)
	assert.True(t, orig.StartedAt.Equal(loaded.StartedAt))

	require.Len(t, loaded.InVars, len(orig.InVars))
	for i, v := range orig.InVars {
		lv := loaded.InVars[i]
		assert.Equal(t, v.Name, lv.Name)
		assert.Equal(t, v.Seed, lv.Seed)
		assert.Equal(t, v.Dist.Params(), lv.Dist.Params())
		if diff := cmp.Diff(v.Vals, lv.Vals); diff != "" {
			t.Errorf("invar %q vals mismatch (-want +got):\n%s", v.Name, diff)
		}
		if diff := cmp.Diff(v.Pcts, lv.Pcts); diff != "" {
			t.Errorf("invar %q pcts mismatch (-want +got):\n%s", v.Name, diff)
		}
	}

	if diff := cmp.Diff(orig.OutVars, loaded.OutVars, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("outvars mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, loaded.Cases, 201)
	for i, c := range orig.Cases {
		lc := loaded.Cases[i]
		assert.Equal(t, c.Index, lc.Index)
		assert.Equal(t, c.IsMedian, lc.IsMedian)
		assert.Equal(t, c.InVals, lc.InVals)
		assert.Equal(t, c.OutVals, lc.OutVals)
		assert.Equal(t, c.RunTime, lc.RunTime)
	}
}

func TestSave_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.mcsim")
	first := runEarnings(t, 20)
	require.NoError(t, Save(path, first))

	second := runEarnings(t, 30)
	require.NoError(t, Save(path, second))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, second.ID, loaded.ID)
	assert.Len(t, loaded.Cases, 31)
}

func TestSave_NotRun(t *testing.T) {
	s, err := earnings.NewSim(sim.Config{Name: "idle", NDraws: 10})
	require.NoError(t, err)
	err = Save(filepath.Join(t.TempDir(), "idle.mcsim"), s)
	assert.ErrorIs(t, err, sim.ErrNotRun)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.mcsim"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bogus := filepath.Join(t.TempDir(), "bogus.mcsim")
	require.NoError(t, os.WriteFile(bogus, []byte("not a database"), 0644))
	_, err = Load(bogus)
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "product_earnings.mcsim", FileName("product_earnings"))
}

func TestExportCSV(t *testing.T) {
	s := runEarnings(t, 20)
	path := filepath.Join(t.TempDir(), CSVFileName(s.Name))
	require.NoError(t, ExportCSV(path, s))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 22)
	assert.Equal(t, []string{"case", "is_median", "Unit Price", "Unit Sales", "Variable Costs", "Fixed Costs", "Earnings"}, rows[0])
	assert.Equal(t, "true", rows[1][1])
	assert.Equal(t, "false", rows[2][1])

	out, _ := s.OutVar(earnings.OutVarName)
	for i, row := range rows[1:] {
		got, err := strconv.ParseFloat(row[6], 64)
		require.NoError(t, err)
		assert.Equal(t, out.Vals[i], got, "case %d", i)
	}

	unrun, err := earnings.NewSim(sim.Config{Name: "unrun", NDraws: 5})
	require.NoError(t, err)
	assert.ErrorIs(t, ExportCSV(filepath.Join(t.TempDir(), "x.csv"), unrun), sim.ErrNotRun)
}
