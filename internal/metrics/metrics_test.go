package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveCase(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorderWithRegistry(registry, registry)

	r.ObserveCase(time.Microsecond, nil)
	r.ObserveCase(time.Microsecond, nil)
	r.ObserveCase(time.Microsecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.casesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.casesTotal.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.caseDuration))
}

func TestRecorder_ObserveRun(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorderWithRegistry(registry, registry)

	r.ObserveRun(1001, 2*time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.runDuration))
	assert.Equal(t, 1001.0, testutil.ToFloat64(r.runCases))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(10, time.Second, nil)

	path := filepath.Join(t.TempDir(), "mc_earnings.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mc_earnings_runs_total")
	assert.Contains(t, string(data), "mc_earnings_last_run_cases 10")
}

func TestRecorder_WriteTextfileWithoutGatherer(t *testing.T) {
	r := NewRecorderWithRegistry(prometheus.NewRegistry(), nil)
	assert.Error(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}
