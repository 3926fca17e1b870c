package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks simulation progress as Prometheus metrics.
type Recorder struct {
	gatherer prometheus.Gatherer

	casesTotal   *prometheus.CounterVec
	caseDuration prometheus.Histogram
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Gauge
	runCases     prometheus.Gauge
}

// NewRecorder creates a recorder registered on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	return NewRecorderWithRegistry(reg, reg)
}

// NewRecorderWithRegistry creates a recorder with a custom registry. gatherer is what
// WriteTextfile reads from and may be nil when the caller exports metrics some other way.
func NewRecorderWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	r := &Recorder{
		gatherer: gatherer,

		casesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mc_earnings_cases_total",
			Help: "Total number of simulation cases evaluated",
		}, []string{"status"}),
		caseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mc_earnings_case_duration_seconds",
			Help:    "Time spent evaluating a single case",
			Buckets: prometheus.ExponentialBuckets(1e-7, 10, 8),
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mc_earnings_runs_total",
			Help: "Total number of simulation runs by status",
		}, []string{"status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mc_earnings_last_run_duration_seconds",
			Help: "Wall time of the last simulation run",
		}),
		runCases: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mc_earnings_last_run_cases",
			Help: "Number of cases in the last simulation run",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(r.casesTotal)
		registerer.MustRegister(r.caseDuration)
		registerer.MustRegister(r.runsTotal)
		registerer.MustRegister(r.runDuration)
		registerer.MustRegister(r.runCases)
	}
	return r
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveCase records one evaluated case.
func (r *Recorder) ObserveCase(d time.Duration, err error) {
	r.casesTotal.WithLabelValues(status(err)).Inc()
	r.caseDuration.Observe(d.Seconds())
}

// ObserveRun records a finished (or failed) simulation run.
func (r *Recorder) ObserveRun(ncases int, d time.Duration, err error) {
	r.runsTotal.WithLabelValues(status(err)).Inc()
	r.runDuration.Set(d.Seconds())
	r.runCases.Set(float64(ncases))
}

// WriteTextfile dumps the metrics in the text exposition format, for the node exporter
// textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r.gatherer == nil {
		return fmt.Errorf("metrics: no gatherer to write %s from", path)
	}
	if err := prometheus.WriteToTextfile(path, r.gatherer); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
