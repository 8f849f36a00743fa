package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinRatio/internal/domain/models"
	drepo "FinRatio/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal     *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	unavailableTotal *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	runsTotal        *prometheus.CounterVec
	lastRunTickers   prometheus.Gauge
	lastRunFailed    prometheus.Gauge
}

var _ drepo.Metrics = (*Recorder)(nil)

// New creates a Prometheus metrics recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finratio_snapshot_fetches_total",
				Help: "Snapshot fetches by ticker and outcome",
			},
			[]string{"ticker", "ok"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finratio_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		unavailableTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finratio_unavailable_metrics_total",
				Help: "Metrics that came out as N/A, by group and metric",
			},
			[]string{"group", "metric"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finratio_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finratio_runs_total",
				Help: "Completed pipeline runs by whether any ticker failed",
			},
			[]string{"partial"},
		),
		lastRunTickers: f.NewGauge(prometheus.GaugeOpts{
			Name: "finratio_last_run_tickers",
			Help: "Tickers configured for the last completed run",
		}),
		lastRunFailed: f.NewGauge(prometheus.GaugeOpts{
			Name: "finratio_last_run_failed_fetches",
			Help: "Failed fetches skipped in the last completed run",
		}),
	}
}

// RecordFetch records one snapshot fetch.
func (r *Recorder) RecordFetch(ticker string, ok bool) {
	r.fetchesTotal.WithLabelValues(ticker, strconv.FormatBool(ok)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordUnavailable counts a metric that could not be computed.
func (r *Recorder) RecordUnavailable(group models.Group, metric string) {
	r.unavailableTotal.WithLabelValues(string(group), metric).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(tickers int, failed int) {
	r.runsTotal.WithLabelValues(strconv.FormatBool(failed > 0)).Inc()
	r.lastRunTickers.Set(float64(tickers))
	r.lastRunFailed.Set(float64(failed))
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordFetch(string, bool)               {}
func (Nop) RecordError(string)                     {}
func (Nop) RecordUnavailable(models.Group, string) {}
func (Nop) RecordLatency(string, float64)          {}
func (Nop) RecordRun(int, int)                     {}
