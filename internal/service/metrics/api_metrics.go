package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finratio",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of ratio API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finratio",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by ratio API endpoint",
		},
		[]string{"endpoint"},
	)

	TickerCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finratio",
			Subsystem: "api",
			Name:      "ticker_cache_total",
			Help:      "On-demand ticker lookups by cache result",
		},
		[]string{"result"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, TickerCacheHits)
	})
}
