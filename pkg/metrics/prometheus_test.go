package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FinRatio/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordFetch("AAPL", true)
	r.RecordFetch("AAPL", true)
	r.RecordFetch("MSFT", false)
	r.RecordError("fetch")
	r.RecordUnavailable(models.GroupSolvency, "Quick Ratio")
	r.RecordRun(5, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("AAPL", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("MSFT", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.unavailableTotal.WithLabelValues("solvency", "Quick Ratio")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("true")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.lastRunTickers))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastRunFailed))
}

func TestRecordersUseSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
