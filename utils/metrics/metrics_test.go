package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIdempotent(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbctl_test_register_total",
		Help: "test counter",
	})

	Register(counter)
	Register(counter) // a second registration must not panic

	counter.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestRegisterConflictPanics(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbctl_test_conflict",
		Help: "test gauge",
	})
	conflicting := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbctl_test_conflict",
		Help: "same name, different type",
	})

	Register(gauge)
	assert.Panics(t, func() { Register(conflicting) })
}

func TestHandler(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbctl_test_handler_total",
		Help: "test counter",
	})
	Register(counter)
	counter.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arbctl_test_handler_total 1")
}
