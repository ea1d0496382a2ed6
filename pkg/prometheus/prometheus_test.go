package prometheus

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(&Config{Namespace: "test"})
	require.NoError(t, err)
	return c
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, (&Config{}).Validate(), ErrInvalidConfig)

	_, err := New(&Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewCounter(t *testing.T) {
	c := newTestClient(t)

	counter, err := c.NewCounter("requests_total", "requests", []string{"result"})
	require.NoError(t, err)
	counter.WithLabelValues("ok").Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(counter.WithLabelValues("ok")))

	_, err = c.NewCounter("requests_total", "requests", []string{"result"})
	assert.ErrorIs(t, err, ErrMetricExists)
}

func TestNewGaugeAndHistogram(t *testing.T) {
	c := newTestClient(t)

	gauge := c.MustNewGauge("active", "active", nil)
	gauge.WithLabelValues().Inc()
	gauge.WithLabelValues().Inc()
	gauge.WithLabelValues().Dec()
	assert.Equal(t, 1.0, testutil.ToFloat64(gauge.WithLabelValues()))

	hist := c.MustNewHistogram("latency_seconds", "latency", []string{"cmd"}, nil)
	hist.WithLabelValues("book").Observe(0.01)
	assert.Equal(t, 1, testutil.CollectAndCount(hist))

	assert.Panics(t, func() { c.MustNewGauge("active", "active", nil) })
}

func TestClientClose(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.Close())
	assert.True(t, c.IsClosed())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)

	_, err := c.NewCounter("late", "late", nil)
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.ErrorIs(t, c.RegisterCollector(prometheus.NewGauge(prometheus.GaugeOpts{Name: "x"})), ErrClientClosed)
}

func TestHandler(t *testing.T) {
	c := newTestClient(t)
	c.MustNewCounter("hits_total", "hits", nil).WithLabelValues().Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "test_hits_total 1")
}

func TestNewGaugeFunc(t *testing.T) {
	c := newTestClient(t)
	n := 2
	require.NoError(t, c.NewGaugeFunc("held", "held", func() float64 { return float64(n) }))
	assert.ErrorIs(t, c.NewGaugeFunc("held", "held", func() float64 { return 0 }), ErrMetricExists)

	n = 5
	count, err := testutil.GatherAndCount(c.Registry(), "test_held")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "test_held 5")
}
