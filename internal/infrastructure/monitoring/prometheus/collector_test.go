package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestRegisterCounter_IncAndScrape(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("widgets_total", "widgets", "kind")
	vec.WithLabelValues("round").Inc()
	vec.WithLabelValues("round").Add(2)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_widgets_total{kind="round"} 3`)
}

func TestRegister_IsIdempotent(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterCounter("dupe_total", "dupe")
	second := c.RegisterCounter("dupe_total", "dupe")

	first.WithLabelValues().Inc()
	second.WithLabelValues().Inc()

	assert.Contains(t, scrapeMetrics(t, c), "test_unit_dupe_total 2")
}

func TestRegister_TypeMismatchReturnsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("shared", "shared")
	g := c.RegisterGauge("shared", "shared")

	assert.IsType(t, noopGaugeVec{}, g)
	assert.NotPanics(t, func() { g.WithLabelValues().Set(4) })
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterGauge("level", "level").WithLabelValues().Set(7)
	c.RegisterHistogram("latency_seconds", "latency", nil).WithLabelValues().Observe(0.2)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "test_unit_level 7")
	assert.Contains(t, out, "test_unit_latency_seconds_count 1")
}

func TestMustRegisterAndUnregister(t *testing.T) {
	c := newTestCollector(t)
	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "extra_total", Help: "extra"})
	c.MustRegister(extra)
	assert.True(t, c.Unregister(extra))
}

func TestNoopCollector(t *testing.T) {
	c := NewNoopCollector()
	assert.NotPanics(t, func() {
		c.RegisterCounter("a", "a").WithLabelValues("x").Inc()
		c.RegisterGauge("b", "b").WithLabelValues().Dec()
		c.RegisterHistogram("c", "c", nil).WithLabelValues().Observe(1)
	})
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("op_seconds", "op", nil)
	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()

	assert.Greater(t, d, time.Duration(0))
	assert.Contains(t, scrapeMetrics(t, c), "test_unit_op_seconds_count 1")
}

//Personal.AI order the ending
