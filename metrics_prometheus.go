package mqlite

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricHelp maps metric names to their exporter help strings.
var metricHelp = map[string]string{
	MetricActiveConnections:   "Number of currently active MQTT connections",
	MetricActiveSubscriptions: "Number of currently active topic subscriptions",
	MetricTotalConnections:    "Total number of connections accepted",
	MetricMessagesPublished:   "Total number of messages published",
	MetricMessagesReceived:    "Total number of messages received",
	MetricBytesReceived:       "Total number of bytes received",
	MetricBytesSent:           "Total number of bytes sent",
	MetricConnectionErrors:    "Total number of connection errors",
	MetricMessageSize:         "Distribution of message sizes in bytes",
}

// PrometheusMetrics is a Metrics sink backed by a prometheus registry.
type PrometheusMetrics struct {
	mu         sync.Mutex
	registry   *prometheus.Registry
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewPrometheusMetrics creates a sink with its own registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Registry returns the underlying prometheus registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry in the
// prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Counter returns the counter registered under name.
func (m *PrometheusMetrics) Counter(name string) Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Name: name,
			Help: metricHelp[name],
		})
		m.registry.MustRegister(c)
		m.counters[name] = c
	}
	return promCounter{c}
}

// Gauge returns the gauge registered under name.
func (m *PrometheusMetrics) Gauge(name string) Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name,
			Help: metricHelp[name],
		})
		m.registry.MustRegister(g)
		m.gauges[name] = g
	}
	return promGauge{g}
}

// Histogram returns the histogram registered under name.
func (m *PrometheusMetrics) Histogram(name string, buckets []float64) Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.histograms[name]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    metricHelp[name],
			Buckets: buckets,
		})
		m.registry.MustRegister(h)
		m.histograms[name] = h
	}
	return promHistogram{h}
}

type promCounter struct {
	c prometheus.Counter
}

func (p promCounter) Inc()              { p.c.Inc() }
func (p promCounter) Add(delta float64) { p.c.Add(delta) }

type promGauge struct {
	g prometheus.Gauge
}

func (p promGauge) Set(value float64) { p.g.Set(value) }

type promHistogram struct {
	h prometheus.Histogram
}

func (p promHistogram) Observe(value float64) { p.h.Observe(value) }
