package mqlite

import (
	"math"
	"sync"
)

// MemoryMetrics is an in-memory Metrics sink. Tests and embedders use
// it to read back what the broker observed.
type MemoryMetrics struct {
	mu         sync.Mutex
	counters   map[string]*memoryCounter
	gauges     map[string]*memoryGauge
	histograms map[string]*memoryHistogram
}

// NewMemoryMetrics creates an empty in-memory sink.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		counters:   make(map[string]*memoryCounter),
		gauges:     make(map[string]*memoryGauge),
		histograms: make(map[string]*memoryHistogram),
	}
}

// Counter returns the counter registered under name.
func (m *MemoryMetrics) Counter(name string) Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[name]
	if !ok {
		c = &memoryCounter{}
		m.counters[name] = c
	}
	return c
}

// Gauge returns the gauge registered under name.
func (m *MemoryMetrics) Gauge(name string) Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gauges[name]
	if !ok {
		g = &memoryGauge{}
		m.gauges[name] = g
	}
	return g
}

// Histogram returns the histogram registered under name.
func (m *MemoryMetrics) Histogram(name string, buckets []float64) Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.histograms[name]
	if !ok {
		h = &memoryHistogram{
			bounds: append([]float64(nil), buckets...),
			counts: make([]uint64, len(buckets)+1),
		}
		m.histograms[name] = h
	}
	return h
}

// CounterValue returns the current value of a counter, or 0 if it was
// never touched.
func (m *MemoryMetrics) CounterValue(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c.value()
	}
	return 0
}

// GaugeValue returns the current value of a gauge, or 0 if it was
// never touched.
func (m *MemoryMetrics) GaugeValue(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.gauges[name]; ok {
		return g.value()
	}
	return 0
}

// HistogramCount returns the number of observations of a histogram.
func (m *MemoryMetrics) HistogramCount(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h.count()
	}
	return 0
}

// HistogramSum returns the sum of observations of a histogram.
func (m *MemoryMetrics) HistogramSum(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h.sum()
	}
	return 0
}

type memoryCounter struct {
	mu sync.Mutex
	v  float64
}

func (c *memoryCounter) Inc() { c.Add(1) }

func (c *memoryCounter) Add(delta float64) {
	if delta < 0 || math.IsNaN(delta) {
		return
	}
	c.mu.Lock()
	c.v += delta
	c.mu.Unlock()
}

func (c *memoryCounter) value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

type memoryGauge struct {
	mu sync.Mutex
	v  float64
}

func (g *memoryGauge) Set(value float64) {
	g.mu.Lock()
	g.v = value
	g.mu.Unlock()
}

func (g *memoryGauge) value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v
}

type memoryHistogram struct {
	mu     sync.Mutex
	bounds []float64
	counts []uint64
	total  uint64
	sumV   float64
}

func (h *memoryHistogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := len(h.bounds)
	for i, bound := range h.bounds {
		if value <= bound {
			idx = i
			break
		}
	}
	h.counts[idx]++
	h.total++
	h.sumV += value
}

func (h *memoryHistogram) count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

func (h *memoryHistogram) sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sumV
}
