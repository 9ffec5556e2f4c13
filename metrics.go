package mqlite

// Metrics is the sink the broker pushes observations into. The broker
// calls it from the event loop only; implementations must be safe for
// concurrent use so an exporter can read them from other goroutines.
type Metrics interface {
	// Counter returns the counter registered under name.
	Counter(name string) Counter

	// Gauge returns the gauge registered under name.
	Gauge(name string) Gauge

	// Histogram returns the histogram registered under name, creating
	// it with the given bucket upper bounds.
	Histogram(name string, buckets []float64) Histogram
}

// Counter is a monotonically increasing value.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()

	// Add adds delta to the counter.
	Add(delta float64)
}

// Gauge is a value that can go up and down.
type Gauge interface {
	// Set sets the gauge.
	Set(value float64)
}

// Histogram tracks the distribution of observed values.
type Histogram interface {
	// Observe records a value.
	Observe(value float64)
}

// Metric names, matching the exporter's time series.
const (
	MetricActiveConnections   = "mqtt_active_connections"
	MetricActiveSubscriptions = "mqtt_active_subscriptions"
	MetricTotalConnections    = "mqtt_total_connections"
	MetricMessagesPublished   = "mqtt_messages_published_total"
	MetricMessagesReceived    = "mqtt_messages_received_total"
	MetricBytesReceived       = "mqtt_bytes_received_total"
	MetricBytesSent           = "mqtt_bytes_sent_total"
	MetricConnectionErrors    = "mqtt_connection_errors_total"
	MetricMessageSize         = "mqtt_message_size_bytes"
)

// MessageSizeBuckets are the histogram bucket upper bounds for
// MetricMessageSize, in bytes.
var MessageSizeBuckets = []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000}

// BrokerMetrics binds the broker's observations to a Metrics sink.
type BrokerMetrics struct {
	activeConnections   Gauge
	activeSubscriptions Gauge
	totalConnections    Counter
	messagesPublished   Counter
	messagesReceived    Counter
	bytesReceived       Counter
	bytesSent           Counter
	connectionErrors    Counter
	messageSize         Histogram
}

// NewBrokerMetrics registers the broker's metrics on m.
func NewBrokerMetrics(m Metrics) *BrokerMetrics {
	return &BrokerMetrics{
		activeConnections:   m.Gauge(MetricActiveConnections),
		activeSubscriptions: m.Gauge(MetricActiveSubscriptions),
		totalConnections:    m.Counter(MetricTotalConnections),
		messagesPublished:   m.Counter(MetricMessagesPublished),
		messagesReceived:    m.Counter(MetricMessagesReceived),
		bytesReceived:       m.Counter(MetricBytesReceived),
		bytesSent:           m.Counter(MetricBytesSent),
		connectionErrors:    m.Counter(MetricConnectionErrors),
		messageSize:         m.Histogram(MetricMessageSize, MessageSizeBuckets),
	}
}

// SetActiveConnections sets the active connection gauge.
func (b *BrokerMetrics) SetActiveConnections(n int) {
	b.activeConnections.Set(float64(n))
}

// SetActiveSubscriptions sets the active subscription gauge.
func (b *BrokerMetrics) SetActiveSubscriptions(n int) {
	b.activeSubscriptions.Set(float64(n))
}

// IncTotalConnections counts an accepted connection.
func (b *BrokerMetrics) IncTotalConnections() {
	b.totalConnections.Inc()
}

// IncMessagesPublished counts one forwarded copy of a message.
func (b *BrokerMetrics) IncMessagesPublished() {
	b.messagesPublished.Inc()
}

// IncMessagesReceived counts an inbound publish.
func (b *BrokerMetrics) IncMessagesReceived() {
	b.messagesReceived.Inc()
}

// IncConnectionErrors counts a protocol or transport failure.
func (b *BrokerMetrics) IncConnectionErrors() {
	b.connectionErrors.Inc()
}

// IncBytesReceived counts inbound bytes.
func (b *BrokerMetrics) IncBytesReceived(n int) {
	b.bytesReceived.Add(float64(n))
}

// IncBytesSent counts outbound bytes.
func (b *BrokerMetrics) IncBytesSent(n int) {
	b.bytesSent.Add(float64(n))
}

// ObserveMessageSize records an inbound publish payload size.
func (b *BrokerMetrics) ObserveMessageSize(n int) {
	b.messageSize.Observe(float64(n))
}

// NoOpMetrics is a Metrics sink that discards everything.
type NoOpMetrics struct{}

// Counter returns a no-op counter.
func (NoOpMetrics) Counter(_ string) Counter { return noOpMetric{} }

// Gauge returns a no-op gauge.
func (NoOpMetrics) Gauge(_ string) Gauge { return noOpMetric{} }

// Histogram returns a no-op histogram.
func (NoOpMetrics) Histogram(_ string, _ []float64) Histogram { return noOpMetric{} }

type noOpMetric struct{}

func (noOpMetric) Inc()              {}
func (noOpMetric) Add(_ float64)     {}
func (noOpMetric) Set(_ float64)     {}
func (noOpMetric) Observe(_ float64) {}
