package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics counts consumer outcomes. A nil *ConsumerMetrics records
// nothing.
type ConsumerMetrics struct {
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	labels := []string{"topic", "consumer_group"}
	m := &ConsumerMetrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_processed_total",
			Help: "Messages handled successfully",
		}, labels),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_failed_total",
			Help: "Messages that exhausted handler attempts",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kafka_consumer_processing_duration_seconds",
			Help:    "Handler time per message including retries",
			Buckets: prometheus.DefBuckets,
		}, labels),
	}
	reg.MustRegister(m.processed, m.failed, m.duration)
	return m
}

func (m *ConsumerMetrics) observe(topic, group string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(topic, group).Observe(d.Seconds())
	if err != nil {
		m.failed.WithLabelValues(topic, group).Inc()
		return
	}
	m.processed.WithLabelValues(topic, group).Inc()
}
