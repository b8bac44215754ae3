package mqcodec

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK        = "ok"
	outcomeTruncated = "truncated"
	outcomeFailed    = "failed"
)

// Metrics holds the codec's prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	Encoded  *prometheus.CounterVec
	Decoded  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the codec collectors and registers them with reg when
// reg is not nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Encoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "messages_encoded_total",
			Help:      "Messages encoded, by section and outcome",
		}, []string{"section", "outcome"}),

		Decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "messages_decoded_total",
			Help:      "Messages decoded, by detected section and outcome",
		}, []string{"section", "outcome"}),

		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "operation_duration_seconds",
			Help:      "Encode and decode latency",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"operation"}),
	}

	if reg != nil {
		reg.MustRegister(m.Encoded, m.Decoded, m.Duration)
	}
	return m
}

func (m *Metrics) observeEncode(section Section, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Encoded.WithLabelValues(string(section), outcome).Inc()
	m.Duration.WithLabelValues("encode").Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeDecode(section Section, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Decoded.WithLabelValues(string(section), outcome).Inc()
	m.Duration.WithLabelValues("decode").Observe(time.Since(start).Seconds())
}
