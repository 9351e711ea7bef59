package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	PushSent         prometheus.Counter
	PushFailed       prometheus.Counter
	SendLatency      prometheus.Histogram
	FanOutRecipients prometheus.Histogram
	SweepDeleted     prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PushSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_sent_total",
			Help: "Total number of push notifications accepted by the delivery API.",
		}),
		PushFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_failed_total",
			Help: "Total number of push deliveries rejected by the delivery API.",
		}),
		SendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "push_send_seconds",
			Help:    "Latency of a single delivery API call.",
			Buckets: prometheus.DefBuckets,
		}),
		FanOutRecipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fanout_recipients",
			Help:    "Number of resolved recipients per chat-message fan-out.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		SweepDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweep_deleted_total",
			Help: "Total number of stale notification requests removed by the sweeper.",
		}),
	}

	reg.MustRegister(
		m.PushSent,
		m.PushFailed,
		m.SendLatency,
		m.FanOutRecipients,
		m.SweepDeleted,
	)

	return m
}

// DispatchHooks returns the metric callbacks expected by dispatch.Hooks.
// Centralises the prometheus observation calls so the engine stays
// metrics-agnostic.
func (m *Metrics) DispatchHooks() (
	onSent func(latency time.Duration),
	onFailed func(),
	onFanOut func(recipients int),
) {
	onSent = func(latency time.Duration) {
		m.PushSent.Inc()
		m.SendLatency.Observe(latency.Seconds())
	}
	onFailed = func() {
		m.PushFailed.Inc()
	}
	onFanOut = func(recipients int) {
		m.FanOutRecipients.Observe(float64(recipients))
	}
	return
}

// SweepHook returns the callback the sweeper invokes after a batch delete.
func (m *Metrics) SweepHook() func(count int) {
	return func(count int) {
		m.SweepDeleted.Add(float64(count))
	}
}
