package distribution

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "airdrop"

// Metrics are the distribution metrics exported to Prometheus. A nil *Metrics
// records nothing.
type Metrics struct {
	runs       *prometheus.CounterVec
	state      prometheus.Gauge
	recipients prometheus.Histogram
	duration   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Distribution runs by final status and failure kind.",
		}, []string{"status", "kind"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "orchestrator_state",
			Help:      "Current orchestrator state (0 idle ... 9 failed, 10 unsettled).",
		}),
		recipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_recipients",
			Help:      "Recipients per submitted batch.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 500},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of distribution runs including human approval.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.state, m.recipients, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register distribution metrics")
		}
	}

	return m, nil
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}

func (m *Metrics) observeRun(o *Outcome) {
	if m == nil || o == nil {
		return
	}

	kind := ""
	if o.Failure != nil {
		kind = o.Failure.Kind.String()
	}

	m.runs.WithLabelValues(o.Status.String(), kind).Inc()
	m.duration.Observe(o.FinishedAt.Sub(o.StartedAt).Seconds())
}

func (m *Metrics) observeSubmission(recipients int) {
	if m == nil {
		return
	}
	m.recipients.Observe(float64(recipients))
}
