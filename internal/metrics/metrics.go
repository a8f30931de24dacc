// Package metrics reports pipeline stage activity to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "cipherdrop"
	subsystem = "pipeline"

	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

type Metrics struct {
	stageDuration   *prometheus.HistogramVec
	stageFailures   *prometheus.CounterVec
	stageRetries    *prometheus.CounterVec
	transfersActive *prometheus.GaugeVec
}

// MustNewMetrics registers the pipeline collectors on reg, reusing collectors
// that are already registered under the same names. Other registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Metrics{
		stageDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each transfer stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 9),
		}, []string{"direction", "stage", "status"})),
		stageFailures: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_failures_total",
			Help:      "Stage executions that ended the transfer in the error state.",
		}, []string{"direction", "stage", "reason"})),
		stageRetries: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_retries_total",
			Help:      "Times a stage was re-entered after a transient failure.",
		}, []string{"direction", "stage"})),
		transfersActive: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transfers_active",
			Help:      "Transfers currently in a non-terminal state.",
		}, []string{"direction"})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}

		panic(err)
	}

	return c
}

func (m *Metrics) ObserveStage(direction, stage, status string, d time.Duration) {
	if m == nil {
		return
	}

	m.stageDuration.WithLabelValues(direction, stage, status).Observe(d.Seconds())
}

func (m *Metrics) IncFailure(direction, stage, reason string) {
	if m == nil {
		return
	}

	m.stageFailures.WithLabelValues(direction, stage, reason).Inc()
}

func (m *Metrics) IncRetry(direction, stage string) {
	if m == nil {
		return
	}

	m.stageRetries.WithLabelValues(direction, stage).Inc()
}

// TransferStarted marks a transfer active and returns the func that marks it done.
func (m *Metrics) TransferStarted(direction string) func() {
	if m == nil {
		return func() {}
	}

	g := m.transfersActive.WithLabelValues(direction)
	g.Inc()

	return g.Dec
}
