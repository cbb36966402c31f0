package prometheus

import (
	"net/http"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const metricsPrefix = "coresched_"

type metricsRecorder struct {
	dispatches  *prometheus.CounterVec
	preemptions *prometheus.CounterVec
	rotations   prometheus.Counter
	finished    *prometheus.CounterVec
	turnaround  *prometheus.HistogramVec
	queueDepth  *prometheus.GaugeVec
	log         *zap.Logger
}

// NewMetricsRecorder registers the simulation metrics on reg
func NewMetricsRecorder(reg prometheus.Registerer, log *zap.Logger) port.MetricsRecorder {
	factory := promauto.With(reg)
	return &metricsRecorder{
		dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "dispatches_total",
				Help: "Number of jobs placed on a core",
			},
			[]string{"policy"},
		),
		preemptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "preemptions_total",
				Help: "Number of running jobs evicted by a stronger arrival",
			},
			[]string{"policy"},
		),
		rotations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: metricsPrefix + "quantum_rotations_total",
				Help: "Number of round robin quantum expiries that rotated the running job out",
			},
		),
		finished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "jobs_finished_total",
				Help: "Number of jobs that completed",
			},
			[]string{"policy"},
		),
		turnaround: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricsPrefix + "turnaround_ticks",
				Help:    "Turnaround time of finished jobs in logical ticks",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"policy"},
		),
		queueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricsPrefix + "queue_depth",
				Help: "Jobs in the waiting queue after the latest decision",
			},
			[]string{"policy"},
		),
		log: log,
	}
}

func (m *metricsRecorder) Dispatched(policy domain.Policy) {
	m.dispatches.WithLabelValues(string(policy)).Inc()
}

func (m *metricsRecorder) Preempted(policy domain.Policy) {
	m.preemptions.WithLabelValues(string(policy)).Inc()
}

// Rotated only happens under round robin, so the counter carries no policy label
func (m *metricsRecorder) Rotated(policy domain.Policy) {
	if policy != domain.PolicyRR {
		m.log.Warn("Quantum rotation reported for a non round robin policy", zap.String("policy", string(policy)))
	}
	m.rotations.Inc()
}

func (m *metricsRecorder) Finished(policy domain.Policy, turnaround int) {
	m.finished.WithLabelValues(string(policy)).Inc()
	m.turnaround.WithLabelValues(string(policy)).Observe(float64(turnaround))
}

func (m *metricsRecorder) QueueDepth(policy domain.Policy, depth int) {
	m.queueDepth.WithLabelValues(string(policy)).Set(float64(depth))
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
