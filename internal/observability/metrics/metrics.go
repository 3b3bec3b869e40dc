package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the reply pipeline.
type PipelineMetrics struct {
	repliesTotal    *prometheus.CounterVec
	guardDenied     *prometheus.CounterVec
	fallbackTotal   *prometheus.CounterVec
	pipelineLatency *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealership",
			Subsystem: "pipeline",
			Name:      "replies_total",
			Help:      "Total reply pipeline runs",
		}, []string{"strategy", "outcome"}),
		guardDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealership",
			Subsystem: "pipeline",
			Name:      "guard_denied_total",
			Help:      "Total pipeline runs skipped by the reply guard",
		}, []string{"reason"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealership",
			Subsystem: "pipeline",
			Name:      "fallback_total",
			Help:      "Total fallback-chain activations by stage",
		}, []string{"stage"}),
		pipelineLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dealership",
			Subsystem: "pipeline",
			Name:      "latency_seconds",
			Help:      "Latency of full reply pipeline runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.repliesTotal, m.guardDenied, m.fallbackTotal, m.pipelineLatency)
	return m
}

func (m *PipelineMetrics) ObserveReply(strategy, outcome string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(strategy, outcome).Inc()
}

func (m *PipelineMetrics) ObserveGuardDenied(reason string) {
	if m == nil {
		return
	}
	m.guardDenied.WithLabelValues(reason).Inc()
}

func (m *PipelineMetrics) ObserveFallback(stage string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(stage).Inc()
}

func (m *PipelineMetrics) ObserveLatency(strategy string, seconds float64) {
	if m == nil {
		return
	}
	m.pipelineLatency.WithLabelValues(strategy).Observe(seconds)
}
