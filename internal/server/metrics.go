package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"llamaconv/pkg/conversion"
)

type metrics struct {
	registry     *prometheus.Registry
	conversions  *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	running      prometheus.Gauge
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		registry: registry,
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llamaconv",
			Name:      "conversions_total",
			Help:      "Conversions that stopped, by final state",
		}, []string{"state"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "llamaconv",
			Name:      "step_duration_seconds",
			Help:      "Time spent in each conversion step",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"step"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "llamaconv",
			Name:      "conversions_running",
			Help:      "Conversions currently running",
		}),
	}

	registry.MustRegister(
		m.conversions,
		m.stepDuration,
		m.running,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) conversionStarted() {
	m.running.Inc()
}

func (m *metrics) conversionStopped(pipeline *conversion.Pipeline) {
	m.running.Dec()
	m.conversions.WithLabelValues(pipeline.State().String()).Inc()
	for _, step := range pipeline.Steps() {
		if step.State == conversion.StepFinished {
			m.stepDuration.WithLabelValues(string(step.Type)).Observe(step.Duration.Seconds())
		}
	}
}
