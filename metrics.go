package main

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// matchMetrics is the small local Prometheus registry backing the metrics
// ambient concern (the loopRunning gauge reads 1 while any red or blue player
// is present and 0 otherwise). One
// registry is created per match actor and exposed through a Nakama RPC
// rather than a free-standing HTTP listener, since Nakama already owns the
// process's network surface (Domain Stack).
type matchMetrics struct {
	registry *prometheus.Registry

	loopRunning    prometheus.Gauge
	physicsSteps   prometheus.Counter
	stepDuration   prometheus.Histogram
	droppedMessages *prometheus.CounterVec
	goalsScored    prometheus.Counter
}

func newMatchMetrics(matchID string) *matchMetrics {
	registry := prometheus.NewRegistry()

	m := &matchMetrics{
		registry: registry,
		loopRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "soccer_loop_running",
			Help:        "1 if this match's simulation loop is currently considered active, else 0.",
			ConstLabels: prometheus.Labels{"match_id": matchID},
		}),
		physicsSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "soccer_physics_steps_total",
			Help:        "Number of fixed 16ms physics steps executed.",
			ConstLabels: prometheus.Labels{"match_id": matchID},
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "soccer_physics_step_duration_seconds",
			Help:        "Wall-clock duration of a single physics step.",
			ConstLabels: prometheus.Labels{"match_id": matchID},
			Buckets:     prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		droppedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "soccer_dropped_messages_total",
			Help:        "Inbound messages dropped, labeled by reason.",
			ConstLabels: prometheus.Labels{"match_id": matchID},
		}, []string{"reason"}),
		goalsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "soccer_goals_scored_total",
			Help:        "Goals scored across this match's lifetime.",
			ConstLabels: prometheus.Labels{"match_id": matchID},
		}),
	}

	registry.MustRegister(m.loopRunning, m.physicsSteps, m.stepDuration, m.droppedMessages, m.goalsScored)
	return m
}

func (m *matchMetrics) dropMessage(reason string) {
	if m == nil {
		return
	}
	m.droppedMessages.WithLabelValues(reason).Inc()
}

// renderText returns the registry's current state in Prometheus text
// exposition format, used by the soccer_metrics RPC handler.
func (m *matchMetrics) renderText() (string, error) {
	var sb strings.Builder
	mfs, err := m.registry.Gather()
	if err != nil {
		return "", err
	}
	enc := expfmt.NewEncoder(&sb, expfmt.FmtText)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
