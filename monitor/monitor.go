// Package monitor exposes Prometheus metrics for games in progress.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Rolls          prometheus.Counter
	PassedTurns    prometheus.Counter
	Moves          *prometheus.CounterVec
	Captures       prometheus.Counter
	Wins           *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	RollLatency    prometheus.Histogram
}

// Monitor owns a private registry so several servers (and tests) can coexist in one process.
type Monitor struct {
	registry *prometheus.Registry
	metrics  *Metrics
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Rolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rolls_total",
			Help:      "Total number of dice rolls",
		}),
		PassedTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passed_turns_total",
			Help:      "Rolls that offered no move and passed the turn",
		}),
		Moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Applied moves by kind",
		}, []string{"kind"}),
		Captures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Pegs sent home by a capture",
		}),
		Wins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wins_total",
			Help:      "Finished games by winning colour",
		}, []string{"player"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of sessions held in memory",
		}),
		RollLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "roll_latency_seconds",
			Help:      "Time spent enumerating moves for a roll",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 10),
		}),
	}
}

func NewMonitor(namespace string) *Monitor {
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		metrics:  NewMetrics(namespace),
	}
	m.registry.MustRegister(
		m.metrics.Rolls,
		m.metrics.PassedTurns,
		m.metrics.Moves,
		m.metrics.Captures,
		m.metrics.Wins,
		m.metrics.ActiveSessions,
		m.metrics.RollLatency,
	)
	return m
}

// Metrics gives direct access to the collectors.
func (m *Monitor) Metrics() *Metrics { return m.metrics }

// Handler serves the registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) ObserveRoll(passed bool, seconds float64) {
	m.metrics.Rolls.Inc()
	if passed {
		m.metrics.PassedTurns.Inc()
	}
	m.metrics.RollLatency.Observe(seconds)
}

func (m *Monitor) ObserveMove(kind string, captured bool) {
	m.metrics.Moves.WithLabelValues(kind).Inc()
	if captured {
		m.metrics.Captures.Inc()
	}
}

func (m *Monitor) ObserveWin(player string) {
	m.metrics.Wins.WithLabelValues(player).Inc()
}

func (m *Monitor) SetActiveSessions(count int) {
	m.metrics.ActiveSessions.Set(float64(count))
}
