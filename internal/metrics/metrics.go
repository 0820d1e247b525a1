package metrics

import (
	"net/http"

	"github.com/jwebster45206/manor-engine/pkg/dispatch"
	"github.com/jwebster45206/manor-engine/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	eventsTotal    *prometheus.CounterVec
	intentsTotal   *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	puzzlesSolved  *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manor_store_events_total",
				Help: "Total number of store events emitted, by type.",
			},
			[]string{"type"},
		),
		intentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manor_intents_total",
				Help: "Total number of player intents handled, by kind and outcome status.",
			},
			[]string{"kind", "status"},
		),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "manor_sessions_active",
			Help: "Number of sessions held in memory.",
		}),
		puzzlesSolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manor_puzzles_solved_total",
				Help: "Total number of puzzles solved, by puzzle id.",
			},
			[]string{"puzzle"},
		),
	}
}

// Listener counts store events.
func (m *Metrics) Listener() state.Listener {
	return func(e state.Event) {
		m.eventsTotal.WithLabelValues(string(e.Type)).Inc()
		if e.Type == state.EventPuzzleSolved {
			m.puzzlesSolved.WithLabelValues(e.Puzzle).Inc()
		}
	}
}

// ObserveIntent records the outcome of a hotspot or puzzle intent.
func (m *Metrics) ObserveIntent(kind string, status dispatch.Status) {
	m.intentsTotal.WithLabelValues(kind, string(status)).Inc()
}

// SessionOpened counts a session created or hydrated into memory.
func (m *Metrics) SessionOpened() { m.sessionsActive.Inc() }

// SessionClosed counts a session evicted from memory.
func (m *Metrics) SessionClosed() { m.sessionsActive.Dec() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
