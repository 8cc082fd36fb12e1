package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality: no per-match or per-session labels,
// since both are unbounded over a process lifetime.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tickforge_tick_duration_seconds",
		Help:    "Time spent advancing one match by one tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	activeMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tickforge_active_matches",
		Help: "Current number of registered matches",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tickforge_active_sessions",
		Help: "Current number of sessions across all matches",
	})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickforge_events_dropped_total",
		Help: "Event polls whose cursor had fallen behind the oldest retained entry",
	})

	actionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickforge_actions_rejected_total",
		Help: "Actions rejected at submission time",
	}, []string{"reason"}) // bounded: "invalid_session", "terminated", "rate_limit"
)

// RecordTick records one tick's wall-clock duration.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// SetActiveMatches updates the active-match gauge.
func SetActiveMatches(n int) { activeMatches.Set(float64(n)) }

// SetActiveSessions updates the active-session gauge.
func SetActiveSessions(n int) { activeSessions.Set(float64(n)) }

// RecordEventDropped increments the dropped-event counter. PollEvents
// calls it once per poll whose cursor is older than the oldest retained
// event; it counts such polls, not the number of entries lost.
func RecordEventDropped() { eventsDropped.Inc() }

// RecordActionRejected increments the rejected-action counter. reason
// must be one of: "invalid_session", "terminated", "rate_limit".
func RecordActionRejected(reason string) { actionsRejected.WithLabelValues(reason).Inc() }
