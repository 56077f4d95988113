package analytics

import (
	"github.com/prometheus/client_golang/prometheus"

	"tripquest/core"
)

// Metrics exposes engine activity as Prometheus collectors. It implements
// Hook, so attaching it to the event bus is enough to keep the counters live.
type Metrics struct {
	pointsAwarded  prometheus.Counter
	badgesUnlocked prometheus.Counter
	levelUps       prometheus.Counter
	eventsByKind   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripquest",
			Name:      "points_awarded_total",
			Help:      "Total points awarded, streak multiplier included.",
		}),
		badgesUnlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripquest",
			Name:      "badges_unlocked_total",
			Help:      "Total badge unlocks.",
		}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripquest",
			Name:      "level_ups_total",
			Help:      "Total level threshold crossings.",
		}),
		eventsByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripquest",
			Name:      "events_total",
			Help:      "Engine events emitted, by kind.",
		}, []string{"kind"}),
	}
}

// Register adds all collectors to the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.pointsAwarded, m.badgesUnlocked, m.levelUps, m.eventsByKind} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) OnEvent(e core.Event) {
	m.eventsByKind.WithLabelValues(string(e.Kind)).Inc()
	switch e.Kind {
	case core.KindPoints:
		m.pointsAwarded.Add(float64(e.Amount))
	case core.KindBadge:
		m.badgesUnlocked.Inc()
	case core.KindLevelUp:
		m.levelUps.Inc()
	}
}

var _ Hook = (*Metrics)(nil)
