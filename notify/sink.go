// Package notify implements the toast notification channel: a Sink interface
// the engine reports events to, a bounded-concurrency display queue, and a
// logging fallback used when no real sink is registered.
package notify

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tripquest/core"
)

// Notification is one queued toast.
type Notification struct {
	ID       string        `json:"id"`
	Kind     core.Kind     `json:"kind"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"` // zero means the sink default
}

// Sink accepts notifications for display. Implementations must not block and
// must tolerate being called from engine operations.
type Sink interface {
	Publish(Notification)
}

// FromEvent converts an engine event into a displayable notification.
func FromEvent(ev core.Event) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Kind:     ev.Kind,
		Message:  ev.Message,
		Duration: ev.Duration,
	}
}

// Icon maps an event kind to its display glyph.
func Icon(kind core.Kind) string {
	switch kind {
	case core.KindPoints:
		return "⭐"
	case core.KindBadge:
		return "🏆"
	case core.KindLevelUp:
		return "🎉"
	case core.KindSuccess:
		return "✅"
	case core.KindError:
		return "❌"
	case core.KindWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// LogSink is the degraded fallback: notifications go to the logger instead of
// a display surface.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink builds a logging sink; a nil logger falls back to slog.Default.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Publish(n Notification) {
	s.log.Info("notification", "kind", n.Kind, "message", n.Message)
}

var _ Sink = (*LogSink)(nil)
