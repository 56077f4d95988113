package core

import (
	"fmt"
	"time"
)

// Kind classifies a notification event.
type Kind string

const (
	KindPoints  Kind = "points"
	KindBadge   Kind = "badge"
	KindLevelUp Kind = "level_up"
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// AllKinds lists every event kind the engine can emit.
func AllKinds() []Kind {
	return []Kind{KindPoints, KindBadge, KindLevelUp, KindSuccess, KindInfo, KindError, KindWarning}
}

// Event is an immutable notification emitted by the engine. Message is
// pre-formatted for display; structured fields carry the raw values for
// subscribers that want them.
type Event struct {
	Kind       Kind          `json:"kind"`
	Time       time.Time     `json:"time"`
	Message    string        `json:"message"`
	Amount     int           `json:"amount,omitempty"`
	Multiplier float64       `json:"multiplier,omitempty"`
	Badge      string        `json:"badge,omitempty"`
	Level      string        `json:"level,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"` // display hint; zero means sink default
}

// NewPointsEvent formats a points award, annotating the multiplier when a
// streak bonus applied.
func NewPointsEvent(amount int, multiplier float64, reason string) Event {
	msg := fmt.Sprintf("+%d points! %s", amount, reason)
	if multiplier > 1 {
		msg = fmt.Sprintf("+%d points! (%.1fx streak bonus) %s", amount, multiplier, reason)
	}
	return Event{Kind: KindPoints, Time: time.Now().UTC(), Message: msg, Amount: amount, Multiplier: multiplier}
}

// NewBadgeEvent announces a badge unlock.
func NewBadgeEvent(b Badge) Event {
	return Event{
		Kind:    KindBadge,
		Time:    time.Now().UTC(),
		Message: fmt.Sprintf("%s Badge Unlocked: %s!", b.Icon, b.Name),
		Badge:   b.ID,
	}
}

// NewLevelUpEvent announces a level change.
func NewLevelUpEvent(l Level) Event {
	return Event{
		Kind:    KindLevelUp,
		Time:    time.Now().UTC(),
		Message: fmt.Sprintf("%s Level Up! You're now a %s!", l.Icon, l.Name),
		Level:   l.Name,
	}
}

// NewToast builds a plain informational event of the given kind.
func NewToast(kind Kind, message string) Event {
	return Event{Kind: kind, Time: time.Now().UTC(), Message: message}
}
