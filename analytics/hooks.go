// Package analytics rolls points history up into daily and weekly buckets,
// ranks award reasons, and feeds Prometheus collectors off the event bus.
package analytics

import (
	"context"

	"tripquest/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// Bridge fans one event out to multiple hooks.
type Bridge struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *Bridge { return &Bridge{hooks: hooks} }

func (b *Bridge) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// Bus is the slice of the engine event bus that hooks attach to.
type Bus interface {
	SubscribeAll(handler func(context.Context, core.Event)) func()
}

// Attach subscribes a hook to every event kind on the bus. The returned func
// detaches it again.
func Attach(bus Bus, h Hook) func() {
	return bus.SubscribeAll(func(_ context.Context, e core.Event) {
		h.OnEvent(e)
	})
}
