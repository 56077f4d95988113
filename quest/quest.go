// Package quest is the batteries-included entry point: it assembles the
// progress engine with storage, notifications, realtime, webhooks and metrics
// in one call.
package quest

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	mem "tripquest/adapters/memory"
	"tripquest/analytics"
	"tripquest/core"
	"tripquest/engine"
	"tripquest/integrations/webhook"
	"tripquest/notify"
	"tripquest/realtime"
)

// Option configures the quest service builder.
type Option func(*builder)

type builder struct {
	storage    engine.Storage
	mode       engine.DispatchMode
	hub        *realtime.Hub
	sink       notify.Sink
	webhooks   []string
	registry   *prometheus.Registry
	log        *slog.Logger
	engineOpts []engine.Option
}

// WithStorage sets the persistence adapter. Defaults to in-memory.
func WithStorage(s engine.Storage) Option { return func(b *builder) { b.storage = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(b *builder) { b.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(b *builder) { b.hub = h } }

// WithNotifications sets the toast sink receiving every engine event.
func WithNotifications(s notify.Sink) Option { return func(b *builder) { b.sink = s } }

// WithWebhooks posts every engine event to the given endpoints.
func WithWebhooks(endpoints ...string) Option {
	return func(b *builder) { b.webhooks = append(b.webhooks, endpoints...) }
}

// WithMetrics registers Prometheus collectors on the given registry and keeps
// them updated from the event stream.
func WithMetrics(reg *prometheus.Registry) Option { return func(b *builder) { b.registry = reg } }

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option { return func(b *builder) { b.log = log } }

// WithEngineOptions passes raw engine options through for tuning knobs the
// facade does not cover (catalog, levels, award sizes, clock).
func WithEngineOptions(opts ...engine.Option) Option {
	return func(b *builder) { b.engineOpts = append(b.engineOpts, opts...) }
}

// New builds a configured progress engine. Defaults: in-memory storage, sync
// dispatch, no notifications.
func New(opts ...Option) *engine.Engine {
	b := &builder{mode: engine.DispatchSync}
	for _, o := range opts {
		o(b)
	}
	if b.storage == nil {
		b.storage = mem.New()
	}

	engineOpts := []engine.Option{engine.WithDispatchMode(b.mode)}
	if b.sink != nil {
		engineOpts = append(engineOpts, engine.WithSink(b.sink))
	}
	if b.log != nil {
		engineOpts = append(engineOpts, engine.WithLogger(b.log))
	}
	engineOpts = append(engineOpts, b.engineOpts...)

	eng := engine.New(b.storage, engineOpts...)

	if b.hub != nil {
		eng.SubscribeAll(func(ctx context.Context, e core.Event) {
			b.hub.Broadcast(ctx, e)
		})
	}
	if len(b.webhooks) > 0 {
		sink := webhook.New(b.webhooks)
		analytics.Attach(eng, sink)
	}
	if b.registry != nil {
		m := analytics.NewMetrics()
		if err := m.Register(b.registry); err == nil {
			analytics.Attach(eng, m)
		}
	}
	return eng
}
