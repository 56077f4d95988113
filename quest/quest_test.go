package quest_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	jsonfile "tripquest/adapters/jsonfile"
	"tripquest/core"
	"tripquest/engine"
	"tripquest/notify"
	"tripquest/quest"
	"tripquest/realtime"
)

func daylight() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

type recordingSink struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (r *recordingSink) Publish(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func TestDefaultsToMemoryStorage(t *testing.T) {
	eng := quest.New(quest.WithEngineOptions(
		engine.WithClock(daylight),
		engine.WithTickInterval(0),
	))
	ctx := context.Background()
	eng.Initialize(ctx)
	eng.RecordPlaceVisit(ctx, "beaches")

	if got := eng.Record().Points; got != 110 {
		t.Fatalf("points = %d, want 110", got)
	}
}

func TestWiresSinkAndRealtime(t *testing.T) {
	sink := &recordingSink{}
	hub := realtime.NewHub()
	_, ch := hub.Subscribe(16)

	eng := quest.New(
		quest.WithNotifications(sink),
		quest.WithRealtime(hub),
		quest.WithEngineOptions(engine.WithClock(daylight), engine.WithTickInterval(0)),
	)
	ctx := context.Background()
	eng.Initialize(ctx)
	eng.RecordPlaceVisit(ctx, "beaches")

	if sink.count() == 0 {
		t.Fatal("sink received no notifications")
	}

	var sawPoints bool
	for {
		select {
		case ev := <-ch:
			if ev.Kind == core.KindPoints {
				sawPoints = true
			}
		default:
			if !sawPoints {
				t.Fatal("hub never saw a points event")
			}
			return
		}
	}
}

func TestWiresMetricsRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	eng := quest.New(
		quest.WithMetrics(reg),
		quest.WithEngineOptions(engine.WithClock(daylight), engine.WithTickInterval(0)),
	)
	ctx := context.Background()
	eng.Initialize(ctx)
	eng.RecordPlaceVisit(ctx, "beaches")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "tripquest_points_awarded_total" {
			found = true
			if v := f.GetMetric()[0].GetCounter().GetValue(); v != 110 {
				t.Fatalf("points counter = %v, want 110", v)
			}
		}
	}
	if !found {
		t.Fatal("points counter not registered")
	}
}

func TestWithFileStoragePersists(t *testing.T) {
	path := t.TempDir() + "/progress.json"
	ctx := context.Background()

	eng := quest.New(
		quest.WithStorage(jsonfile.New(path)),
		quest.WithEngineOptions(engine.WithClock(daylight), engine.WithTickInterval(0)),
	)
	eng.Initialize(ctx)
	eng.RecordPlaceVisit(ctx, "beaches")
	eng.Close(ctx)

	reloaded := quest.New(
		quest.WithStorage(jsonfile.New(path)),
		quest.WithEngineOptions(engine.WithClock(daylight), engine.WithTickInterval(0)),
	)
	reloaded.Initialize(ctx)
	if got := reloaded.Record().Points; got != 110 {
		t.Fatalf("reloaded points = %d, want 110", got)
	}
}
