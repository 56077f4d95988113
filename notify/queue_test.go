package notify

import (
	"sync"
	"testing"
	"time"

	"tripquest/core"
)

type fakeDisplay struct {
	mu           sync.Mutex
	shown        []Notification
	hidden       []string
	celebrations []core.Kind
}

func (d *fakeDisplay) Show(n Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, n)
}

func (d *fakeDisplay) Hide(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hidden = append(d.hidden, id)
}

func (d *fakeDisplay) Celebrate(kind core.Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.celebrations = append(d.celebrations, kind)
}

func (d *fakeDisplay) shownMessages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.shown))
	for i, n := range d.shown {
		out[i] = n.Message
	}
	return out
}

func publish(q *Queue, kind core.Kind, msg string) {
	q.Publish(FromEvent(core.NewToast(kind, msg)))
}

func TestQueueCapsVisibleNotifications(t *testing.T) {
	display := &fakeDisplay{}
	q := NewQueue(display, WithDefaultDuration(time.Hour))
	defer q.Close()

	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		publish(q, core.KindInfo, msg)
	}

	if got := q.ActiveCount(); got != 3 {
		t.Fatalf("active: want 3, got %d", got)
	}
	if got := q.PendingCount(); got != 2 {
		t.Fatalf("pending: want 2, got %d", got)
	}
	if got := display.shownMessages(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("expected first three shown in order, got %v", got)
	}
}

func TestDismissPullsNextFromQueue(t *testing.T) {
	display := &fakeDisplay{}
	q := NewQueue(display, WithDefaultDuration(time.Hour))
	defer q.Close()

	for _, msg := range []string{"a", "b", "c", "d"} {
		publish(q, core.KindInfo, msg)
	}

	display.mu.Lock()
	firstID := display.shown[0].ID
	display.mu.Unlock()

	q.Dismiss(firstID)

	if got := display.shownMessages(); len(got) != 4 || got[3] != "d" {
		t.Fatalf("expected d to be displayed after dismissal, got %v", got)
	}
	if got := q.ActiveCount(); got != 3 {
		t.Fatalf("active after dismiss: want 3, got %d", got)
	}

	// Dismissing an unknown ID is a no-op.
	q.Dismiss("no-such-id")
	if got := q.ActiveCount(); got != 3 {
		t.Fatalf("active after bogus dismiss: want 3, got %d", got)
	}
}

func TestAutoDismissAfterDuration(t *testing.T) {
	display := &fakeDisplay{}
	q := NewQueue(display)
	defer q.Close()

	q.Publish(Notification{Kind: core.KindInfo, Message: "short-lived", Duration: 10 * time.Millisecond})

	deadline := time.Now().Add(2 * time.Second)
	for q.ActiveCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("notification never auto-dismissed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	display.mu.Lock()
	defer display.mu.Unlock()
	if len(display.hidden) != 1 {
		t.Fatalf("expected one hide call, got %d", len(display.hidden))
	}
}

func TestCelebrationForMajorAchievements(t *testing.T) {
	display := &fakeDisplay{}
	q := NewQueue(display, WithDefaultDuration(time.Hour))
	defer q.Close()

	publish(q, core.KindBadge, "badge unlocked")
	publish(q, core.KindLevelUp, "level up")
	publish(q, core.KindPoints, "+10 points")

	display.mu.Lock()
	defer display.mu.Unlock()
	if len(display.celebrations) != 2 {
		t.Fatalf("want 2 celebrations, got %v", display.celebrations)
	}
	if display.celebrations[0] != core.KindBadge || display.celebrations[1] != core.KindLevelUp {
		t.Fatalf("unexpected celebration kinds: %v", display.celebrations)
	}
}
