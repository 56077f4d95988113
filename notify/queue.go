package notify

import (
	"log/slog"
	"sync"
	"time"

	"tripquest/core"
)

// Display is the rendering surface the queue drives. Implementations draw a
// toast, remove it, and run a one-shot celebration effect for major
// achievements.
type Display interface {
	Show(Notification)
	Hide(id string)
	Celebrate(kind core.Kind)
}

// Queue is a bounded-concurrency display queue: at most maxVisible
// notifications are shown at once, the rest wait in FIFO order. A displayed
// entry leaves either when its duration elapses or when Dismiss is called,
// and the next queued entry takes its slot.
type Queue struct {
	mu              sync.Mutex
	display         Display
	maxVisible      int
	defaultDuration time.Duration
	pending         []Notification
	active          map[string]*time.Timer
	closed          bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithMaxVisible caps concurrently displayed notifications (default 3).
func WithMaxVisible(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.maxVisible = n
		}
	}
}

// WithDefaultDuration sets the auto-dismiss delay applied when a
// notification carries no duration hint (default 4s).
func WithDefaultDuration(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.defaultDuration = d
		}
	}
}

// NewQueue builds a display queue. A nil display degrades to logging.
func NewQueue(display Display, opts ...QueueOption) *Queue {
	q := &Queue{
		display:         display,
		maxVisible:      3,
		defaultDuration: 4 * time.Second,
		active:          map[string]*time.Timer{},
	}
	for _, o := range opts {
		o(q)
	}
	if q.display == nil {
		q.display = &logDisplay{log: slog.Default()}
	}
	return q
}

// Publish enqueues a notification, displaying it immediately if a slot is
// free.
func (q *Queue) Publish(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if n.ID == "" {
		n = FromEvent(core.Event{Kind: n.Kind, Message: n.Message, Duration: n.Duration})
	}
	if n.Duration <= 0 {
		n.Duration = q.defaultDuration
	}
	q.pending = append(q.pending, n)
	q.drainLocked()
}

// Dismiss removes a displayed notification and pulls the next queued one.
// Unknown IDs are ignored.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	timer, ok := q.active[id]
	if !ok {
		return
	}
	timer.Stop()
	delete(q.active, id)
	q.display.Hide(id)
	q.drainLocked()
}

// ActiveCount returns how many notifications are currently displayed.
func (q *Queue) ActiveCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.active)
}

// PendingCount returns how many notifications are waiting for a slot.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops all auto-dismiss timers and drops queued entries.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for id, timer := range q.active {
		timer.Stop()
		delete(q.active, id)
	}
	q.pending = nil
}

func (q *Queue) drainLocked() {
	for len(q.active) < q.maxVisible && len(q.pending) > 0 {
		n := q.pending[0]
		q.pending = q.pending[1:]
		id := n.ID
		q.active[id] = time.AfterFunc(n.Duration, func() { q.Dismiss(id) })
		q.display.Show(n)
		if n.Kind == core.KindBadge || n.Kind == core.KindLevelUp {
			q.display.Celebrate(n.Kind)
		}
	}
}

var _ Sink = (*Queue)(nil)

type logDisplay struct {
	log *slog.Logger
}

func (d *logDisplay) Show(n Notification) {
	d.log.Info("toast", "icon", Icon(n.Kind), "kind", n.Kind, "message", n.Message)
}

func (d *logDisplay) Hide(string) {}

func (d *logDisplay) Celebrate(kind core.Kind) {
	d.log.Info("celebration", "kind", kind)
}
