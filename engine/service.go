package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"tripquest/core"
	"tripquest/notify"
)

// Engine owns the canonical ProgressRecord, the badge catalog, the level
// ladder, and the streak arithmetic. All mutations run under one mutex so the
// record is always consistent when control yields; events are collected while
// the lock is held and dispatched after it is released, so subscribers may
// safely call back into the engine.
//
// Storage failures are logged and swallowed: losing a save means "progress
// not persisted this session", never a crash.
type Engine struct {
	mu      sync.Mutex
	rec     core.ProgressRecord
	pending []core.Event

	storage Storage
	bus     *EventBus
	sink    notify.Sink
	catalog []core.Badge
	levels  []core.Level
	log     *slog.Logger
	now     func() time.Time

	totalDestinations int
	visitAward        int
	badgeAward        int
	tickInterval      time.Duration
	busMode           DispatchMode

	evaluating bool

	sessionStart time.Time
	lastFlush    time.Time
	stopTick     context.CancelFunc
	tickDone     chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets the notification sink. When absent the engine degrades to a
// logging sink.
func WithSink(s notify.Sink) Option { return func(e *Engine) { e.sink = s } }

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithClock overrides the time source, used by streak and session tests.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithCatalog replaces the default badge catalog.
func WithCatalog(catalog []core.Badge) Option { return func(e *Engine) { e.catalog = catalog } }

// WithLevels replaces the default level ladder.
func WithLevels(levels []core.Level) Option { return func(e *Engine) { e.levels = levels } }

// WithDispatchMode selects sync or async event dispatch on the bus.
func WithDispatchMode(m DispatchMode) Option { return func(e *Engine) { e.busMode = m } }

// WithTotalDestinations sets the destination catalog size used by the
// exploration percentage and the default passport_pro threshold.
func WithTotalDestinations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.totalDestinations = n
		}
	}
}

// WithVisitAward overrides the base points granted per new place visit.
func WithVisitAward(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.visitAward = points
		}
	}
}

// WithBadgeAward overrides the base points granted per badge unlock.
func WithBadgeAward(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.badgeAward = points
		}
	}
}

// WithTickInterval sets the session time-tracking interval. Zero disables the
// background tick entirely.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

// New builds an Engine on top of the given storage. The record is not loaded
// until Initialize is called.
func New(storage Storage, opts ...Option) *Engine {
	if storage == nil {
		panic("engine.New requires non-nil storage")
	}
	e := &Engine{
		storage:           storage,
		rec:               core.DefaultRecord(),
		now:               time.Now,
		totalDestinations: 15,
		visitAward:        10,
		badgeAward:        100,
		tickInterval:      time.Minute,
		busMode:           DispatchSync,
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.sink == nil {
		e.sink = notify.NewLogSink(e.log)
	}
	if e.catalog == nil {
		e.catalog = core.DefaultCatalog(e.totalDestinations)
	}
	if e.levels == nil {
		e.levels = core.DefaultLevels()
	}
	e.bus = NewEventBus(e.busMode)
	return e
}

// Subscribe registers a bus handler for an event kind.
func (e *Engine) Subscribe(kind core.Kind, handler func(context.Context, core.Event)) func() {
	return e.bus.Subscribe(kind, handler)
}

// SubscribeAll registers a bus handler for every event kind.
func (e *Engine) SubscribeAll(handler func(context.Context, core.Event)) func() {
	return e.bus.SubscribeAll(handler)
}

// Initialize loads the persisted record (falling back to defaults on absence
// or corruption), classifies the time of day, recomputes the daily streak,
// evaluates badges, persists, and starts the session time tick.
func (e *Engine) Initialize(ctx context.Context) {
	e.mu.Lock()
	rec, ok, err := e.storage.Load(ctx)
	if err != nil {
		e.log.Error("load progress", "error", err)
		ok = false
	}
	if ok {
		rec.Normalize()
		e.rec = rec
	} else {
		e.rec = core.DefaultRecord()
		now := e.now()
		e.rec.FirstVisit = &now
	}
	e.sessionStart = e.now()
	e.trackTimeOfDayLocked()
	e.recomputeStreakLocked()
	e.evaluateBadgesLocked()
	e.persistLocked(ctx)
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)

	if e.tickInterval > 0 {
		e.startTicker()
	}
}

// RecomputeStreak re-runs the daily streak computation. Idempotent per
// calendar day: once today has been accounted for it is a no-op.
func (e *Engine) RecomputeStreak(ctx context.Context) {
	e.mu.Lock()
	changed := e.recomputeStreakLocked()
	if changed {
		e.persistLocked(ctx)
	}
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)
}

// StreakMultiplier returns the multiplier currently applied to point awards.
func (e *Engine) StreakMultiplier() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return core.StreakMultiplier(e.rec.CurrentStreak)
}

// AwardPoints credits floor(base × streak multiplier) points, appends an
// audit entry, emits a points notification (and a level-up notification when
// the award crossed a threshold), and re-evaluates badges. Non-positive base
// amounts are ignored.
func (e *Engine) AwardPoints(ctx context.Context, base int, reason string) {
	if base <= 0 {
		e.log.Warn("ignoring non-positive point award", "amount", base, "reason", reason)
		return
	}
	e.mu.Lock()
	e.awardPointsLocked(base, reason)
	e.persistLocked(ctx)
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)
}

// RecordPlaceVisit appends a place to the visited sequence and awards the
// visit bonus. Repeat visits are no-ops: a place appears at most once.
func (e *Engine) RecordPlaceVisit(ctx context.Context, place string) {
	if place == "" {
		return
	}
	e.mu.Lock()
	if e.rec.HasVisited(place) {
		e.mu.Unlock()
		return
	}
	e.rec.PlacesVisited = append(e.rec.PlacesVisited, place)
	e.awardPointsLocked(e.visitAward, fmt.Sprintf("Visited %s", place))
	e.persistLocked(ctx)
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)
}

// UnlockBadge unlocks a badge by ID. Already-unlocked and unknown IDs are
// no-ops; the unlock bonus is therefore granted at most once per badge.
func (e *Engine) UnlockBadge(ctx context.Context, id string) {
	e.mu.Lock()
	badge, ok := e.findBadge(id)
	if !ok || e.rec.HasBadge(id) {
		e.mu.Unlock()
		return
	}
	e.unlockBadgeLocked(badge)
	e.evaluateBadgesLocked()
	e.persistLocked(ctx)
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)
}

// EvaluateBadges runs every badge predicate against the current record and
// unlocks those that hold, looping to a fixed point so meta-badges observe
// unlocks from the same pass.
func (e *Engine) EvaluateBadges(ctx context.Context) {
	e.mu.Lock()
	e.evaluateBadgesLocked()
	e.persistLocked(ctx)
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)
}

// Update is the documented escape hatch for page collaborators that mutate
// plain counters (wildlifeSpotted, imagesViewed, cultureRead, mapUsed)
// directly. The mutation runs under the engine lock, then badges are
// re-evaluated and the record persisted.
func (e *Engine) Update(ctx context.Context, fn func(*core.ProgressRecord)) {
	e.mu.Lock()
	fn(&e.rec)
	e.rec.Normalize()
	e.evaluateBadgesLocked()
	e.persistLocked(ctx)
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)
}

// RecordWildlifeSighting increments the wildlife counter.
func (e *Engine) RecordWildlifeSighting(ctx context.Context) {
	e.Update(ctx, func(r *core.ProgressRecord) { r.WildlifeSpotted++ })
}

// RecordImageView increments the viewed-images counter.
func (e *Engine) RecordImageView(ctx context.Context) {
	e.Update(ctx, func(r *core.ProgressRecord) { r.ImagesViewed++ })
}

// MarkCultureRead sets the one-way culture flag.
func (e *Engine) MarkCultureRead(ctx context.Context) {
	e.Update(ctx, func(r *core.ProgressRecord) { r.CultureRead = true })
}

// MarkMapUsed sets the one-way map flag.
func (e *Engine) MarkMapUsed(ctx context.Context) {
	e.Update(ctx, func(r *core.ProgressRecord) { r.MapUsed = true })
}

// Record returns a deep copy of the current progress record.
func (e *Engine) Record() core.ProgressRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone()
}

// ExportSnapshot serializes the full record to a transportable JSON document.
func (e *Engine) ExportSnapshot() ([]byte, error) {
	e.mu.Lock()
	rec := e.rec.Clone()
	e.mu.Unlock()
	return json.MarshalIndent(rec, "", "  ")
}

// ImportSnapshot replaces the record with defaults merged with the imported
// fields: missing fields keep their defaults, unknown fields are ignored.
// Unparseable input reports an error toast and leaves the record untouched.
func (e *Engine) ImportSnapshot(ctx context.Context, data []byte) error {
	rec := core.DefaultRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		ev := core.NewToast(core.KindError, "Failed to import progress")
		e.sink.Publish(notify.FromEvent(ev))
		e.bus.Publish(ctx, ev)
		return fmt.Errorf("import snapshot: %w", err)
	}
	rec.Normalize()

	e.mu.Lock()
	e.rec = rec
	e.evaluateBadgesLocked()
	e.persistLocked(ctx)
	e.emitLocked(core.NewToast(core.KindSuccess, "Progress imported successfully!"))
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)
	return nil
}

// Reset replaces the record with all-defaults and re-stamps firstVisit.
// Confirmation is the caller's concern; the engine resets unconditionally.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	e.rec = core.DefaultRecord()
	now := e.now()
	e.rec.FirstVisit = &now
	e.persistLocked(ctx)
	e.emitLocked(core.NewToast(core.KindInfo, "Progress reset"))
	evs := e.drainEventsLocked()
	e.mu.Unlock()
	e.dispatch(ctx, evs)
}

// Close stops the background tick, flushes the partial session time, and
// shuts down the event bus. Best effort: a failed final save is logged only.
func (e *Engine) Close(ctx context.Context) {
	if e.stopTick != nil {
		e.stopTick()
		<-e.tickDone
		e.stopTick = nil
	}
	e.flushSessionTime(ctx)
	e.bus.Close()
}

// internal

func (e *Engine) trackTimeOfDayLocked() {
	hour := e.now().Hour()
	switch {
	case hour >= 20 || hour < 6:
		e.rec.NightVisits++
	case hour >= 5 && hour < 8:
		e.rec.EarlyVisits++
	}
}

func (e *Engine) recomputeStreakLocked() bool {
	now := e.now()
	today := core.DayKey(now)
	if e.rec.LastVisitDate != nil && core.DayKey(*e.rec.LastVisitDate) == today {
		return false
	}

	if !contains(e.rec.VisitDates, today) {
		e.rec.VisitDates = append(e.rec.VisitDates, today)
	}

	if e.rec.LastVisitDate == nil {
		e.rec.CurrentStreak = 1
	} else {
		switch gap := core.DaysBetween(*e.rec.LastVisitDate, now); {
		case gap == 1:
			e.rec.CurrentStreak++
		case gap > 1:
			// A broken streak restarts at 1: today counts as day one.
			e.rec.CurrentStreak = 1
		}
	}
	if e.rec.CurrentStreak > e.rec.LongestStreak {
		e.rec.LongestStreak = e.rec.CurrentStreak
	}
	e.rec.LastVisitDate = &now
	return true
}

func (e *Engine) awardPointsLocked(base int, reason string) {
	mult := core.StreakMultiplier(e.rec.CurrentStreak)
	final := int(math.Floor(float64(base) * mult))

	prev := e.rec.Points
	e.rec.Points += final
	e.rec.PointsHistory = append(e.rec.PointsHistory, core.PointsEntry{
		Amount:     final,
		Reason:     reason,
		Multiplier: mult,
		Timestamp:  e.now(),
	})

	e.emitLocked(core.NewPointsEvent(final, mult, reason))

	// Level-up detection compares against the immediately-preceding total.
	// Correct only because awards are serialized under the engine mutex.
	before := core.LevelFor(e.levels, prev)
	after := core.LevelFor(e.levels, e.rec.Points)
	if before.Name != after.Name {
		e.emitLocked(core.NewLevelUpEvent(after))
	}

	e.evaluateBadgesLocked()
}

func (e *Engine) unlockBadgeLocked(badge core.Badge) {
	e.rec.Badges = append(e.rec.Badges, badge.ID)
	e.awardPointsLocked(e.badgeAward, fmt.Sprintf("Unlocked badge: %s", badge.Name))
	e.emitLocked(core.NewBadgeEvent(badge))
}

func (e *Engine) evaluateBadgesLocked() {
	// Re-entrant calls from awardPointsLocked collapse into the outer loop.
	if e.evaluating {
		return
	}
	e.evaluating = true
	defer func() { e.evaluating = false }()

	for {
		unlocked := false
		for _, b := range e.catalog {
			if b.Condition == nil || e.rec.HasBadge(b.ID) {
				continue
			}
			if b.Condition(e.rec) {
				e.unlockBadgeLocked(b)
				unlocked = true
			}
		}
		if !unlocked {
			return
		}
	}
}

func (e *Engine) findBadge(id string) (core.Badge, bool) {
	for _, b := range e.catalog {
		if b.ID == id {
			return b, true
		}
	}
	return core.Badge{}, false
}

func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.storage.Save(ctx, e.rec.Clone()); err != nil {
		e.log.Error("save progress", "error", err)
	}
}

func (e *Engine) emitLocked(ev core.Event) {
	e.pending = append(e.pending, ev)
}

func (e *Engine) drainEventsLocked() []core.Event {
	evs := e.pending
	e.pending = nil
	return evs
}

func (e *Engine) dispatch(ctx context.Context, evs []core.Event) {
	for _, ev := range evs {
		e.sink.Publish(notify.FromEvent(ev))
		e.bus.Publish(ctx, ev)
	}
}

func (e *Engine) startTicker() {
	ctx, cancel := context.WithCancel(context.Background())
	e.stopTick = cancel
	e.tickDone = make(chan struct{})
	e.mu.Lock()
	e.lastFlush = e.now()
	e.mu.Unlock()

	go func() {
		defer close(e.tickDone)
		ticker := time.NewTicker(e.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.flushSessionTime(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (e *Engine) flushSessionTime(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	if e.lastFlush.IsZero() {
		e.lastFlush = e.sessionStart
	}
	secs := int(now.Sub(e.lastFlush).Seconds())
	if secs <= 0 {
		return
	}
	e.rec.TimeSpent += secs
	e.lastFlush = now
	e.persistLocked(ctx)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
