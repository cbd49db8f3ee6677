// Package tracker implements the session state machine: it consumes editor
// host events and the idle signal, owns the live session, and flushes
// elapsed time into the store.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fakeyudi/codepulse/internal/activity"
	"github.com/fakeyudi/codepulse/internal/session"
	"github.com/fakeyudi/codepulse/internal/store"
)

// DefaultTickInterval is how often the tracker checks idleness and flushes.
const DefaultTickInterval = 30 * time.Second

// ContextProvider answers "what is the editor showing right now".
type ContextProvider interface {
	CurrentContext() *session.Context
}

// Recorder observes flushed time and ended sessions.
type Recorder interface {
	RecordFlush(ctx context.Context, attribution session.Context, d time.Duration)
	RecordSessionEnd(ctx context.Context, d time.Duration)
}

// Options configures a Tracker. Zero values use defaults.
type Options struct {
	TickInterval time.Duration
	Clock        func() time.Time
	Logger       *slog.Logger
	Recorder     Recorder
	// OnRefresh is called with today's aggregate after each periodic flush.
	OnRefresh func(store.DailyAggregate)
}

// Tracker owns at most one live session. All transitions go through
// Dispatch; Run feeds it from a single goroutine.
type Tracker struct {
	mu        sync.Mutex
	store     *store.Store
	detector  *activity.Detector
	host      ContextProvider
	now       func() time.Time
	log       *slog.Logger
	recorder  Recorder
	onRefresh func(store.DailyAggregate)
	interval  time.Duration
	ctx       context.Context

	tracking    bool
	current     *session.Session
	lastContext *session.Context
	lastFlush   time.Time
	lastEnded   *session.Session

	events chan Event
}

// New wires a tracker. host may be nil when no editor is attached.
func New(st *store.Store, detector *activity.Detector, host ContextProvider, opts Options) *Tracker {
	t := &Tracker{
		store:     st,
		detector:  detector,
		host:      host,
		now:       opts.Clock,
		log:       opts.Logger,
		recorder:  opts.Recorder,
		onRefresh: opts.OnRefresh,
		interval:  opts.TickInterval,
		ctx:       context.Background(),
		events:    make(chan Event, 64),
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.log == nil {
		t.log = slog.Default()
	}
	if t.interval <= 0 {
		t.interval = DefaultTickInterval
	}
	return t
}

// Events returns the inbound queue host adapters publish to.
func (t *Tracker) Events() chan<- Event { return t.events }

// Run starts tracking and dispatches queued events and timer ticks until ctx
// is cancelled, then stops tracking with a final flush.
func (t *Tracker) Run(ctx context.Context) error {
	t.Start()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-ticker.C:
			t.Dispatch(Event{Kind: Tick})
		case ev := <-t.events:
			t.Dispatch(ev)
		}
	}
}

// Start enables tracking. A session begins immediately if the editor
// context is known; otherwise the tracker waits for one.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return
	}
	t.tracking = true
	t.detector.RecordActivity()
	t.lastFlush = t.now()

	// A session left in the store by a previous process already had its
	// time flushed; only the marker remains.
	if stale := t.store.CurrentSession(); stale != nil {
		t.log.Debug("discarding stale session", "id", stale.ID)
		_ = t.store.SetCurrentSession(t.ctx, nil)
	}

	if c := t.currentContextLocked(); c != nil {
		t.startSessionLocked(*c)
	}
	t.log.Info("tracking started", "state", t.stateLocked())
}

// Stop flushes, ends the live session and disables tracking.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		return
	}
	t.endSessionLocked(t.now())
	t.tracking = false
	t.log.Info("tracking stopped")
}

// Dispatch applies one event to the state machine.
func (t *Tracker) Dispatch(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case ContextChanged:
		t.onContextChangeLocked(ev.Context)
	case ContentChanged:
		t.onContentChangeLocked(ev.Characters)
	case SelectionChanged, TerminalActivity:
		t.detector.RecordActivity()
	case FocusChanged:
		t.onFocusChangeLocked(ev.Focused)
	case WorkspaceFoldersChanged:
		t.onWorkspaceFoldersChangeLocked()
	case Tick:
		t.onTickLocked()
	default:
		t.log.Debug("ignoring unknown event", "kind", ev.Kind)
	}
}

func (t *Tracker) onContextChangeLocked(c *session.Context) {
	t.detector.RecordActivity()
	if c == nil {
		// Context loss alone never ends a session.
		return
	}
	next := *c
	t.lastContext = &next
	if !t.tracking {
		return
	}
	if t.current == nil {
		t.startSessionLocked(next)
		return
	}
	if t.current.Context() == next {
		return
	}
	if !t.current.Context().SameAttribution(next) {
		t.flushLocked(t.now())
	}
	t.current.Relabel(next)
	_ = t.store.SetCurrentSession(t.ctx, t.current)
}

func (t *Tracker) onContentChangeLocked(chars int64) {
	t.detector.RecordActivity()
	if t.current == nil {
		return
	}
	if chars > 0 {
		t.current.CharactersEdited += chars
		_ = t.store.RecordCharactersEdited(t.ctx, chars)
	}
	_ = t.store.IncrementEditedFileCount(t.ctx, t.current.FileName, t.current.WorkspaceName)
}

func (t *Tracker) onFocusChangeLocked(focused bool) {
	if !focused {
		// Focus loss alone never ends a session.
		t.flushLocked(t.now())
		return
	}
	// The away gap is judged before the returning activity is recorded.
	t.endIfIdleLocked(t.now())
	t.detector.RecordActivity()
	if !t.tracking || t.current != nil {
		return
	}
	if c := t.currentContextLocked(); c != nil {
		t.startSessionLocked(*c)
	}
}

// endIfIdleLocked ends the live session at the idle threshold when the
// detector reports idle. It reports whether the detector was idle.
func (t *Tracker) endIfIdleLocked(now time.Time) bool {
	timeout := t.detector.IdleTimeout()
	if !t.detector.IsIdle(timeout) {
		return false
	}
	if t.current != nil {
		// Time past the idle threshold is not attributed.
		end := t.detector.LastActivity().Add(timeout)
		if end.After(now) {
			end = now
		}
		if end.Before(t.lastFlush) {
			end = t.lastFlush
		}
		t.log.Debug("idle timeout, ending session", "id", t.current.ID)
		t.endSessionLocked(end)
	}
	return true
}

func (t *Tracker) onWorkspaceFoldersChangeLocked() {
	if !t.tracking {
		return
	}
	now := t.now()
	t.endSessionLocked(now)
	if c := t.currentContextLocked(); c != nil {
		t.startSessionLocked(*c)
	}
}

func (t *Tracker) onTickLocked() {
	if !t.tracking {
		return
	}
	now := t.now()
	if t.endIfIdleLocked(now) {
		return
	}
	if t.current == nil {
		if c := t.currentContextLocked(); c != nil {
			t.startSessionLocked(*c)
		}
		return
	}
	t.flushLocked(now)
	if t.onRefresh != nil {
		t.onRefresh(t.store.Today(t.ctx))
	}
}

// FlushProgress commits time elapsed since the last flush to the live
// session's current attribution.
func (t *Tracker) FlushProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushLocked(t.now())
}

func (t *Tracker) flushLocked(now time.Time) {
	if t.current == nil {
		t.lastFlush = now
		return
	}
	delta := now.Sub(t.lastFlush)
	if delta <= 0 {
		return
	}
	t.lastFlush = now

	hour := now.Hour()
	_ = t.store.RecordTime(t.ctx, t.current, delta, hour, store.IsNightOwlHour(hour))
	_ = t.store.RecordFileTime(t.ctx, t.current.FileName, delta)
	if t.recorder != nil {
		t.recorder.RecordFlush(t.ctx, t.current.Context(), delta)
	}
}

func (t *Tracker) startSessionLocked(c session.Context) {
	now := t.now()
	t.current = session.New(c, now)
	t.lastFlush = now
	_ = t.store.SetCurrentSession(t.ctx, t.current)
	t.log.Debug("session started", "id", t.current.ID, "language", c.LanguageID, "workspace", c.WorkspaceName)
}

func (t *Tracker) endSessionLocked(end time.Time) {
	if t.current == nil {
		return
	}
	t.flushLocked(end)
	d := t.current.End(end)
	_ = t.store.UpdateLongestSession(t.ctx, d)
	_ = t.store.SetCurrentSession(t.ctx, nil)
	if t.recorder != nil {
		t.recorder.RecordSessionEnd(t.ctx, d)
	}
	t.log.Debug("session ended", "id", t.current.ID, "duration", d)
	t.lastEnded = t.current
	t.current = nil
}

func (t *Tracker) currentContextLocked() *session.Context {
	if t.host != nil {
		if c := t.host.CurrentContext(); c != nil {
			t.lastContext = c
			return c
		}
	}
	return t.lastContext
}

// IsTracking reports whether tracking is enabled.
func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// State returns the lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Tracker) stateLocked() State {
	switch {
	case !t.tracking:
		return Stopped
	case t.current != nil:
		return Active
	default:
		return IdleWaiting
	}
}

// Session returns a copy of the live session, or nil.
func (t *Tracker) Session() *session.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	c := *t.current
	return &c
}

// lastEndedSession returns a copy of the most recently ended session, or nil.
func (t *Tracker) lastEndedSession() *session.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastEnded == nil {
		return nil
	}
	c := *t.lastEnded
	return &c
}

// UpdateIdleTimeout changes the idle threshold; it applies from the next tick.
func (t *Tracker) UpdateIdleTimeout(d time.Duration) {
	t.detector.SetIdleTimeout(d)
}
