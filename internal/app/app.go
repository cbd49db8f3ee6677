// Package app builds every tracking component once and exposes the
// operations the CLI needs: start and stop tracking, today's aggregate,
// period reports and data transfer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fakeyudi/codepulse/internal/activity"
	"github.com/fakeyudi/codepulse/internal/config"
	"github.com/fakeyudi/codepulse/internal/session"
	"github.com/fakeyudi/codepulse/internal/stats"
	"github.com/fakeyudi/codepulse/internal/store"
	"github.com/fakeyudi/codepulse/internal/style"
	"github.com/fakeyudi/codepulse/internal/tracker"
)

// Options configures New. Zero values use defaults.
type Options struct {
	Config config.Config
	// Backend overrides the file backend under Config.DataDir.
	Backend   store.Backend
	Clock     func() time.Time
	Logger    *slog.Logger
	Warner    store.Warner
	Recorder  tracker.Recorder
	Host      tracker.ContextProvider
	OnRefresh func(store.DailyAggregate)
	// Exclusive holds the data directory lock until Shutdown. The tracking
	// process sets it; other processes then cannot write the store.
	Exclusive bool
}

// App is the application context.
type App struct {
	store    *store.Store
	detector *activity.Detector
	tracker  *tracker.Tracker
	engine   *stats.Engine
	log      *slog.Logger

	locker    store.Locker
	lock      *store.Lock
	exclusive bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Report is a period summary with its style observations.
type Report struct {
	*stats.Summary
	Observations []style.Observation `json:"observations"`
}

// New builds and initializes every component. Persisted settings win over
// config; config only seeds them on first run.
func New(ctx context.Context, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	backend := opts.Backend
	if backend == nil {
		fb, err := store.NewFileBackend(opts.Config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open data dir: %w", err)
		}
		backend = fb
	}

	locker, _ := backend.(store.Locker)
	var lock *store.Lock
	if opts.Exclusive && locker != nil {
		l, err := locker.Lock()
		if err != nil {
			if errors.Is(err, store.ErrLocked) {
				return nil, fmt.Errorf("tracking is already running: %w", err)
			}
			return nil, err
		}
		lock = l
	}

	storeOpts := []store.Option{
		store.WithClock(now),
		store.WithLogger(log),
		store.WithDefaultSettings(store.Settings{
			IdleTimeoutMs: opts.Config.IdleTimeout().Milliseconds(),
			ShowStatusBar: opts.Config.StatusBar(),
		}),
	}
	if opts.Warner != nil {
		storeOpts = append(storeOpts, store.WithWarner(opts.Warner))
	}
	st := store.New(backend, storeOpts...)
	if err := st.Initialize(ctx); err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	detector := activity.NewDetector(st.Settings().IdleTimeout(), now)
	tr := tracker.New(st, detector, opts.Host, tracker.Options{
		TickInterval: opts.Config.Tick(),
		Clock:        now,
		Logger:       log,
		Recorder:     opts.Recorder,
		OnRefresh:    opts.OnRefresh,
	})

	return &App{
		store:     st,
		detector:  detector,
		tracker:   tr,
		engine:    stats.NewEngine(st, now),
		log:       log,
		locker:    locker,
		lock:      lock,
		exclusive: opts.Exclusive,
	}, nil
}

// Start enables tracking and runs the event loop in the background until
// Shutdown. Calling Start twice is a no-op.
func (a *App) Start(ctx context.Context) {
	if a.done != nil {
		return
	}
	a.tracker.Start()
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		_ = a.tracker.Run(runCtx)
	}()
}

// Shutdown stops tracking: the loop flushes, ends the session and persists.
// If ctx expires first, a best-effort persist of the cache is attempted and
// ctx's error returned. The data directory lock is released last.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.stop(ctx)
	if relErr := a.lock.Release(); relErr != nil {
		err = errors.Join(err, relErr)
	}
	a.lock = nil
	return err
}

func (a *App) stop(ctx context.Context) error {
	if a.done == nil {
		a.tracker.Stop()
		return a.store.Persist(ctx)
	}
	a.cancel()
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		a.log.Warn("shutdown timed out, saving what is cached")
		persistErr := a.store.Persist(context.Background())
		return errors.Join(ctx.Err(), persistErr)
	}
}

// write runs fn against a freshly loaded document while holding the data
// directory lock. It fails with store.ErrLocked while a tracker runs. An
// exclusive App already holds the lock and writes directly.
func (a *App) write(ctx context.Context, fn func() error) error {
	if a.exclusive || a.locker == nil {
		return fn()
	}
	lock, err := a.locker.Lock()
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return fmt.Errorf("stop the running tracker first: %w", err)
		}
		return err
	}
	defer lock.Release()
	if err := a.store.Initialize(ctx); err != nil {
		return fmt.Errorf("reload store: %w", err)
	}
	return fn()
}

// Events returns the queue host adapters publish to.
func (a *App) Events() chan<- tracker.Event { return a.tracker.Events() }

// IsTracking reports whether tracking is enabled.
func (a *App) IsTracking() bool { return a.tracker.IsTracking() }

// State returns the tracker's lifecycle state.
func (a *App) State() tracker.State { return a.tracker.State() }

// Session returns a copy of the live session, or nil.
func (a *App) Session() *session.Session { return a.tracker.Session() }

// StoredSession returns the session marker persisted by a tracking process.
func (a *App) StoredSession() *session.Session { return a.store.CurrentSession() }

// TodayAggregate returns today's aggregate, creating it if needed.
func (a *App) TodayAggregate(ctx context.Context) store.DailyAggregate {
	return a.store.Today(ctx)
}

// GenerateSummary summarizes the period offset periods back and classifies
// it. It returns nil when the period has no recorded time.
func (a *App) GenerateSummary(p stats.Period, offset int) *Report {
	s := a.engine.GenerateSummary(p, offset)
	if s == nil {
		return nil
	}
	return &Report{Summary: s, Observations: style.Classify(s)}
}

// Settings returns the persisted settings.
func (a *App) Settings() store.Settings { return a.store.Settings() }

// UpdateIdleTimeout persists a new idle threshold. The tracker applies it
// on its next tick.
func (a *App) UpdateIdleTimeout(ctx context.Context, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("idle timeout must not be negative, got %s", d)
	}
	return a.write(ctx, func() error {
		a.tracker.UpdateIdleTimeout(d)
		return a.store.UpdateSettings(ctx, func(s *store.Settings) {
			s.IdleTimeoutMs = d.Milliseconds()
		})
	})
}

// SetShowStatusBar persists the status line preference.
func (a *App) SetShowStatusBar(ctx context.Context, on bool) error {
	return a.write(ctx, func() error {
		return a.store.UpdateSettings(ctx, func(s *store.Settings) {
			s.ShowStatusBar = on
		})
	})
}

// Export returns the persisted document as indented JSON.
func (a *App) Export() ([]byte, error) { return a.store.Export() }

// Import merges an exported document. Imported settings take effect
// immediately. Nothing is imported while another process is tracking.
func (a *App) Import(ctx context.Context, data []byte) store.ImportResult {
	var res store.ImportResult
	err := a.write(ctx, func() error {
		res = a.store.Import(ctx, data)
		return nil
	})
	if err != nil {
		return store.ImportResult{Message: "Import failed: " + err.Error(), Err: err}
	}
	if res.OK {
		a.tracker.UpdateIdleTimeout(a.store.Settings().IdleTimeout())
	}
	return res
}

// ClearAll deletes every daily aggregate.
func (a *App) ClearAll(ctx context.Context) error {
	return a.write(ctx, func() error { return a.store.ClearAll(ctx) })
}
