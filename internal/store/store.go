// Package store persists per-day time aggregates in a versioned document
// cached in memory and written through a Backend after every mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/fakeyudi/codepulse/internal/session"
)

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 2

const (
	defaultRetries = 3
	defaultBackoff = 200 * time.Millisecond
)

// Settings are the user preferences stored alongside the aggregates.
type Settings struct {
	IdleTimeoutMs int64 `json:"idleTimeoutMs"`
	ShowStatusBar bool  `json:"showStatusBar"`
}

// IdleTimeout returns IdleTimeoutMs as a duration.
func (s Settings) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMs) * time.Millisecond
}

// Schema is the full persisted document.
type Schema struct {
	Version         int                        `json:"version"`
	CurrentSession  *session.Session           `json:"currentSession"`
	DailyAggregates map[string]*DailyAggregate `json:"dailyAggregates"`
	Settings        Settings                   `json:"settings"`
}

func defaultSchema(settings Settings) *Schema {
	return &Schema{
		Version:         CurrentVersion,
		DailyAggregates: make(map[string]*DailyAggregate),
		Settings:        settings,
	}
}

// Warner receives a notice when a write could not be saved after retries.
type Warner interface {
	Warn(title, message string)
}

// Store is the in-memory cache of the schema plus its durable backend.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	now      func() time.Time
	log      *slog.Logger
	warner   Warner
	retries  int
	backoff  time.Duration
	defaults Settings
	schema   *Schema
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithWarner sets the sink notified when persistence is exhausted.
func WithWarner(w Warner) Option {
	return func(s *Store) { s.warner = w }
}

// WithRetry sets the number of write attempts and the linear backoff step.
func WithRetry(attempts int, step time.Duration) Option {
	return func(s *Store) {
		if attempts > 0 {
			s.retries = attempts
		}
		s.backoff = step
	}
}

// WithDefaultSettings sets the settings used when no document exists yet.
func WithDefaultSettings(settings Settings) Option {
	return func(s *Store) { s.defaults = settings }
}

// New returns a Store over backend. Call Initialize before use.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		log:     slog.Default(),
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the document, migrating older versions, or creates a
// default one when none exists.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.schema = defaultSchema(s.defaults)
			return s.persistLocked(ctx)
		}
		return err
	}

	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("failed to parse store: %w", err)
	}
	if schema.Version > CurrentVersion {
		return fmt.Errorf("%w: store version %d, supported %d", ErrIncompatibleVersion, schema.Version, CurrentVersion)
	}
	migrated := migrate(&schema)
	s.schema = &schema
	if migrated {
		s.log.Info("migrated store", "version", schema.Version)
		return s.persistLocked(ctx)
	}
	return nil
}

// Persist writes the full cached document.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// persistLocked retries the write with linear backoff. On exhaustion it
// logs, notifies the warner and returns the last error; the cache is kept.
func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.schema)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	var lastErr error
retry:
	for attempt := 1; ; attempt++ {
		if lastErr = s.backend.Write(data); lastErr == nil {
			return nil
		}
		s.log.Debug("store write failed", "attempt", attempt, "err", lastErr)
		if attempt >= s.retries {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = errors.Join(lastErr, ctx.Err())
			break retry
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}

	s.log.Warn("could not save tracking data", "attempts", s.retries, "err", lastErr)
	if s.warner != nil {
		s.warner.Warn("codepulse", "Could not save coding time data: "+lastErr.Error())
	}
	return fmt.Errorf("failed to persist store: %w", lastErr)
}

// aggregateLocked returns the aggregate for date, creating and persisting
// it on first use so the first increment of a day survives a crash.
func (s *Store) aggregateLocked(ctx context.Context, date string) *DailyAggregate {
	if a, ok := s.schema.DailyAggregates[date]; ok {
		return a
	}
	a := NewDailyAggregate()
	s.schema.DailyAggregates[date] = a
	_ = s.persistLocked(ctx)
	return a
}

// DailyAggregate returns a copy of the aggregate for date, creating it if
// missing.
func (s *Store) DailyAggregate(ctx context.Context, date string) DailyAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregateLocked(ctx, date).Clone()
}

// Today returns a copy of today's aggregate, creating it if missing.
func (s *Store) Today(ctx context.Context) DailyAggregate {
	return s.DailyAggregate(ctx, DateKey(s.now()))
}

// RecordTime adds d to today's totals and to the language, project, hour
// and night-owl buckets of sess. The date is taken at call time, so a
// session crossing midnight is split across two days.
func (s *Store) RecordTime(ctx context.Context, sess *session.Session, d time.Duration, hour int, nightOwl bool) error {
	ms := d.Milliseconds()
	if sess == nil || ms <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.aggregateLocked(ctx, DateKey(s.now()))
	a.TotalTimeMs += ms
	if sess.IsActive {
		a.ActiveTimeMs += ms
	}
	a.LanguageTime[languageKey(sess.LanguageID)] += ms
	a.ProjectTime[projectKey(sess.WorkspacePath)] += ms
	if hour >= 0 && hour < 24 {
		a.HourlyDistribution[hour] += ms
	}
	if nightOwl {
		a.NightOwlTimeMs += ms
	}
	return s.persistLocked(ctx)
}

// RecordFileTime adds d to today's time for path.
func (s *Store) RecordFileTime(ctx context.Context, path string, d time.Duration) error {
	ms := d.Milliseconds()
	if path == "" || ms <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.aggregateLocked(ctx, DateKey(s.now()))
	a.FileTimeMs[path] += ms
	return s.persistLocked(ctx)
}

// RecordCharactersEdited adds n to today's edited character count.
func (s *Store) RecordCharactersEdited(ctx context.Context, n int64) error {
	if n <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.aggregateLocked(ctx, DateKey(s.now()))
	a.TotalCharactersEdited += n
	return s.persistLocked(ctx)
}

// UpdateLongestSession raises today's longest session to d if greater.
func (s *Store) UpdateLongestSession(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.aggregateLocked(ctx, DateKey(s.now()))
	if ms := d.Milliseconds(); ms > a.LongestSessionMs {
		a.LongestSessionMs = ms
		return s.persistLocked(ctx)
	}
	return nil
}

// IncrementEditedFileCount counts path as edited today the first time it
// is seen and remembers its workspace.
func (s *Store) IncrementEditedFileCount(ctx context.Context, path, workspace string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.aggregateLocked(ctx, DateKey(s.now()))
	if _, seen := a.FileWorkspaces[path]; seen {
		return nil
	}
	a.FileWorkspaces[path] = workspace
	a.EditedFileCount++
	return s.persistLocked(ctx)
}

// SetCurrentSession records the live session, or nil when none.
func (s *Store) SetCurrentSession(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		s.schema.CurrentSession = nil
	} else {
		c := *sess
		s.schema.CurrentSession = &c
	}
	return s.persistLocked(ctx)
}

// CurrentSession returns a copy of the persisted live session, if any.
func (s *Store) CurrentSession() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema.CurrentSession == nil {
		return nil
	}
	c := *s.schema.CurrentSession
	return &c
}

// Settings returns the stored settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema.Settings
}

// UpdateSettings applies fn to the stored settings and persists.
func (s *Store) UpdateSettings(ctx context.Context, fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.schema.Settings)
	return s.persistLocked(ctx)
}

// Aggregates returns copies of every aggregate with from <= date <= to.
// Missing dates are absent from the result.
func (s *Store) Aggregates(from, to string) map[string]DailyAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]DailyAggregate)
	for date, a := range s.schema.DailyAggregates {
		if date >= from && date <= to {
			out[date] = a.Clone()
		}
	}
	return out
}

// dates returns every stored date in ascending order.
func (s *Store) dates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.schema.DailyAggregates {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ClearAll deletes every daily aggregate.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema.DailyAggregates = make(map[string]*DailyAggregate)
	return s.persistLocked(ctx)
}

func languageKey(id string) string {
	if id == "" {
		return "plaintext"
	}
	return id
}

func projectKey(path string) string {
	if path == "" {
		return "(no workspace)"
	}
	return path
}
