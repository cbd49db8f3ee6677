package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/codepulse/internal/session"
)

// memBackend keeps the document in memory and can be told to fail writes.
type memBackend struct {
	data     []byte
	failNext int
	writes   int
}

func (m *memBackend) Read() ([]byte, error) {
	if m.data == nil {
		return nil, os.ErrNotExist
	}
	return m.data, nil
}

func (m *memBackend) Write(data []byte) error {
	m.writes++
	if m.failNext > 0 {
		m.failNext--
		return errors.New("disk full")
	}
	m.data = append([]byte(nil), data...)
	return nil
}

type recordingWarner struct{ messages []string }

func (w *recordingWarner) Warn(_, message string) { w.messages = append(w.messages, message) }

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestStore(t testing.TB, b Backend, now func() time.Time, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(now), WithLogger(quietLogger), WithRetry(3, 0)}, opts...)
	s := New(b, opts...)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestInitializeCreatesDefault(t *testing.T) {
	b := &memBackend{}
	s := newTestStore(t, b, time.Now, WithDefaultSettings(Settings{IdleTimeoutMs: 900000, ShowStatusBar: true}))

	if b.data == nil {
		t.Fatal("expected default document to be persisted")
	}
	if got := s.Settings(); got.IdleTimeoutMs != 900000 || !got.ShowStatusBar {
		t.Errorf("unexpected default settings: %+v", got)
	}
	if !strings.Contains(string(b.data), `"version":2`) {
		t.Errorf("expected current version in document, got %s", b.data)
	}
}

func TestInitializeMigratesV1(t *testing.T) {
	b := &memBackend{data: []byte(`{
		"version": 1,
		"dailyAggregates": {
			"2024-01-01": {"totalTimeMs": 1000, "languageTime": {"go": 1000}, "projectTime": {"/p": 1000}}
		},
		"settings": {"idleTimeoutMs": 60000}
	}`)}
	s := newTestStore(t, b, fixedClock(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)))

	aggs := s.Aggregates("2024-01-01", "2024-01-01")
	a, ok := aggs["2024-01-01"]
	if !ok {
		t.Fatal("migrated aggregate missing")
	}
	if a.FileWorkspaces == nil || a.FileTimeMs == nil {
		t.Error("migration should allocate v2 maps")
	}
	if !strings.Contains(string(b.data), `"version":2`) {
		t.Error("migrated document should be persisted at the current version")
	}
}

func TestInitializeRejectsFutureVersion(t *testing.T) {
	b := &memBackend{data: []byte(`{"version": 99, "dailyAggregates": {}}`)}
	s := New(b, WithLogger(quietLogger))
	err := s.Initialize(context.Background())
	if !errors.Is(err, ErrIncompatibleVersion) {
		t.Fatalf("expected ErrIncompatibleVersion, got %v", err)
	}
}

func TestGetOrCreatePersistsImmediately(t *testing.T) {
	b := &memBackend{}
	s := newTestStore(t, b, fixedClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
	before := b.writes

	s.Today(context.Background())
	if b.writes != before+1 {
		t.Errorf("expected creating today's aggregate to persist once, got %d writes", b.writes-before)
	}
	s.Today(context.Background())
	if b.writes != before+1 {
		t.Error("reading an existing aggregate should not persist")
	}
}

// Property: time routed through RecordTime keeps the language and project
// sums equal to the day total.
func TestRecordTimeConservation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		s := newTestStore(t, &memBackend{}, func() time.Time { return now })
		ctx := context.Background()

		langs := []string{"go", "typescript", "", "python"}
		projects := []string{"/a", "/b", ""}
		n := rapid.IntRange(1, 30).Draw(rt, "n")
		for i := 0; i < n; i++ {
			sess := &session.Session{
				LanguageID:    rapid.SampledFrom(langs).Draw(rt, "lang"),
				WorkspacePath: rapid.SampledFrom(projects).Draw(rt, "project"),
				IsActive:      rapid.Bool().Draw(rt, "active"),
			}
			d := time.Duration(rapid.Int64Range(0, int64(time.Hour)).Draw(rt, "d"))
			hour := rapid.IntRange(0, 23).Draw(rt, "hour")
			_ = s.RecordTime(ctx, sess, d, hour, IsNightOwlHour(hour))
		}

		a := s.Today(ctx)
		var langSum, projSum, hourSum int64
		for _, v := range a.LanguageTime {
			langSum += v
		}
		for _, v := range a.ProjectTime {
			projSum += v
		}
		for _, v := range a.HourlyDistribution {
			hourSum += v
		}
		if langSum != a.TotalTimeMs || projSum != a.TotalTimeMs || hourSum != a.TotalTimeMs {
			rt.Fatalf("sums diverge: total=%d lang=%d project=%d hourly=%d", a.TotalTimeMs, langSum, projSum, hourSum)
		}
		if a.ActiveTimeMs > a.TotalTimeMs || a.NightOwlTimeMs > a.TotalTimeMs {
			rt.Fatalf("sub-totals exceed total: %+v", a)
		}
	})
}

func TestRecordTimeUsesDateAtFlush(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 50, 0, 0, time.UTC)
	s := newTestStore(t, &memBackend{}, func() time.Time { return now })
	ctx := context.Background()
	sess := session.New(session.Context{LanguageID: "go", WorkspacePath: "/p"}, now)

	_ = s.RecordTime(ctx, sess, 10*time.Minute, 23, true)
	now = now.Add(20 * time.Minute)
	_ = s.RecordTime(ctx, sess, 10*time.Minute, 0, true)

	aggs := s.Aggregates("2024-05-01", "2024-05-02")
	if aggs["2024-05-01"].TotalTimeMs != (10 * time.Minute).Milliseconds() {
		t.Errorf("first day: got %d", aggs["2024-05-01"].TotalTimeMs)
	}
	if aggs["2024-05-02"].TotalTimeMs != (10 * time.Minute).Milliseconds() {
		t.Errorf("second day: got %d", aggs["2024-05-02"].TotalTimeMs)
	}
}

func TestLongestSessionMonotonic(t *testing.T) {
	s := newTestStore(t, &memBackend{}, fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	_ = s.UpdateLongestSession(ctx, 30*time.Minute)
	_ = s.UpdateLongestSession(ctx, 10*time.Minute)
	if got := s.Today(ctx).LongestSessionMs; got != (30 * time.Minute).Milliseconds() {
		t.Errorf("longest session decreased: got %d", got)
	}
}

func TestIncrementEditedFileCountOncePerFile(t *testing.T) {
	s := newTestStore(t, &memBackend{}, fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	_ = s.IncrementEditedFileCount(ctx, "/p/a.go", "p")
	_ = s.IncrementEditedFileCount(ctx, "/p/a.go", "p")
	_ = s.IncrementEditedFileCount(ctx, "/p/b.go", "p")

	a := s.Today(ctx)
	if a.EditedFileCount != 2 {
		t.Errorf("EditedFileCount = %d, want 2", a.EditedFileCount)
	}
	if a.FileWorkspaces["/p/a.go"] != "p" {
		t.Errorf("workspace not remembered: %v", a.FileWorkspaces)
	}
}

func TestPersistRetriesThenWarns(t *testing.T) {
	b := &memBackend{}
	w := &recordingWarner{}
	s := newTestStore(t, b, time.Now, WithWarner(w))

	b.failNext = 2
	if err := s.Persist(context.Background()); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if len(w.messages) != 0 {
		t.Errorf("no warning expected after a late success, got %v", w.messages)
	}

	b.failNext = 3
	before := b.writes
	err := s.Persist(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if b.writes-before != 3 {
		t.Errorf("expected 3 attempts, got %d", b.writes-before)
	}
	if len(w.messages) != 1 {
		t.Errorf("expected one warning, got %v", w.messages)
	}
}

func TestPersistFailureKeepsCache(t *testing.T) {
	b := &memBackend{}
	s := newTestStore(t, b, fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	ctx := context.Background()
	s.Today(ctx)

	b.failNext = 100
	sess := &session.Session{LanguageID: "go", WorkspacePath: "/p", IsActive: true}
	if err := s.RecordTime(ctx, sess, time.Minute, 12, false); err == nil {
		t.Fatal("expected persistence error")
	}
	if got := s.Today(ctx).TotalTimeMs; got != time.Minute.Milliseconds() {
		t.Errorf("in-memory increment lost: %d", got)
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t, &memBackend{}, fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	ctx := context.Background()
	s.Today(ctx)
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if len(s.dates()) != 0 {
		t.Errorf("expected no dates after ClearAll, got %v", s.dates())
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	b, err := NewFileBackend("")
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}

	if _, err := b.Read(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist before first write, got %v", err)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, b, fixedClock(now))
	sess := session.New(session.Context{LanguageID: "go", WorkspacePath: "/p", FileName: "/p/main.go"}, now)
	ctx := context.Background()
	_ = s.RecordTime(ctx, sess, time.Minute, 12, false)
	_ = s.SetCurrentSession(ctx, sess)

	reloaded := newTestStore(t, b, fixedClock(now))
	if got := reloaded.Today(ctx).LanguageTime["go"]; got != time.Minute.Milliseconds() {
		t.Errorf("reloaded language time = %d", got)
	}
	cur := reloaded.CurrentSession()
	if cur == nil || cur.ID != sess.ID || !cur.StartTime.Equal(sess.StartTime) {
		t.Errorf("current session not round-tripped: %+v", cur)
	}
}

func TestIsNightOwlHourEdges(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{21, false},
		{22, true},
		{23, true},
		{0, true},
		{3, true},
		{4, false},
		{12, false},
	}
	for _, tt := range tests {
		if got := IsNightOwlHour(tt.hour); got != tt.want {
			t.Errorf("IsNightOwlHour(%d) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestFileBackendLockIsExclusive(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	held, err := b.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := b.Lock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Lock = %v, want ErrLocked", err)
	}
	if err := held.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := b.Lock()
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	var none *Lock
	if err := none.Release(); err != nil {
		t.Errorf("Release on nil lock: %v", err)
	}
}
