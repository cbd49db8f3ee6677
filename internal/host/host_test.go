package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/godbus/dbus/v5"

	"github.com/fakeyudi/codepulse/internal/tracker"
)

func TestLanguageID(t *testing.T) {
	cases := map[string]string{
		"/ws/main.go":         "go",
		"/ws/web/App.TSX":     "typescriptreact",
		"/ws/Dockerfile":      "dockerfile",
		"/ws/notes.unknown":   PlainText,
		"/ws/no-extension":    PlainText,
		"/ws/scripts/run.sh":  "shellscript",
		"/ws/api/schema.sql":  "sql",
		"/ws/proto/api.proto": "proto3",
	}
	for path, want := range cases {
		if got := LanguageID(path); got != want {
			t.Errorf("LanguageID(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLockEvent(t *testing.T) {
	own := dbus.ObjectPath("/org/freedesktop/login1/session/_32")
	locked := func(path dbus.ObjectPath, v bool) *dbus.Signal {
		return &dbus.Signal{
			Path: path,
			Name: signalPropertiesChanged,
			Body: []interface{}{login1Session, map[string]dbus.Variant{"LockedHint": dbus.MakeVariant(v)}, []string{}},
		}
	}

	cases := []struct {
		name    string
		sig     *dbus.Signal
		own     dbus.ObjectPath
		ok      bool
		focused bool
	}{
		{"suspend", &dbus.Signal{Name: signalPrepareForSleep, Body: []interface{}{true}}, own, true, false},
		{"resume", &dbus.Signal{Name: signalPrepareForSleep, Body: []interface{}{false}}, own, true, true},
		{"lock", locked(own, true), own, true, false},
		{"unlock", locked(own, false), own, true, true},
		{"other session", locked("/org/freedesktop/login1/session/c1", true), own, false, false},
		{"unknown own session", locked("/org/freedesktop/login1/session/c1", true), "", true, false},
		{"empty body", &dbus.Signal{Name: signalPrepareForSleep}, own, false, false},
		{"other interface", &dbus.Signal{Path: own, Name: signalPropertiesChanged, Body: []interface{}{"org.example", map[string]dbus.Variant{}}}, own, false, false},
		{"unrelated property", &dbus.Signal{Path: own, Name: signalPropertiesChanged, Body: []interface{}{login1Session, map[string]dbus.Variant{"IdleHint": dbus.MakeVariant(true)}}}, own, false, false},
		{"unrelated signal", &dbus.Signal{Name: login1Manager + ".SessionNew"}, own, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := lockEvent(tc.sig, tc.own)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if ev.Kind != tracker.FocusChanged || ev.Focused != tc.focused {
				t.Errorf("event = %+v, want focused=%v", ev, tc.focused)
			}
		})
	}
}

func newTestWatcher(t *testing.T, ignore []string, roots ...string) (*Watcher, chan tracker.Event) {
	t.Helper()
	out := make(chan tracker.Event, 16)
	w := NewWatcher(ignore, nil)
	w.Attach(out)
	if err := w.SetWorkspaces(context.Background(), roots); err != nil {
		t.Fatalf("SetWorkspaces: %v", err)
	}
	t.Cleanup(w.close)
	return w, out
}

func drain(ch chan tracker.Event) []tracker.Event {
	var evs []tracker.Event
	for {
		select {
		case ev := <-ch:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func TestWatcherPublishesContextThenContent(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "main.go")
	if err := os.WriteFile(existing, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, out := newTestWatcher(t, nil, root)
	ctx := context.Background()

	// Existing file grows by 11 bytes.
	if err := os.WriteFile(existing, []byte("package main\n// 4567890\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.handle(ctx, nil, fsnotify.Event{Name: existing, Op: fsnotify.Write})

	evs := drain(out)
	if len(evs) != 2 {
		t.Fatalf("got %d events, want 2", len(evs))
	}
	if evs[0].Kind != tracker.ContextChanged || evs[0].Context == nil {
		t.Fatalf("first event = %+v", evs[0])
	}
	c := evs[0].Context
	if c.LanguageID != "go" || c.FileName != existing || c.WorkspaceName != filepath.Base(root) {
		t.Errorf("context = %+v", c)
	}
	if evs[1].Kind != tracker.ContentChanged || evs[1].Characters != 11 {
		t.Errorf("content event = %+v, want 11 characters", evs[1])
	}

	if cur := w.CurrentContext(); cur == nil || cur.FileName != existing {
		t.Errorf("CurrentContext = %+v", cur)
	}
}

func TestWatcherCreateCountsWholeFile(t *testing.T) {
	root := t.TempDir()
	w, out := newTestWatcher(t, nil, root)

	path := filepath.Join(root, "new.py")
	if err := os.WriteFile(path, []byte("print(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.handle(context.Background(), nil, fsnotify.Event{Name: path, Op: fsnotify.Create})

	evs := drain(out)
	if len(evs) != 2 || evs[1].Characters != 9 {
		t.Fatalf("events = %+v", evs)
	}
}

func TestWatcherIgnoresPatternsAndOutsiders(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".codepulseignore"), []byte("# comment\n*.tmp\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, out := newTestWatcher(t, []string{"*.log"}, root)

	outside := filepath.Join(t.TempDir(), "x.go")
	paths := []string{
		filepath.Join(root, "debug.log"),
		filepath.Join(root, "scratch.tmp"),
		outside,
	}
	if err := os.MkdirAll(filepath.Join(root, "node_modules", "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	paths = append(paths, filepath.Join(root, "node_modules", "lib", "index.js"))
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		w.handle(context.Background(), nil, fsnotify.Event{Name: p, Op: fsnotify.Write})
	}

	if evs := drain(out); len(evs) != 0 {
		t.Errorf("ignored files produced events: %+v", evs)
	}
	if w.CurrentContext() != nil {
		t.Error("ignored files should not set the current context")
	}
}

func TestWatcherWorkspaceChange(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	w, out := newTestWatcher(t, nil, first)
	if evs := drain(out); len(evs) != 0 {
		t.Fatalf("initial workspace set should not publish, got %+v", evs)
	}

	path := filepath.Join(first, "a.rs")
	if err := os.WriteFile(path, []byte("fn main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.handle(context.Background(), nil, fsnotify.Event{Name: path, Op: fsnotify.Write})
	drain(out)

	if err := w.SetWorkspaces(context.Background(), []string{second}); err != nil {
		t.Fatal(err)
	}
	evs := drain(out)
	if len(evs) != 1 || evs[0].Kind != tracker.WorkspaceFoldersChanged {
		t.Fatalf("events = %+v", evs)
	}
	if w.CurrentContext() != nil {
		t.Error("context in a removed workspace should be cleared")
	}
	if ws := w.Workspaces(); len(ws) != 1 || ws[0].Name != filepath.Base(second) {
		t.Errorf("Workspaces = %+v", ws)
	}
}

func TestSetWorkspacesRejectsFiles(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWatcher(nil, nil)
	if err := w.SetWorkspaces(context.Background(), []string{f}); err == nil {
		t.Error("expected an error for a non-directory workspace")
	}
}
