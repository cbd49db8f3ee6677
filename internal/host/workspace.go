// Package host adapts local signals into tracker events. The workspace
// watcher stands in for an editor: file writes under a watched workspace
// become context and content changes. The lock watcher maps screen lock and
// suspend to focus changes.
package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/codepulse/internal/session"
	"github.com/fakeyudi/codepulse/internal/tracker"
)

// ignoreFiles are read from each workspace root and merged with the
// configured patterns.
var ignoreFiles = []string{".gitignore", ".codepulseignore"}

// alwaysIgnored directories are never watched.
var alwaysIgnored = []string{".git", ".hg", ".svn", "node_modules"}

// Workspace is a watched root folder.
type Workspace struct {
	Name     string
	Path     string
	patterns []string
}

// Watcher watches workspace folders and publishes tracker events for file
// writes. It also answers the tracker's current-context query with the most
// recently written file.
type Watcher struct {
	mu         sync.Mutex
	workspaces []Workspace
	ignore     []string
	current    *session.Context
	sizes      map[string]int64
	fsw        *fsnotify.Watcher
	reload     chan struct{}
	out        chan<- tracker.Event
	log        *slog.Logger
}

// NewWatcher returns a watcher. Events are dropped until Attach.
func NewWatcher(ignore []string, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		ignore: ignore,
		sizes:  make(map[string]int64),
		reload: make(chan struct{}, 1),
		log:    log,
	}
}

// Attach sets the queue events are published to.
func (w *Watcher) Attach(out chan<- tracker.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.out = out
}

// CurrentContext returns the context of the last written file, or nil.
func (w *Watcher) CurrentContext() *session.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	c := *w.current
	return &c
}

// Workspaces returns the watched roots.
func (w *Watcher) Workspaces() []Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Workspace(nil), w.workspaces...)
}

// SetWorkspaces replaces the watched roots. When a previous set was being
// watched, a WorkspaceFoldersChanged event is published.
func (w *Watcher) SetWorkspaces(ctx context.Context, paths []string) error {
	var roots []Workspace
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve workspace %q: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("stat workspace: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("workspace %q is not a directory", abs)
		}
		ws := Workspace{Name: filepath.Base(abs), Path: abs}
		ws.patterns = w.loadIgnorePatterns(abs)
		roots = append(roots, ws)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	sizes := make(map[string]int64)
	for _, ws := range roots {
		if err := addTree(fsw, ws, ws.Path, sizes); err != nil {
			fsw.Close()
			return fmt.Errorf("watch %s: %w", ws.Path, err)
		}
	}

	w.mu.Lock()
	old := w.fsw
	changed := old != nil
	w.fsw = fsw
	w.workspaces = roots
	w.sizes = sizes
	if w.current != nil && w.workspaceFor(w.current.FileName) == nil {
		w.current = nil
	}
	w.mu.Unlock()

	if old != nil {
		old.Close()
	}
	select {
	case w.reload <- struct{}{}:
	default:
	}
	w.log.Debug("watching workspaces", "count", len(roots))
	if changed {
		w.publish(ctx, tracker.Event{Kind: tracker.WorkspaceFoldersChanged})
	}
	return nil
}

// Run forwards fsnotify events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		w.mu.Lock()
		fsw := w.fsw
		w.mu.Unlock()
		if fsw == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-w.reload:
				continue
			}
		}

		select {
		case <-ctx.Done():
			w.close()
			return nil
		case <-w.reload:
		case ev, ok := <-fsw.Events:
			if !ok {
				if w.replaced(fsw) {
					continue
				}
				return nil
			}
			w.handle(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				if w.replaced(fsw) {
					continue
				}
				return nil
			}
			// Watcher errors are non-fatal.
			w.log.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) replaced(fsw *fsnotify.Watcher) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsw != fsw
}

func (w *Watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
}

// handle turns one filesystem event into tracker events. fsw may be nil in
// tests, in which case new directories are not added.
func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.sizes, ev.Name)
		w.mu.Unlock()
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	ws := w.workspaceFor(ev.Name)
	if ws == nil || ws.ignored(ev.Name) {
		w.mu.Unlock()
		return
	}
	if info.IsDir() {
		w.mu.Unlock()
		if ev.Has(fsnotify.Create) && fsw != nil {
			if err := addTree(fsw, *ws, ev.Name, nil); err != nil {
				w.log.Debug("watch new directory", "path", ev.Name, "err", err)
			}
		}
		return
	}

	size := info.Size()
	prev, known := w.sizes[ev.Name]
	w.sizes[ev.Name] = size
	delta := size - prev
	if !known && !ev.Has(fsnotify.Create) {
		delta = 0
	}
	if delta < 0 {
		delta = -delta
	}

	c := &session.Context{
		WorkspaceName: ws.Name,
		WorkspacePath: ws.Path,
		LanguageID:    LanguageID(ev.Name),
		FileName:      ev.Name,
	}
	w.current = c
	w.mu.Unlock()

	w.publish(ctx, tracker.ContextEvent(c))
	w.publish(ctx, tracker.ContentEvent(delta))
}

func (w *Watcher) publish(ctx context.Context, ev tracker.Event) {
	w.mu.Lock()
	out := w.out
	w.mu.Unlock()
	if out == nil {
		return
	}
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

// workspaceFor returns the innermost workspace containing path.
func (w *Watcher) workspaceFor(path string) *Workspace {
	var best *Workspace
	for i := range w.workspaces {
		ws := &w.workspaces[i]
		if !within(ws.Path, path) {
			continue
		}
		if best == nil || len(ws.Path) > len(best.Path) {
			best = ws
		}
	}
	return best
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// addTree watches every directory under root, which lies inside ws. When
// sizes is non-nil it is primed with the size of every file found.
func addTree(fsw *fsnotify.Watcher, ws Workspace, root string, sizes map[string]int64) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if path != ws.Path && ws.ignored(path) {
				return filepath.SkipDir
			}
			if err := fsw.Add(path); err != nil && !errors.Is(err, fs.ErrPermission) {
				return err
			}
			return nil
		}
		if sizes != nil {
			if info, err := d.Info(); err == nil {
				sizes[path] = info.Size()
			}
		}
		return nil
	})
}

// ignored reports whether path lies in an always-ignored directory or
// matches one of the workspace's patterns.
func (ws Workspace) ignored(path string) bool {
	rel := path
	if r, err := filepath.Rel(ws.Path, path); err == nil {
		rel = r
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, dir := range alwaysIgnored {
			if part == dir {
				return true
			}
		}
	}
	base := filepath.Base(path)
	for _, pattern := range ws.patterns {
		pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "/"), "/")
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// loadIgnorePatterns merges the configured patterns with the ignore files
// found in root.
func (w *Watcher) loadIgnorePatterns(root string) []string {
	patterns := append([]string(nil), w.ignore...)
	for _, name := range ignoreFiles {
		extra, err := readPatternFile(filepath.Join(root, name))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				w.log.Debug("read ignore file", "path", name, "err", err)
			}
			continue
		}
		patterns = append(patterns, extra...)
	}
	return patterns
}

// readPatternFile reads a gitignore-style file and returns non-empty,
// non-comment, non-negated lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
