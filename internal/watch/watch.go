// Package watch rebuilds the site when its source directories change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc runs one build. Its error is logged; watching continues.
type RebuildFunc func(ctx context.Context) error

// Watcher triggers a rebuild whenever a file below one of its directories changes.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	rebuild  RebuildFunc

	// ignore reports paths whose changes never trigger a rebuild, such as the output tree.
	ignore []string
}

// New creates a watcher over dirs. Missing directories are skipped when Run starts.
func New(dirs []string, rebuild RebuildFunc) *Watcher {
	return &Watcher{dirs: dirs, debounce: DefaultDebounce, rebuild: rebuild}
}

// WithDebounce overrides the quiet period.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Ignore excludes paths, everything below them and their dotted siblings from
// triggering rebuilds.
func (w *Watcher) Ignore(paths ...string) *Watcher {
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	return w
}

// Run performs an initial build and then rebuilds on change until ctx is done.
// Builds never overlap; changes during a build schedule exactly one more.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, dir := range w.dirs {
		if st, statErr := os.Stat(dir); statErr != nil || !st.IsDir() {
			slog.Debug("Skipping missing watch directory", logfields.Path(dir))
			continue
		}
		addDirsRecursive(fw, dir)
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no existing directories to watch")
	}

	slog.Info("Watching for changes", logfields.Count(watched))
	return w.serve(ctx, fw.Events, fw.Errors, func(ev fsnotify.Event, trigger func()) {
		w.handleEvent(fw, ev, trigger)
	})
}

// serve runs the initial build and dispatches events until ctx is done or the
// event source closes. It returns once the rebuild worker has exited.
func (w *Watcher) serve(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, onEvent func(fsnotify.Event, func())) error {
	deb := newDebouncer(w.debounce)
	done := w.startWorker(ctx, deb.requests())
	defer func() {
		deb.close()
		<-done
	}()
	deb.request()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			onEvent(ev, deb.trigger)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || w.ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, p := range w.ignore {
		// p.* covers the staging and backup directories beside the output.
		if abs == p || strings.HasPrefix(abs, p+string(filepath.Separator)) || strings.HasPrefix(abs, p+".") {
			return true
		}
	}
	return false
}

// startWorker serializes rebuilds. The returned channel closes once the worker exits.
func (w *Watcher) startWorker(ctx context.Context, rebuildReq <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range rebuildReq {
			if ctx.Err() != nil {
				return
			}
			if err := w.rebuild(ctx); err != nil {
				slog.Warn("Rebuild failed", logfields.Error(err))
				continue
			}
			slog.Info("Rebuild complete")
		}
	}()
	return done
}

// debouncer holds room for one pending rebuild and fires it once changes have settled.
type debouncer struct {
	d time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	req    chan struct{}
}

func newDebouncer(d time.Duration) *debouncer {
	return &debouncer{d: d, req: make(chan struct{}, 1)}
}

func (db *debouncer) requests() <-chan struct{} { return db.req }

// trigger restarts the quiet period.
func (db *debouncer) trigger() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return
	}
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.d, db.request)
}

// request queues a rebuild unless one is already pending.
func (db *debouncer) request() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return
	}
	select {
	case db.req <- struct{}{}:
	default:
	}
}

// close stops the timer and closes the request channel. Later triggers are no-ops.
func (db *debouncer) close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return
	}
	db.closed = true
	if db.timer != nil {
		db.timer.Stop()
	}
	close(db.req)
}

func addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent filters hidden files and editor temporaries.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
