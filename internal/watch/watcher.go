package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to a fixed set of files. It watches their parent
// directories so that files replaced by rename (editors, atomic writers)
// keep being tracked.
type Watcher struct {
	Debounce time.Duration

	onChange func(path string)
	paths    map[string]string // absolute path -> path as given
	watcher  *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New starts watching paths. onChange runs on its own goroutine once per
// debounced change or removal, with the path as it was given to New.
func New(paths []string, onChange func(path string)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		Debounce: DefaultDebounce,
		onChange: onChange,
		paths:    make(map[string]string, len(paths)),
		watcher:  watcher,
		timers:   make(map[string]*time.Timer),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.paths[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch directory %s: %w", dir, err)
		}
		slog.Debug("Watching directory", "dir", dir)
	}

	return w, nil
}

// Run dispatches change notifications until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			given, ok := w.paths[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			slog.Debug("File changed", "path", given, "op", event.Op.String())
			w.schedule(given)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", "err", err)
		}
	}
}

// schedule resets the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.Debounce, func() {
		w.onChange(path)
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	_ = w.watcher.Close()
}
