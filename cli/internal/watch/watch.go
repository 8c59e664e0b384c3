// Package watch re-runs generation when descriptor inputs change.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts into one run.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a set of files for changes
type Watcher struct {
	files    map[string]bool
	callback func() error
	watcher  *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	errs     func(error)
}

// NewWatcher watches files and calls callback after each burst of
// writes. Parent directories are watched so editors that replace files on
// save are still seen.
func NewWatcher(files []string, callback func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		files:    make(map[string]bool),
		callback: callback,
		watcher:  watcher,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
		errs: func(err error) {
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
		},
	}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// SetDebounce changes the quiet period before the callback runs.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// OnError replaces the default error reporter.
func (w *Watcher) OnError(fn func(error)) {
	w.errs = fn
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	path, err := filepath.Abs(event.Name)
	return err == nil && w.files[path]
}

// Start begins watching in the background.
func (w *Watcher) Start() {
	go func() {
		timer := time.NewTimer(w.debounce)
		timer.Stop()
		var fire <-chan time.Time

		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if w.relevant(event) {
					timer.Reset(w.debounce)
					fire = timer.C
				}

			case <-fire:
				if err := w.callback(); err != nil {
					w.errs(err)
				}
				fire = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.errs(err)

			case <-w.done:
				return
			}
		}
	}()
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
