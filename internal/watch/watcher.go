// Package watch reruns the pipeline when the working tree changes.
//
// A recursive fsnotify watcher feeds a debounce window: the first event
// arms a timer, further events inside the window rearm it, and when the
// tree goes quiet the run callback fires. A change arriving while a run
// is in flight cancels that run before the next one starts.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc is the callback fired after a quiet debounce window. The
// context is canceled when newer changes supersede the run.
type RunFunc func(ctx context.Context)

// Watcher watches a directory tree and triggers debounced reruns.
type Watcher struct {
	debounce time.Duration
	ignore   []string
	run      RunFunc
}

// New creates a [Watcher]. ignore entries are path substrings (matched
// against slash-separated relative paths) excluded from watching.
func New(debounce time.Duration, ignore []string, run RunFunc) *Watcher {
	return &Watcher{
		debounce: debounce,
		ignore:   ignore,
		run:      run,
	}
}

// Ignored reports whether a path is excluded from watching.
func (w *Watcher) Ignored(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range w.ignore {
		if pattern == "" {
			continue
		}
		if strings.Contains(slashed, pattern) {
			return true
		}
	}
	return false
}

// Watch blocks watching root until the context is canceled.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, root); err != nil {
		return err
	}

	return w.loop(ctx, fw)
}

// addTree registers root and every non-ignored subdirectory.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.Ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// loop consumes watcher events, debounces them, and drives the run
// callback. Newly created directories are added to the watch set.
func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) error {
	var timer *time.Timer
	var timerC <-chan time.Time

	var runCancel context.CancelFunc
	defer func() {
		if runCancel != nil {
			runCancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.Ignored(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// Best-effort: the path may already be gone.
				w.addTree(fw, event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if runCancel != nil {
				runCancel()
			}
			runCtx, cancel := context.WithCancel(ctx)
			runCancel = cancel
			go w.run(runCtx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
