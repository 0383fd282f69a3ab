// Package watch schedules Reconciler ticks off filesystem change events,
// supplementing the explicit "r" refresh key and start-up reconcile
// (spec.md §4.6) without altering the Reconciler's pull-based contract:
// a watch event only schedules a tick, it never mutates state itself.
package watch

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the managed worktree root and the sessions directory
// and calls Notify (debounced) whenever either changes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// New starts watching worktreeRoot and sessionsDir. Callers must call
// Close when done.
func New(worktreeRoot, sessionsDir string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(worktreeRoot); err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(sessionsDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{fsw: fsw, logger: logger, debounce: 250 * time.Millisecond}, nil
}

// Run blocks, calling notify at most once per debounce window whenever
// a filesystem event fires, until stop is closed.
func (w *Watcher) Run(stop <-chan struct{}, notify func()) {
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	var fireC <-chan time.Time
	for {
		select {
		case <-stop:
			return
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch: fsnotify error", "err", err)
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
			} else {
				if !pending.Stop() {
					select {
					case <-pending.C:
					default:
					}
				}
				pending.Reset(w.debounce)
			}
			fireC = pending.C
		case <-fireC:
			fireC = nil
			notify()
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
