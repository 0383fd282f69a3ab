// Package lockfile wraps gofrs/flock for ciab's advisory locks. The only
// lock ciab takes is the single-TUI-instance guard on <config_root>/ciab.lock;
// no lock is taken on the managed worktree root.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrAlreadyLocked is returned by TryAcquire when another process
// already holds the lock.
var ErrAlreadyLocked = errors.New("lockfile: already held by another process")

// Lock wraps an acquired flock, released by Unlock.
type Lock struct {
	fl *flock.Flock
}

// Acquire blocks until it holds an exclusive lock on path, creating
// parent directories as needed.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lockfile: creating lock directory: %w", err)
	}
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lockfile: acquiring %s: %w", path, err)
	}
	return &Lock{fl: fl}, nil
}

// TryAcquire attempts a non-blocking lock, used for the single-instance
// guard where a second concurrent TUI should fail fast rather than
// hang waiting for the first to exit.
func TryAcquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lockfile: creating lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lockfile: acquiring %s: %w", path, err)
	}
	if !ok {
		return nil, ErrAlreadyLocked
	}
	return &Lock{fl: fl}, nil
}

// TryAcquireWithRetry retries TryAcquire every interval until it succeeds
// or timeout elapses, returning ErrAlreadyLocked if the lock is still held
// then. Nothing in ciab outside this package's tests calls it.
func TryAcquireWithRetry(path string, timeout, interval time.Duration) (*Lock, error) {
	deadline := time.Now().Add(timeout)
	for {
		l, err := TryAcquire(path)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, ErrAlreadyLocked) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(interval)
	}
}

// Unlock releases the lock. Safe to call once; a second call is a
// harmless no-op of the underlying flock.
func (l *Lock) Unlock() error {
	return l.fl.Unlock()
}
