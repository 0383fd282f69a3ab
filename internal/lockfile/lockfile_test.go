package lockfile

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "ciab.lock")
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestTryAcquireFailsWhenAlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ciab.lock")
	first, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}
	defer first.Unlock()

	if _, err := TryAcquire(path); err != ErrAlreadyLocked {
		t.Errorf("second TryAcquire err = %v, want ErrAlreadyLocked", err)
	}
}

func TestTryAcquireWithRetrySucceedsAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ciab.lock")
	first, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = first.Unlock()
	}()

	l, err := TryAcquireWithRetry(path, time.Second, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("TryAcquireWithRetry: %v", err)
	}
	_ = l.Unlock()
}

func TestTryAcquireWithRetryTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ciab.lock")
	first, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}
	defer first.Unlock()

	if _, err := TryAcquireWithRetry(path, 30*time.Millisecond, 5*time.Millisecond); err != ErrAlreadyLocked {
		t.Errorf("err = %v, want ErrAlreadyLocked", err)
	}
}
