package tmux

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAttachDetachKeyEndsSession(t *testing.T) {
	tm := New()
	name := Namespace + "test_" + uuid.New().String()[:8]
	if err := tm.Create(name, os.TempDir(), "sleep 60", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = tm.Kill(name) })

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer stdinW.Close()

	var stdout nullWriter
	h := NewHandle(name)

	const detachKey = 0x11 // Ctrl-Q
	ticket, err := tm.Attach(h, stdinR, &stdout, 80, 24, detachKey)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if h.State() != StateAttached {
		t.Errorf("State() after Attach = %v, want StateAttached", h.State())
	}

	// Wait past the noise window before sending the detach key, otherwise
	// it would be discarded as mode-change noise rather than scanned.
	time.Sleep(100 * time.Millisecond)
	if _, err := stdinW.Write([]byte{detachKey}); err != nil {
		t.Fatalf("writing detach key: %v", err)
	}

	select {
	case err := <-ticket.Done:
		if err != nil {
			t.Errorf("Done received error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Done never signaled after detach key")
	}
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

var _ io.Writer = nullWriter{}
