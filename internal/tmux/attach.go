package tmux

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// ErrAttachFailed is surfaced when setting up an attach (PTY open or the
// tmux attach-session launch) fails before any I/O pump starts.
var ErrAttachFailed = errors.New("tmux: attach failed")

// noiseWindow is how long Input discards bytes after an attach starts, to
// absorb the terminal-mode-change noise (escape sequences flushed by the
// TUI leaving its alternate screen, stray key-up events, etc.) that would
// otherwise be forwarded to tmux or misread as the detach key.
const noiseWindow = 50 * time.Millisecond

// State is a Handle's position in the Created -> Detached -> Attached ->
// Killed state machine. Killed is terminal.
type State int

const (
	StateCreated State = iota
	StateDetached
	StateAttached
	StateKilled
)

// Handle is the in-memory handle a Session Manager holds for one tmux
// session's lifetime. It tracks only the attach state machine; the
// session's existence on the tmux server is the source of truth for
// everything else.
type Handle struct {
	Name string

	mu    sync.Mutex
	state State
}

// NewHandle returns a Handle in the Detached state for an already-created
// tmux session named name.
func NewHandle(name string) *Handle {
	return &Handle{Name: name, state: StateDetached}
}

// State reports the handle's current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// MarkKilled transitions the handle to the terminal Killed state.
// Idempotent.
func (h *Handle) MarkKilled() { h.setState(StateKilled) }

// AttachTicket is returned by Attach. Done receives exactly once, when the
// attach session has ended (by detach key, tmux session death, or error).
type AttachTicket struct {
	Done <-chan error
}

// detachSequence is tmux's default prefix (C-b) followed by 'd', injected
// into the PTY to ask the attached tmux client to detach cleanly rather
// than killing the client process.
var detachSequence = []byte{0x02, 'd'}

// Attach hands the controlling terminal to tmux: it opens a PTY sized to
// cols/rows, launches `tmux attach-session -t name` bound to the PTY's
// slave side, and spawns the output/input pump goroutines described by
// the attach protocol. stdin/stdout are the caller's already-raw-mode
// terminal streams (the caller is responsible for entering and leaving
// raw mode / the alternate screen around this call).
//
// detachKey is the single byte that, when seen on stdin after the noise
// window, ends the attach: it is not forwarded to tmux, and instead
// tmux's own detach sequence (prefix + d) is injected into the PTY so
// tmux drains its output and releases the terminal cleanly.
func (t *Tmux) Attach(h *Handle, stdin io.Reader, stdout io.Writer, cols, rows uint16, detachKey byte) (*AttachTicket, error) {
	if h.State() == StateKilled {
		return nil, ErrSessionGone
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening pty: %v", ErrAttachFailed, err)
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		ptmx.Close()
		tty.Close()
		return nil, fmt.Errorf("%w: sizing pty: %v", ErrAttachFailed, err)
	}

	cmd := exec.Command("tmux", "attach-session", "-t", h.Name)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		tty.Close()
		return nil, fmt.Errorf("%w: starting tmux attach-session: %v", ErrAttachFailed, err)
	}
	tty.Close() // the child owns the slave now; our copy must close for EOF to propagate

	h.setState(StateAttached)

	done := make(chan error, 1)
	var once sync.Once
	signal := func(err error) { once.Do(func() { done <- err }) }

	go func() {
		_, err := io.Copy(stdout, ptmx)
		signal(err)
	}()

	go func() {
		start := time.Now()
		buf := make([]byte, 4096)
		for {
			n, rerr := stdin.Read(buf)
			if n > 0 {
				switch {
				case time.Since(start) < noiseWindow:
					// discard: terminal mode-change noise from TUI teardown
				default:
					if idx := indexByte(buf[:n], detachKey); idx >= 0 {
						if idx > 0 {
							ptmx.Write(buf[:idx])
						}
						ptmx.Write(detachSequence)
						signal(nil)
						return
					}
					ptmx.Write(buf[:n])
				}
			}
			if rerr != nil {
				signal(rerr)
				return
			}
		}
	}()

	go func() {
		_ = cmd.Wait() // tmux attach-session exits 0 on clean detach; failures surface via the output pump's EOF
		ptmx.Close()
		h.setState(StateDetached)
	}()

	return &AttachTicket{Done: done}, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
