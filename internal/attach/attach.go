// Package attach orchestrates suspending the TUI, handing the real
// terminal to a tmux-attached PTY, and resuming the TUI once the
// operator detaches. The PTY mechanics themselves live in
// internal/tmux; this package only owns the terminal-mode dance around
// that call.
package attach

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/ciab/ciab/internal/session"
)

// ErrAttachFailed wraps any failure from the underlying tmux attach,
// surfaced to the caller after best-effort TUI restoration.
var ErrAttachFailed = fmt.Errorf("attach: failed")

// Handler owns the terminal file descriptor used for attach/detach.
type Handler struct {
	term *os.File // the real controlling terminal, typically os.Stdin
}

// New returns a Handler bound to f, the process's real terminal.
func New(f *os.File) *Handler {
	return &Handler{term: f}
}

// Attach suspends the TUI's hold on the terminal, attaches id's tmux
// session via mgr, blocks until the operator detaches, then restores
// the TUI. It always attempts to restore the terminal to a sane state,
// even on failure, before returning an error.
func (h *Handler) Attach(mgr *session.Manager, id uuid.UUID, detachKey byte) error {
	fd := int(h.term.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("%w: entering raw mode: %v", ErrAttachFailed, err)
	}
	leaveAltScreen()

	restore := func() {
		enterAltScreen()
		_ = term.Restore(fd, oldState)
	}

	cols, rows := 80, 24
	if w, r, err := term.GetSize(fd); err == nil {
		cols, rows = w, r
	}

	ticket, err := mgr.Attach(id, h.term, h.term, uint16(cols), uint16(rows), detachKey)
	if err != nil {
		restore()
		return fmt.Errorf("%w: %v", ErrAttachFailed, err)
	}

	attachErr := <-ticket.Done
	restore()

	if detachErr := mgr.Detach(id); detachErr != nil && attachErr == nil {
		attachErr = detachErr
	}
	if attachErr != nil {
		return fmt.Errorf("%w: %v", ErrAttachFailed, attachErr)
	}
	return nil
}

// leaveAltScreen and enterAltScreen toggle the terminal's alternate
// screen buffer directly via escape sequences, since the bubbletea
// program that owns the primary alt-screen is paused for the duration
// of the attach and cannot be asked to do this itself.
func leaveAltScreen() {
	fmt.Fprint(os.Stdout, "\x1b[?1049l")
}

func enterAltScreen() {
	fmt.Fprint(os.Stdout, "\x1b[?1049h")
}
