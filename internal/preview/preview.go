// Package preview polls a session's tmux pane on a fixed period and
// delivers the captured content to the UI's live-view pane. It never
// subscribes to tmux notifications; it is a plain ticker loop, matching
// the teacher's deadline-bounded polling idiom elsewhere in the
// codebase.
package preview

import (
	"errors"
	"time"

	"github.com/ciab/ciab/internal/tmux"
)

// Mode selects what CapturePane mode a tick uses and whether the UI
// should auto-scroll to the bottom of the delivered content.
type Mode int

const (
	// Normal captures only the visible viewport; the UI auto-scrolls.
	Normal Mode = iota
	// Scroll captures full history; content freezes on entry and does
	// not update again until the loop exits Scroll mode.
	Scroll
)

// Frame is one delivery to the UI's live-view pane.
type Frame struct {
	SessionName string
	Content     string
	Gone        bool // true if capture failed with tmux.ErrSessionGone
}

// Capturer is the subset of *tmux.Tmux the Loop needs, narrowed so
// tests can substitute a fake.
type Capturer interface {
	CapturePane(name string, mode tmux.CaptureMode) (string, error)
}

// Loop runs the periodic capture. It is not safe for concurrent calls
// to SetMode/SetTarget/Tick from multiple goroutines without external
// synchronization; in practice only the Event Router's single
// goroutine drives it.
type Loop struct {
	capturer Capturer
	period   time.Duration

	mode   Mode
	target string // tmux session name currently previewed, "" if none

	frozen   string // Scroll-mode frame captured at entry, held until mode changes
	hasFroze bool

	goneTarget string // target whose ErrSessionGone frame was already delivered

	// RequestReconcile is called (if non-nil) the first time a capture of
	// the current target fails with ErrSessionGone, so the caller can
	// schedule a Reconciler run on the next tick.
	RequestReconcile func()

	// IsAttached is consulted (if non-nil) at the top of every Tick; a
	// true result skips the capture entirely. A session being attached
	// means a PTY already holds it, so a capture-pane call is redundant
	// and would otherwise race the attached client's own screen state.
	IsAttached func(tmuxName string) bool
}

// New returns a Loop that captures from capturer every period.
func New(capturer Capturer, period time.Duration) *Loop {
	return &Loop{capturer: capturer, period: period, mode: Normal}
}

// SetTarget changes which tmux session is previewed. Changing targets
// implicitly exits Scroll mode's freeze, since the frozen content
// belonged to the previous target.
func (l *Loop) SetTarget(tmuxName string) {
	if l.target == tmuxName {
		return
	}
	l.target = tmuxName
	l.hasFroze = false
	l.goneTarget = ""
}

// SetMode switches between Normal and Scroll. Entering Scroll does not
// itself capture; the freeze happens on the next Tick. Exiting Scroll
// clears the freeze so the following tick resumes Normal behavior.
func (l *Loop) SetMode(m Mode) {
	if l.mode == m {
		return
	}
	l.mode = m
	if m == Normal {
		l.hasFroze = false
	}
}

// Mode reports the current mode.
func (l *Loop) Mode() Mode { return l.mode }

// Tick performs one capture-and-deliver cycle. Returns the zero Frame,
// false if there is no target to preview.
func (l *Loop) Tick() (Frame, bool) {
	if l.target == "" {
		return Frame{}, false
	}

	if l.IsAttached != nil && l.IsAttached(l.target) {
		return Frame{}, false
	}

	if l.mode == Scroll && l.hasFroze {
		return Frame{SessionName: l.target, Content: l.frozen}, true
	}

	captureMode := tmux.Visible
	if l.mode == Scroll {
		captureMode = tmux.FullHistory
	}

	content, err := l.capturer.CapturePane(l.target, captureMode)
	if err != nil {
		if errors.Is(err, tmux.ErrSessionGone) {
			if l.goneTarget == l.target {
				return Frame{}, false // already delivered; stop until the target changes
			}
			l.goneTarget = l.target
			if l.RequestReconcile != nil {
				l.RequestReconcile()
			}
			return Frame{SessionName: l.target, Gone: true}, true
		}
		return Frame{}, false
	}
	l.goneTarget = ""

	if l.mode == Scroll {
		l.frozen = content
		l.hasFroze = true
	}

	return Frame{SessionName: l.target, Content: content}, true
}

// Run ticks every l.period until stop is closed, sending each delivered
// Frame to out. Run is meant to be launched in its own goroutine; out
// should be buffered or drained promptly since Run blocks on send.
func (l *Loop) Run(stop <-chan struct{}, out chan<- Frame) {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if frame, ok := l.Tick(); ok {
				select {
				case out <- frame:
				case <-stop:
					return
				}
			}
		}
	}
}
