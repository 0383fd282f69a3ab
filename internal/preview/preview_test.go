package preview

import (
	"testing"
	"time"

	"github.com/ciab/ciab/internal/tmux"
)

type fakeCapturer struct {
	visible, full string
	err           error
	calls         []tmux.CaptureMode
}

func (f *fakeCapturer) CapturePane(name string, mode tmux.CaptureMode) (string, error) {
	f.calls = append(f.calls, mode)
	if f.err != nil {
		return "", f.err
	}
	if mode == tmux.FullHistory {
		return f.full, nil
	}
	return f.visible, nil
}

func TestTickWithNoTargetReturnsFalse(t *testing.T) {
	l := New(&fakeCapturer{}, time.Second)
	if _, ok := l.Tick(); ok {
		t.Error("Tick with no target returned ok=true")
	}
}

func TestNormalModeUsesVisibleCapture(t *testing.T) {
	cap := &fakeCapturer{visible: "v1"}
	l := New(cap, time.Second)
	l.SetTarget("ciab_x")

	frame, ok := l.Tick()
	if !ok || frame.Content != "v1" {
		t.Fatalf("frame = %+v, ok=%v", frame, ok)
	}
	if cap.calls[0] != tmux.Visible {
		t.Errorf("capture mode = %v, want Visible", cap.calls[0])
	}
}

func TestScrollModeFreezesOnEntry(t *testing.T) {
	cap := &fakeCapturer{full: "history-v1"}
	l := New(cap, time.Second)
	l.SetTarget("ciab_x")
	l.SetMode(Scroll)

	frame1, _ := l.Tick()
	if frame1.Content != "history-v1" {
		t.Fatalf("first scroll tick = %q", frame1.Content)
	}

	cap.full = "history-v2"
	frame2, _ := l.Tick()
	if frame2.Content != "history-v1" {
		t.Errorf("second scroll tick = %q, want frozen history-v1", frame2.Content)
	}
}

func TestExitingScrollResumesNormalOnNextTick(t *testing.T) {
	cap := &fakeCapturer{visible: "v-normal", full: "v-scroll"}
	l := New(cap, time.Second)
	l.SetTarget("ciab_x")
	l.SetMode(Scroll)
	l.Tick()

	l.SetMode(Normal)
	frame, _ := l.Tick()
	if frame.Content != "v-normal" {
		t.Errorf("content after exiting scroll = %q, want v-normal", frame.Content)
	}
}

func TestSessionGoneRequestsReconcileAndMarksFrame(t *testing.T) {
	cap := &fakeCapturer{err: tmux.ErrSessionGone}
	l := New(cap, time.Second)
	l.SetTarget("ciab_x")

	requested := false
	l.RequestReconcile = func() { requested = true }

	frame, ok := l.Tick()
	if !ok || !frame.Gone {
		t.Fatalf("frame = %+v, ok=%v, want Gone=true", frame, ok)
	}
	if !requested {
		t.Error("RequestReconcile was not called")
	}
}

func TestAttachedTargetSkipsCapture(t *testing.T) {
	cap := &fakeCapturer{visible: "v1"}
	l := New(cap, time.Second)
	l.SetTarget("ciab_x")
	l.IsAttached = func(name string) bool { return name == "ciab_x" }

	if _, ok := l.Tick(); ok {
		t.Error("Tick with an attached target returned ok=true")
	}
	if len(cap.calls) != 0 {
		t.Errorf("CapturePane called %d times, want 0", len(cap.calls))
	}
}

func TestSwitchingTargetClearsFreeze(t *testing.T) {
	cap := &fakeCapturer{full: "a-history"}
	l := New(cap, time.Second)
	l.SetTarget("ciab_a")
	l.SetMode(Scroll)
	l.Tick()

	l.SetTarget("ciab_b")
	cap.full = "b-history"
	frame, _ := l.Tick()
	if frame.Content != "b-history" {
		t.Errorf("content after switching target = %q, want fresh capture b-history", frame.Content)
	}
}
