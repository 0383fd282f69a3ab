// Package app implements the Event Router / App State: the bubbletea
// tea.Model that owns view selection, focus, the new-session wizard,
// and the attached/preview plumbing. It drives the Session Manager,
// the Reconciler, and the Preview Loop; it never talks to tmux or the
// filesystem directly.
package app

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/ciab/ciab/internal/preview"
	"github.com/ciab/ciab/internal/reconcile"
	"github.com/ciab/ciab/internal/session"
)

// View identifies which screen is on top.
type View int

const (
	ViewSessionList View = iota
	ViewSplitScreen
	ViewHelp
	ViewAttachedTerminal
	ViewNewSession
	ViewConfirmDelete
)

// Pane identifies a focusable region within a view.
type Pane int

const (
	PaneList Pane = iota
	PanePreview
)

// WizardStep is one step of the new-session flow. InputPrompt is
// skipped unless the chosen Mode is Boss.
type WizardStep int

const (
	StepSelectRepository WizardStep = iota
	StepInputBranch
	StepSelectMode
	StepInputPrompt
	StepConfigurePermissions
)

// WizardState accumulates the new-session wizard's in-progress input
// across steps.
type WizardState struct {
	Step       WizardStep
	Repository string
	Branch     string
	Mode       session.Mode
	Prompt     string
}

// Model is the bubbletea model driving the whole TUI.
type Model struct {
	width, height int

	view         View
	focusedPane  Pane
	selectedRepo int
	selectedSess int

	workspaces []reconcile.Workspace

	attachedSessionID uuid.UUID
	hasAttached       bool
	uiNeedsRefresh    bool

	wizard WizardState

	previewViewport viewport.Model
	previewContent  string

	help     help.Model
	showHelp bool
	keys     KeyMap

	detachKey byte

	mgr         *session.Manager
	previewLoop *preview.Loop

	reconcileFn func() []reconcile.Workspace
	attachFn    func(id uuid.UUID) error

	pendingDeleteID uuid.UUID
	err             error
}

// New returns a Model wired to mgr and a Preview Loop, starting in the
// session-list view.
func New(mgr *session.Manager, previewLoop *preview.Loop, detachKey byte) *Model {
	return &Model{
		view:        ViewSessionList,
		focusedPane: PaneList,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		mgr:         mgr,
		previewLoop: previewLoop,
		detachKey:   detachKey,
	}
}

// SetReconcileFunc installs the host's Reconciler invocation, called
// whenever the TUI requests a refresh (the "r" key, a filesystem
// watch event, or after an attach completes). The host owns every
// impure part of reconciling (listing tmux, reading the store and
// worktree allocator); App State only ever sees the resulting slice.
func (m *Model) SetReconcileFunc(fn func() []reconcile.Workspace) {
	m.reconcileFn = fn
}

// SetAttachFunc installs the host's terminal-suspend/attach routine,
// invoked synchronously from a tea.Cmd so App State never manages raw
// terminal mode itself.
func (m *Model) SetAttachFunc(fn func(id uuid.UUID) error) {
	m.attachFn = fn
}

// ReconcileRequestedMsg asks the Model to run the Reconciler and feed
// the result back via reconcileMsg. Sent by the host's filesystem
// watcher; the refresh key requests a reconcile directly.
type ReconcileRequestedMsg struct{}

// reconcileMsg carries a fresh Reconciler snapshot into Update.
type reconcileMsg struct {
	workspaces []reconcile.Workspace
}

// previewTickMsg triggers one preview-loop tick.
type previewTickMsg time.Time

// attachDoneMsg carries the result of a completed attach.
type attachDoneMsg struct {
	id  uuid.UUID
	err error
}

func (m *Model) Init() tea.Cmd {
	m.syncPreviewTarget()
	return tea.Batch(m.tickPreview(), m.requestReconcile(), tea.SetWindowTitle("ciab"))
}

func (m *Model) tickPreview() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return previewTickMsg(t)
	})
}

// SetWorkspaces installs a fresh Reconciler snapshot. Update calls it
// when a reconcileMsg arrives; the host may also call it directly.
func (m *Model) SetWorkspaces(ws []reconcile.Workspace) {
	m.workspaces = ws
	m.uiNeedsRefresh = true
}

// NeedsRefresh reports and clears the refresh flag, used by the host
// render loop to decide whether a redraw is due.
func (m *Model) NeedsRefresh() bool {
	v := m.uiNeedsRefresh
	m.uiNeedsRefresh = false
	return v
}
