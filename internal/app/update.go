package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/ciab/ciab/internal/preview"
	"github.com/ciab/ciab/internal/session"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.previewViewport.Width = msg.Width
		m.previewViewport.Height = msg.Height - 4
		return m, nil

	case previewTickMsg:
		return m.handlePreviewTick()

	case reconcileMsg:
		m.SetWorkspaces(msg.workspaces)
		m.syncPreviewTarget()
		return m, nil

	case ReconcileRequestedMsg:
		return m, m.requestReconcile()

	case attachDoneMsg:
		m.hasAttached = false
		m.attachedSessionID = uuid.Nil
		m.view = ViewSessionList
		m.uiNeedsRefresh = true
		if msg.err != nil {
			m.err = msg.err
		}
		m.syncPreviewTarget()
		return m, m.requestReconcile()

	case cleanupDoneMsg:
		m.uiNeedsRefresh = true
		return m, m.requestReconcile()

	case sessionCreatedMsg:
		m.uiNeedsRefresh = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, m.requestReconcile()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handlePreviewTick() (tea.Model, tea.Cmd) {
	if m.previewLoop != nil {
		if frame, ok := m.previewLoop.Tick(); ok {
			m.previewContent = frame.Content
		}
	}
	return m, m.tickPreview()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewNewSession:
		return m.handleWizardKey(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	case ViewHelp:
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Quit) {
			m.view = ViewSessionList
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		if m.showHelp {
			m.view = ViewHelp
		}
		return m, nil
	case key.Matches(msg, m.keys.New):
		m.view = ViewNewSession
		m.wizard = WizardState{Step: StepSelectRepository, Mode: session.Interactive}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.selectedSessionID(); ok {
			m.pendingDeleteID = id
			m.view = ViewConfirmDelete
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.requestReconcile()
	case key.Matches(msg, m.keys.Tab):
		if m.focusedPane == PaneList {
			m.focusedPane = PanePreview
		} else {
			m.focusedPane = PaneList
		}
		return m, nil
	case key.Matches(msg, m.keys.Attach):
		if id, ok := m.selectedSessionID(); ok {
			return m.beginAttach(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.EnterScroll):
		if m.previewLoop != nil {
			m.previewLoop.SetMode(preview.Scroll)
		}
		return m, nil
	case key.Matches(msg, m.keys.ExitScroll):
		if m.previewLoop != nil {
			m.previewLoop.SetMode(preview.Normal)
		}
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return m, nil
	}
	return m, nil
}

// cleanupDoneMsg reports that a Cleanup call issued from
// handleConfirmDeleteKey's tea.Cmd has finished. It carries no error:
// Cleanup is idempotent and its failures are logged by the Manager, not
// surfaced to the UI.
type cleanupDoneMsg struct{}

func (m *Model) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		id := m.pendingDeleteID
		mgr := m.mgr
		m.view = ViewSessionList
		return m, func() tea.Msg {
			_ = mgr.Cleanup(id)
			return cleanupDoneMsg{}
		}
	case "n", "esc":
		m.view = ViewSessionList
		return m, nil
	}
	return m, nil
}

func (m *Model) beginAttach(id uuid.UUID) (tea.Model, tea.Cmd) {
	m.hasAttached = true
	m.attachedSessionID = id
	m.view = ViewAttachedTerminal
	m.syncPreviewTarget()
	if m.attachFn == nil {
		return m, nil
	}
	attachFn := m.attachFn
	return m, func() tea.Msg {
		return attachDoneMsg{id: id, err: attachFn(id)}
	}
}

// requestReconcile calls the host's injected Reconciler invocation; App
// State itself never scans tmux or the filesystem (the
// Reconciler-writes-to-App-State-only boundary).
func (m *Model) requestReconcile() tea.Cmd {
	if m.reconcileFn == nil {
		return nil
	}
	return func() tea.Msg {
		return reconcileMsg{workspaces: m.reconcileFn()}
	}
}

func (m *Model) selectedSessionID() (uuid.UUID, bool) {
	flat := m.flatSessions()
	if m.selectedSess < 0 || m.selectedSess >= len(flat) {
		return uuid.Nil, false
	}
	return flat[m.selectedSess].ID, true
}

func (m *Model) flatSessions() []sessionRow {
	var rows []sessionRow
	for _, ws := range m.workspaces {
		for _, s := range ws.Sessions {
			rows = append(rows, sessionRow{ID: s.ID, TmuxName: s.TmuxName, Name: fmt.Sprintf("%s/%s", ws.Name, s.BranchName)})
		}
	}
	return rows
}

type sessionRow struct {
	ID       uuid.UUID
	TmuxName string
	Name     string
}

func (m *Model) moveSelection(delta int) {
	n := len(m.flatSessions())
	if n == 0 {
		return
	}
	m.selectedSess = (m.selectedSess + delta + n) % n
	m.syncPreviewTarget()
}

// syncPreviewTarget points the Preview Loop at the attached session if
// one exists, else the currently-selected one, matching the split-screen
// live preview's "attached preferred, else selected" rule.
func (m *Model) syncPreviewTarget() {
	if m.previewLoop == nil {
		return
	}
	if m.hasAttached {
		if sess, ok := m.mgr.Get(m.attachedSessionID); ok {
			m.previewLoop.SetTarget(sess.TmuxName)
			return
		}
	}
	flat := m.flatSessions()
	if m.selectedSess >= 0 && m.selectedSess < len(flat) {
		m.previewLoop.SetTarget(flat[m.selectedSess].TmuxName)
		return
	}
	m.previewLoop.SetTarget("")
}
