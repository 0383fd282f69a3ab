package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ciab/ciab/internal/session"
	"github.com/ciab/ciab/internal/store"
	"github.com/ciab/ciab/internal/tmux"
	"github.com/ciab/ciab/internal/worktree"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	w := worktree.New(t.TempDir())
	mgr := session.NewManager(tmux.New(), w, s, nil)
	return New(mgr, nil, 0x11)
}

func keyMsg(runes string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(runes)}
}

func TestNewOpensWizardAtSelectRepository(t *testing.T) {
	m := newTestModel(t)
	model, _ := m.Update(keyMsg("n"))
	m = model.(*Model)
	if m.view != ViewNewSession {
		t.Fatalf("view = %v, want ViewNewSession", m.view)
	}
	if m.wizard.Step != StepSelectRepository {
		t.Errorf("step = %v, want StepSelectRepository", m.wizard.Step)
	}
}

func TestWizardRequiresNonEmptyFieldToAdvance(t *testing.T) {
	m := newTestModel(t)
	model, _ := m.Update(keyMsg("n"))
	m = model.(*Model)

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(*Model)
	if m.wizard.Step != StepSelectRepository {
		t.Fatalf("step advanced past empty required field: %v", m.wizard.Step)
	}

	model, _ = m.Update(keyMsg("/tmp/repo"))
	m = model.(*Model)
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(*Model)
	if m.wizard.Step != StepInputBranch {
		t.Fatalf("step = %v, want StepInputBranch after non-empty field + Enter", m.wizard.Step)
	}
}

func TestWizardInputPromptSkippedForInteractiveMode(t *testing.T) {
	m := newTestModel(t)
	m.view = ViewNewSession
	m.wizard = WizardState{Step: StepSelectMode, Mode: session.Interactive}

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(*Model)
	if m.wizard.Step != StepConfigurePermissions {
		t.Errorf("step = %v, want StepConfigurePermissions (InputPrompt skipped in Interactive mode)", m.wizard.Step)
	}
}

func TestWizardInputPromptRequiredForBossMode(t *testing.T) {
	m := newTestModel(t)
	m.view = ViewNewSession
	m.wizard = WizardState{Step: StepSelectMode, Mode: session.Boss}

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(*Model)
	if m.wizard.Step != StepInputPrompt {
		t.Errorf("step = %v, want StepInputPrompt for Boss mode", m.wizard.Step)
	}
}

func TestEscapeFromFirstWizardStepCancels(t *testing.T) {
	m := newTestModel(t)
	m.view = ViewNewSession
	m.wizard = WizardState{Step: StepSelectRepository}

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(*Model)
	if m.view != ViewSessionList {
		t.Errorf("view = %v, want ViewSessionList after Escape from first step", m.view)
	}
}

func TestEscapeFromLaterStepRewinds(t *testing.T) {
	m := newTestModel(t)
	m.view = ViewNewSession
	m.wizard = WizardState{Step: StepInputBranch, Repository: "/tmp/repo"}

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(*Model)
	if m.wizard.Step != StepSelectRepository {
		t.Errorf("step = %v, want StepSelectRepository after Escape rewind", m.wizard.Step)
	}
}

func TestDeleteKeyWithoutSelectionDoesNotOpenConfirmDialog(t *testing.T) {
	m := newTestModel(t)
	m.workspaces = nil // no sessions: selectedSessionID should find nothing
	model, _ := m.Update(keyMsg("d"))
	m = model.(*Model)
	if m.view == ViewConfirmDelete {
		t.Error("delete opened confirm dialog with no selected session")
	}
}

func TestQuitReturnsQuitCommand(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("quit key produced no command")
	}
}

func TestTabTogglesFocusedPane(t *testing.T) {
	m := newTestModel(t)
	if m.focusedPane != PaneList {
		t.Fatalf("initial focusedPane = %v, want PaneList", m.focusedPane)
	}
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = model.(*Model)
	if m.focusedPane != PanePreview {
		t.Errorf("focusedPane after Tab = %v, want PanePreview", m.focusedPane)
	}
}
