package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ciab/ciab/internal/session"
)

// handleWizardKey advances or rewinds the new-session wizard. Each
// step's advance condition is a non-empty required field plus plain
// Enter; Escape rewinds, or cancels from the first step.
func (m *Model) handleWizardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		return m.wizardBack()
	}
	if key.Matches(msg, m.keys.Enter) {
		return m.wizardAdvance()
	}

	switch m.wizard.Step {
	case StepSelectRepository:
		m.wizard.Repository = appendRune(m.wizard.Repository, msg)
	case StepInputBranch:
		m.wizard.Branch = appendRune(m.wizard.Branch, msg)
	case StepSelectMode:
		switch msg.String() {
		case "b":
			m.wizard.Mode = session.Boss
		case "i":
			m.wizard.Mode = session.Interactive
		}
	case StepInputPrompt:
		m.wizard.Prompt = appendRune(m.wizard.Prompt, msg)
	}
	return m, nil
}

func appendRune(s string, msg tea.KeyMsg) string {
	if msg.Type == tea.KeyBackspace {
		if len(s) > 0 {
			return s[:len(s)-1]
		}
		return s
	}
	if msg.Type == tea.KeyRunes {
		return s + string(msg.Runes)
	}
	return s
}

func (m *Model) wizardAdvance() (tea.Model, tea.Cmd) {
	switch m.wizard.Step {
	case StepSelectRepository:
		if m.wizard.Repository == "" {
			return m, nil
		}
		m.wizard.Step = StepInputBranch
	case StepInputBranch:
		if m.wizard.Branch == "" {
			return m, nil
		}
		m.wizard.Step = StepSelectMode
	case StepSelectMode:
		if m.wizard.Mode == session.Boss {
			m.wizard.Step = StepInputPrompt
		} else {
			m.wizard.Step = StepConfigurePermissions
		}
	case StepInputPrompt:
		if m.wizard.Prompt == "" {
			return m, nil
		}
		m.wizard.Step = StepConfigurePermissions
	case StepConfigurePermissions:
		return m.submitWizard()
	}
	return m, nil
}

func (m *Model) wizardBack() (tea.Model, tea.Cmd) {
	switch m.wizard.Step {
	case StepSelectRepository:
		m.view = ViewSessionList
	case StepInputBranch:
		m.wizard.Step = StepSelectRepository
	case StepSelectMode:
		m.wizard.Step = StepInputBranch
	case StepInputPrompt:
		m.wizard.Step = StepSelectMode
	case StepConfigurePermissions:
		if m.wizard.Mode == session.Boss {
			m.wizard.Step = StepInputPrompt
		} else {
			m.wizard.Step = StepSelectMode
		}
	}
	return m, nil
}

// sessionCreatedMsg carries the result of a submitWizard Create call
// back into Update, which alone may mutate Model state on its behalf.
type sessionCreatedMsg struct {
	err error
}

func (m *Model) submitWizard() (tea.Model, tea.Cmd) {
	w := m.wizard
	mgr := m.mgr
	m.view = ViewSessionList
	return m, func() tea.Msg {
		_, err := mgr.Create(session.CreateParams{
			Workspace: w.Repository,
			Branch:    w.Branch,
			Mode:      w.Mode,
			Prompt:    w.Prompt,
			Program:   defaultProgramFor(w.Mode),
		})
		return sessionCreatedMsg{err: err}
	}
}

func defaultProgramFor(mode session.Mode) string {
	if mode == session.Boss {
		return "claude"
	}
	return "bash"
}
