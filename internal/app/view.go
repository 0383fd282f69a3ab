package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m *Model) View() string {
	switch m.view {
	case ViewHelp:
		return m.help.View(m.keys)
	case ViewNewSession:
		return m.viewWizard()
	case ViewConfirmDelete:
		return m.viewConfirmDelete()
	case ViewAttachedTerminal:
		return "" // the real terminal belongs to tmux during attach; nothing to render
	case ViewSplitScreen:
		return lipgloss.JoinHorizontal(lipgloss.Top, m.viewSessionList(), m.previewContent)
	default:
		return m.viewSessionList()
	}
}

func (m *Model) viewSessionList() string {
	var b strings.Builder
	flatIdx := 0
	for i, ws := range m.workspaces {
		b.WriteString(headerStyle.Render(ws.Name))
		b.WriteString("\n")
		for _, s := range ws.Sessions {
			line := fmt.Sprintf("  %s [%s]", s.BranchName, s.Status)
			if flatIdx == m.selectedSess {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
			flatIdx++
		}
		if i < len(m.workspaces)-1 {
			b.WriteString("\n")
		}
	}
	if len(m.workspaces) == 0 {
		b.WriteString(dimStyle.Render("no sessions — press n to create one"))
	}
	return b.String()
}

func (m *Model) viewWizard() string {
	w := m.wizard
	var b strings.Builder
	b.WriteString(headerStyle.Render("New session"))
	b.WriteString("\n\n")
	switch w.Step {
	case StepSelectRepository:
		b.WriteString("Repository: " + w.Repository)
	case StepInputBranch:
		b.WriteString("Branch: " + w.Branch)
	case StepSelectMode:
		b.WriteString("Mode (i=Interactive, b=Boss): " + w.Mode.String())
	case StepInputPrompt:
		b.WriteString("Prompt: " + w.Prompt)
	case StepConfigurePermissions:
		b.WriteString("Press Enter to create.")
	}
	return b.String()
}

func (m *Model) viewConfirmDelete() string {
	return fmt.Sprintf("Delete session %s? (y/n)", m.pendingDeleteID)
}
