// Package session implements the Session Manager: the authoritative
// in-memory map of Sessions, composing the Worktree Allocator, Tmux
// Controller, and Session Persistence exactly as spec.md §4.5 describes.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Status is a Session's lifecycle state.
type Status int

const (
	StatusCreated Status = iota
	StatusRunning
	StatusAttached
	StatusDetached
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusAttached:
		return "attached"
	case StatusDetached:
		return "detached"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Mode selects how a session's program is invoked.
type Mode int

const (
	// Interactive runs an interactive program until detached or killed.
	Interactive Mode = iota
	// Boss executes a single prompt non-interactively; the program is
	// expected to exit on its own.
	Boss
)

func (m Mode) String() string {
	if m == Boss {
		return "boss"
	}
	return "interactive"
}

// Session is one entry in the Manager's in-memory map.
type Session struct {
	ID             uuid.UUID
	DisplayName    string
	WorkspacePath  string
	BranchName     string
	WorktreePath   string
	TmuxName       string
	Status         Status
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Environment    map[string]string
	Program        string
	Mode           Mode
	BossPrompt     string
}

// CreateParams describes a new session request.
type CreateParams struct {
	Workspace   string // absolute path to the source repository
	Branch      string
	DisplayName string
	Mode        Mode
	Environment map[string]string
	Program     string
	Prompt      string // Boss mode only
}
