package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ciab/ciab/internal/nameutil"
	"github.com/ciab/ciab/internal/store"
	"github.com/ciab/ciab/internal/tmux"
	"github.com/ciab/ciab/internal/worktree"
)

// ErrNameConflict is returned by Create when the computed tmux_name
// collides with an existing session, own or foreign, in the ciab_*
// namespace.
var ErrNameConflict = errors.New("session: tmux name conflict")

// ErrNotFound is returned by operations on an unknown session id.
var ErrNotFound = errors.New("session: not found")

// Manager owns the two in-memory indices described in spec.md §4.5:
// by-id Sessions and by-id tmux Handles. It is single-owner — every
// mutation happens under mu, and long-running work (tmux calls,
// filesystem I/O) never releases mu across a point where another
// goroutine could observe partial state.
type Manager struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*Session
	handles map[uuid.UUID]*tmux.Handle

	tmux      *tmux.Tmux
	worktrees *worktree.Allocator
	store     store.Store
	logger    *slog.Logger

	historyLimit int // 0 means leave tmux's default
	enableMouse  bool
}

// NewManager returns a Manager composing the given Tmux Controller,
// Worktree Allocator, and Store.
func NewManager(t *tmux.Tmux, w *worktree.Allocator, s store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		byID:      make(map[uuid.UUID]*Session),
		handles:   make(map[uuid.UUID]*tmux.Handle),
		tmux:      t,
		worktrees: w,
		store:     s,
		logger:    logger,
	}
}

// SetTmuxDefaults configures the scrollback limit and mouse mode applied
// to every session Create spawns afterward, per the config file's
// tmux_history_limit and enable_mouse_scroll.
func (m *Manager) SetTmuxDefaults(historyLimit int, enableMouse bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyLimit = historyLimit
	m.enableMouse = enableMouse
}

// Create allocates a worktree, spawns the tmux session, persists the
// record, and inserts it into the indices, in that order, rolling back
// prior steps on any failure.
func (m *Manager) Create(p CreateParams) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. Compute tmux_name and check for a collision, own or foreign.
	base := p.Branch
	if base == "" {
		base = p.DisplayName
	}
	tmuxName := tmux.Namespace + nameutil.Sanitize(base)
	for _, s := range m.byID {
		if s.TmuxName == tmuxName {
			return uuid.Nil, ErrNameConflict
		}
	}
	if exists, err := m.tmux.HasSession(tmuxName); err != nil {
		return uuid.Nil, fmt.Errorf("session: checking tmux namespace: %w", err)
	} else if exists {
		return uuid.Nil, ErrNameConflict
	}

	id := uuid.New()

	// 2. Allocate the worktree. No prior step to roll back on failure.
	info, err := m.worktrees.Create(p.Workspace, p.Branch, id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("session: allocating worktree: %w", err)
	}

	// 3. Compose environment: base env ∪ caller env ∪ mode-specific keys.
	env := map[string]string{}
	for k, v := range p.Environment {
		env[k] = v
	}
	env["CIAB_MODE"] = p.Mode.String()
	if p.Mode == Boss {
		env["CIAB_PROMPT"] = p.Prompt
	}

	// 4. Create the tmux session in the worktree; roll back the worktree
	// on failure.
	if err := m.tmux.Create(tmuxName, info.WorktreePath, p.Program, env); err != nil {
		_ = m.worktrees.Remove(id.String())
		return uuid.Nil, fmt.Errorf("session: creating tmux session: %w", err)
	}

	// Re-apply the composed environment via set-environment: -e on
	// new-session only seeds what the pane's shell inherits at start.
	for k, v := range env {
		if err := m.tmux.SetEnvironment(tmuxName, k, v); err != nil {
			m.logger.Warn("session: setting environment", "tmux_name", tmuxName, "key", k, "err", err)
		}
	}
	if m.historyLimit > 0 {
		if err := m.tmux.SetHistoryLimit(tmuxName, m.historyLimit); err != nil {
			m.logger.Warn("session: setting history limit", "tmux_name", tmuxName, "err", err)
		}
	}
	if m.enableMouse {
		if err := m.tmux.EnableMouseMode(tmuxName); err != nil {
			m.logger.Warn("session: enabling mouse mode", "tmux_name", tmuxName, "err", err)
		}
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:             id,
		DisplayName:    p.DisplayName,
		WorkspacePath:  p.Workspace,
		BranchName:     p.Branch,
		WorktreePath:   info.WorktreePath,
		TmuxName:       tmuxName,
		Status:         StatusRunning,
		CreatedAt:      now,
		LastAccessedAt: now,
		Environment:    env,
		Program:        p.Program,
		Mode:           p.Mode,
		BossPrompt:     p.Prompt,
	}

	// 5. Persist; roll back tmux and the worktree on failure.
	if err := m.store.Save(toRecord(sess)); err != nil {
		m.logger.Error("session: persisting record failed, rolling back", "id", id, "err", err)
		_ = m.tmux.Kill(tmuxName)
		_ = m.worktrees.Remove(id.String())
		return uuid.Nil, fmt.Errorf("session: persisting record: %w", err)
	}

	// 6. Insert into indices.
	m.byID[id] = sess
	m.handles[id] = tmux.NewHandle(tmuxName)

	return id, nil
}

// IsAttached reports whether the session with the given tmux_name is
// currently Attached, used by the Preview Loop to skip captures while a
// PTY holds the session (spec §8 property 6: no preview captures during
// an attach).
func (m *Manager) IsAttached(tmuxName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.TmuxName == tmuxName {
			return s.Status == StatusAttached
		}
	}
	return false
}

// Get returns the session with id, if present.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	return s, ok
}

// List returns every known session (including Stopped ones awaiting
// cleanup).
func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, s)
	}
	return out
}

// Attach delegates to the Tmux Controller's PTY attach, sets status
// Attached, and updates last_accessed_at.
func (m *Manager) Attach(id uuid.UUID, stdin io.Reader, stdout io.Writer, cols, rows uint16, detachKey byte) (*tmux.AttachTicket, error) {
	m.mu.Lock()
	sess, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	handle, ok := m.handles[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	m.mu.Unlock()

	ticket, err := m.tmux.Attach(handle, stdin, stdout, cols, rows, detachKey)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	sess.Status = StatusAttached
	sess.LastAccessedAt = time.Now().UTC()
	m.mu.Unlock()

	return ticket, nil
}

// Detach marks id Detached once its AttachTicket has completed. The
// caller (the Attach Handler) is responsible for awaiting the ticket
// before calling this.
func (m *Manager) Detach(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	sess.Status = StatusDetached
	return nil
}

// Cleanup deletes a session: kill tmux (idempotent), remove the worktree
// (idempotent), delete the persistence record (idempotent), remove from
// the indices. It is the only way to delete a session, must not trigger a
// full reconcile, and is bounded by kernel-level filesystem/tmux I/O only.
func (m *Manager) Cleanup(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byID[id]
	if !ok {
		return nil // already gone; idempotent
	}

	if err := m.tmux.Kill(sess.TmuxName); err != nil {
		m.logger.Error("session: cleanup: killing tmux session", "id", id, "err", err)
		return fmt.Errorf("session: killing tmux session: %w", err)
	}
	if err := m.worktrees.Remove(id.String()); err != nil {
		m.logger.Error("session: cleanup: removing worktree", "id", id, "err", err)
		return fmt.Errorf("session: removing worktree: %w", err)
	}
	if err := m.store.Delete(id); err != nil {
		m.logger.Error("session: cleanup: deleting record", "id", id, "err", err)
		return fmt.Errorf("session: deleting record: %w", err)
	}

	delete(m.byID, id)
	delete(m.handles, id)
	return nil
}

// Restore is called once at start-up: it loads persisted records, lists
// live ciab_* tmux sessions, and inserts Detached entries for records
// whose tmux session is live (Attached is never restored — no process
// holds its PTY after a restart) and Stopped entries for the rest, kept
// in the map so the UI can surface them for cleanup.
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.store.LoadAll()
	if err != nil {
		return fmt.Errorf("session: loading persisted records: %w", err)
	}

	live, err := m.tmux.List()
	if err != nil {
		return fmt.Errorf("session: listing tmux sessions: %w", err)
	}
	liveSet := make(map[string]bool, len(live))
	for _, name := range live {
		liveSet[name] = true
	}

	for _, r := range records {
		sess := fromRecord(r)
		if liveSet[r.TmuxName] {
			sess.Status = StatusDetached
			m.handles[sess.ID] = tmux.NewHandle(r.TmuxName)
		} else {
			sess.Status = StatusStopped
		}
		m.byID[sess.ID] = sess
	}
	return nil
}
