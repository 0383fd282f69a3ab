// Package reconcile merges the three authoritative sources of truth —
// live tmux sessions, persisted records, and discovered worktrees — into
// the workspace-grouped tree the UI renders. Reconcile is a pure
// function: it never mutates tmux, the filesystem, or its inputs.
package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ciab/ciab/internal/nameutil"
	"github.com/ciab/ciab/internal/store"
	"github.com/ciab/ciab/internal/tmux"
	"github.com/ciab/ciab/internal/worktree"
)

// OrphanWorkspace is the synthetic workspace name used for live tmux
// sessions that cannot be matched to any worktree.
const OrphanWorkspace = "orphan"

// LiveSession is one entry from the tmux Controller's session list,
// carrying the has-attached-client bit the Attached/Running distinction
// needs. Computing it is the caller's job (list() + list-clients()); the
// Reconciler itself makes no tmux calls.
type LiveSession struct {
	Name      string
	HasClient bool
}

// SessionStatus mirrors session.Status's string values without importing
// the session package, keeping Reconcile's dependency graph a pure leaf.
type SessionStatus string

const (
	Attached SessionStatus = "attached"
	Running  SessionStatus = "running"
	Stopped  SessionStatus = "stopped"
)

// Session is one row the UI renders under a Workspace.
type Session struct {
	ID             uuid.UUID // zero value for a synthesized orphan/worktree-only entry
	DisplayName    string
	TmuxName       string
	WorktreePath   string
	BranchName     string
	Status         SessionStatus
	LastAccessedAt time.Time
}

// Workspace groups Sessions by source repository.
type Workspace struct {
	Name     string // derived display name (repo directory base name)
	Path     string // workspace_path: absolute path to the source repository
	Branch   string // current branch of the source repository, if known
	Sessions []Session
}

// Reconcile implements spec.md §4.6's algorithm.
func Reconcile(live []LiveSession, records []store.Record, worktrees []worktree.Info) []Workspace {
	liveByName := make(map[string]LiveSession, len(live))
	for _, l := range live {
		liveByName[l.Name] = l
	}
	matchedLive := make(map[string]bool, len(live))

	worktreeByPath := make(map[string]worktree.Info, len(worktrees))
	for _, w := range worktrees {
		worktreeByPath[w.WorktreePath] = w
	}
	matchedWorktree := make(map[string]bool, len(worktrees))

	byWorkspace := map[string]*Workspace{}
	order := []string{}
	getWorkspace := func(path string) *Workspace {
		if ws, ok := byWorkspace[path]; ok {
			return ws
		}
		ws := &Workspace{Name: workspaceName(path), Path: path}
		byWorkspace[path] = ws
		order = append(order, path)
		return ws
	}

	// Step 1 & 2: group persisted records, assigning Attached/Running/Stopped.
	for _, r := range records {
		l, isLive := liveByName[r.TmuxName]
		matchedLive[r.TmuxName] = isLive
		if info, ok := worktreeByPath[r.WorktreePath]; ok {
			matchedWorktree[info.WorktreePath] = true
		}

		status := Stopped
		if isLive {
			if l.HasClient {
				status = Attached
			} else {
				status = Running
			}
		}

		ws := getWorkspace(r.WorkspacePath)
		ws.Sessions = append(ws.Sessions, Session{
			ID:             r.ID,
			DisplayName:    r.DisplayName,
			TmuxName:       r.TmuxName,
			WorktreePath:   r.WorktreePath,
			BranchName:     r.BranchName,
			Status:         status,
			LastAccessedAt: r.LastAccessedAt,
		})
	}

	// Step 3: live tmux sessions with no matching record, matched to a
	// worktree by shared sanitized suffix, else attributed to "orphan".
	for _, l := range live {
		if matchedLive[l.Name] {
			continue
		}
		if best, ok := bestWorktreeMatch(l.Name, worktrees, matchedWorktree); ok {
			matchedWorktree[best.WorktreePath] = true
			ws := getWorkspace(best.SourcePath)
			ws.Sessions = append(ws.Sessions, Session{
				TmuxName:     l.Name,
				WorktreePath: best.WorktreePath,
				BranchName:   best.Branch,
				Status:       statusFor(l),
			})
			continue
		}
		ws := getWorkspace(OrphanWorkspace)
		ws.Sessions = append(ws.Sessions, Session{
			TmuxName: l.Name,
			Status:   statusFor(l),
		})
	}

	// Step 4: worktrees with no matching record and no live tmux session.
	for _, w := range worktrees {
		if matchedWorktree[w.WorktreePath] {
			continue
		}
		ws := getWorkspace(w.SourcePath)
		ws.Sessions = append(ws.Sessions, Session{
			WorktreePath: w.WorktreePath,
			BranchName:   w.Branch,
			Status:       Stopped,
		})
	}

	// Step 5: sort sessions within each workspace by last_accessed_at
	// descending, then workspaces by name.
	result := make([]Workspace, 0, len(order))
	for _, path := range order {
		ws := byWorkspace[path]
		sort.SliceStable(ws.Sessions, func(i, j int) bool {
			return ws.Sessions[i].LastAccessedAt.After(ws.Sessions[j].LastAccessedAt)
		})
		result = append(result, *ws)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func statusFor(l LiveSession) SessionStatus {
	if l.HasClient {
		return Attached
	}
	return Running
}

// bestWorktreeMatch implements the tie-break rule: prefer the worktree
// whose branch's exact sanitization equals the tmux name's suffix after
// the namespace prefix; otherwise the lexicographically smallest
// candidate worktree path among those sharing the sanitized suffix.
func bestWorktreeMatch(tmuxName string, worktrees []worktree.Info, taken map[string]bool) (worktree.Info, bool) {
	suffix := strings.TrimPrefix(tmuxName, tmux.Namespace)

	var candidates []worktree.Info
	var exact *worktree.Info
	for i := range worktrees {
		w := worktrees[i]
		if taken[w.WorktreePath] {
			continue
		}
		if nameutil.Sanitize(w.Branch) == suffix {
			if exact == nil || w.WorktreePath < exact.WorktreePath {
				wCopy := w
				exact = &wCopy
			}
			candidates = append(candidates, w)
		}
	}
	if exact != nil {
		return *exact, true
	}
	if len(candidates) == 0 {
		return worktree.Info{}, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].WorktreePath < candidates[j].WorktreePath })
	return candidates[0], true
}

func workspaceName(path string) string {
	if path == OrphanWorkspace {
		return OrphanWorkspace
	}
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 || idx == len(path)-1 {
		return path
	}
	return path[idx+1:]
}
