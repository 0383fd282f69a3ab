package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ciab/ciab/internal/store"
	"github.com/ciab/ciab/internal/tmux"
	"github.com/ciab/ciab/internal/worktree"
)

func TestReconcileAssignsAttachedRunningStopped(t *testing.T) {
	now := time.Now()
	records := []store.Record{
		{ID: uuid.New(), WorkspacePath: "/repo/a", TmuxName: tmux.Namespace + "attached", LastAccessedAt: now},
		{ID: uuid.New(), WorkspacePath: "/repo/a", TmuxName: tmux.Namespace + "running", LastAccessedAt: now},
		{ID: uuid.New(), WorkspacePath: "/repo/a", TmuxName: tmux.Namespace + "gone", LastAccessedAt: now},
	}
	live := []LiveSession{
		{Name: tmux.Namespace + "attached", HasClient: true},
		{Name: tmux.Namespace + "running", HasClient: false},
	}

	out := Reconcile(live, records, nil)
	if len(out) != 1 {
		t.Fatalf("len(workspaces) = %d, want 1", len(out))
	}
	byName := map[string]SessionStatus{}
	for _, s := range out[0].Sessions {
		byName[s.TmuxName] = s.Status
	}
	if byName[tmux.Namespace+"attached"] != Attached {
		t.Errorf("attached session status = %v, want Attached", byName[tmux.Namespace+"attached"])
	}
	if byName[tmux.Namespace+"running"] != Running {
		t.Errorf("running session status = %v, want Running", byName[tmux.Namespace+"running"])
	}
	if byName[tmux.Namespace+"gone"] != Stopped {
		t.Errorf("gone session status = %v, want Stopped", byName[tmux.Namespace+"gone"])
	}
}

func TestReconcileOrphanSessionMatchedToWorktree(t *testing.T) {
	live := []LiveSession{{Name: tmux.Namespace + "feature-x", HasClient: false}}
	worktrees := []worktree.Info{
		{SourcePath: "/repo/a", WorktreePath: "/root/by-name/a--feature-x--abcd1234", Branch: "feature-x"},
	}

	out := Reconcile(live, nil, worktrees)
	if len(out) != 1 {
		t.Fatalf("len(workspaces) = %d, want 1", len(out))
	}
	if out[0].Path != "/repo/a" {
		t.Errorf("workspace path = %q, want /repo/a", out[0].Path)
	}
	if len(out[0].Sessions) != 1 || out[0].Sessions[0].WorktreePath != worktrees[0].WorktreePath {
		t.Errorf("orphan session not matched to worktree: %+v", out[0].Sessions)
	}
}

func TestReconcileUnmatchedOrphanGoesToOrphanWorkspace(t *testing.T) {
	live := []LiveSession{{Name: tmux.Namespace + "mystery", HasClient: false}}

	out := Reconcile(live, nil, nil)
	if len(out) != 1 || out[0].Name != OrphanWorkspace {
		t.Fatalf("workspaces = %+v, want single orphan workspace", out)
	}
}

func TestReconcileWorktreeWithNoRecordOrTmuxEmitsStopped(t *testing.T) {
	worktrees := []worktree.Info{
		{SourcePath: "/repo/b", WorktreePath: "/root/by-name/b--dead--ffff0000", Branch: "dead"},
	}

	out := Reconcile(nil, nil, worktrees)
	if len(out) != 1 || len(out[0].Sessions) != 1 {
		t.Fatalf("workspaces = %+v", out)
	}
	if out[0].Sessions[0].Status != Stopped {
		t.Errorf("status = %v, want Stopped", out[0].Sessions[0].Status)
	}
}

func TestReconcileSortsSessionsByLastAccessedDescending(t *testing.T) {
	oldest := time.Now().Add(-2 * time.Hour)
	newest := time.Now()
	records := []store.Record{
		{ID: uuid.New(), WorkspacePath: "/repo/a", TmuxName: "s-old", DisplayName: "old", LastAccessedAt: oldest},
		{ID: uuid.New(), WorkspacePath: "/repo/a", TmuxName: "s-new", DisplayName: "new", LastAccessedAt: newest},
	}

	out := Reconcile(nil, records, nil)
	if len(out[0].Sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(out[0].Sessions))
	}
	if out[0].Sessions[0].DisplayName != "new" {
		t.Errorf("first session = %q, want newest first", out[0].Sessions[0].DisplayName)
	}
}

func TestReconcileSortsWorkspacesByName(t *testing.T) {
	records := []store.Record{
		{ID: uuid.New(), WorkspacePath: "/repo/zeta", TmuxName: "z"},
		{ID: uuid.New(), WorkspacePath: "/repo/alpha", TmuxName: "a"},
	}

	out := Reconcile(nil, records, nil)
	if len(out) != 2 || out[0].Name != "alpha" || out[1].Name != "zeta" {
		t.Fatalf("workspace order = %v, want [alpha zeta]", []string{out[0].Name, out[1].Name})
	}
}

func TestReconcileEmptyInputsReturnEmpty(t *testing.T) {
	out := Reconcile(nil, nil, nil)
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0", len(out))
	}
}

func TestReconcileTieBreakPrefersExactBranchSanitization(t *testing.T) {
	live := []LiveSession{{Name: tmux.Namespace + "feature-x", HasClient: false}}
	worktrees := []worktree.Info{
		{SourcePath: "/repo/a", WorktreePath: "/root/by-name/a--feature-x--1111", Branch: "feature/x"},
		{SourcePath: "/repo/a", WorktreePath: "/root/by-name/a--feature-x--2222", Branch: "feature-x"},
	}

	out := Reconcile(live, nil, worktrees)
	if len(out) != 1 || len(out[0].Sessions) != 2 {
		t.Fatalf("workspaces = %+v", out)
	}
	var matched, unmatched worktree.Info
	for _, s := range out[0].Sessions {
		if s.TmuxName != "" {
			for _, w := range worktrees {
				if w.WorktreePath == s.WorktreePath {
					matched = w
				}
			}
		} else {
			for _, w := range worktrees {
				if w.WorktreePath == s.WorktreePath {
					unmatched = w
				}
			}
		}
	}
	if matched.Branch != "feature-x" {
		t.Errorf("live session matched to %q, want the exact-sanitization branch feature-x", matched.Branch)
	}
	if unmatched.WorktreePath != "/root/by-name/a--feature-x--1111" {
		t.Errorf("other worktree emitted as Stopped = %+v, want the feature/x one", unmatched)
	}
}
