// Package worktree allocates and tracks git worktrees for sessions. It
// never touches tmux: its only job is mapping a (source repo, branch,
// session key) triple onto a directory under a managed root and back.
package worktree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ciab/ciab/internal/git"
	"github.com/ciab/ciab/internal/nameutil"
	"github.com/google/uuid"
)

// ErrConflict is returned by Create when the target directory or branch
// already exists.
var ErrConflict = errors.New("worktree: directory or branch already exists")

// Info describes one worktree discovered under the managed root, or just
// created by Create.
type Info struct {
	SourcePath   string
	WorktreePath string
	Branch       string
	SessionID    uuid.UUID // zero value if no persisted session claims it
}

// Allocator creates, lists, and removes worktrees under Root, following the
// layout:
//
//	<root>/by-name/<repo>--<branch>--<shortid>/   the worktree itself
//	<root>/by-session/<session-key>               symlink to the above
//
// The Allocator never inspects or mutates tmux state.
type Allocator struct {
	Root string
}

// New returns an Allocator rooted at root. The by-name and by-session
// directories are created lazily on first Create.
func New(root string) *Allocator {
	return &Allocator{Root: root}
}

func (a *Allocator) byNameDir() string    { return filepath.Join(a.Root, "by-name") }
func (a *Allocator) bySessionDir() string { return filepath.Join(a.Root, "by-session") }

// Create allocates a new branch (from HEAD of sourceRepo) and a worktree for
// it, symlinking by-session/<sessionKey> to the concrete path. Fails with
// ErrConflict if the target directory or branch already exists.
func (a *Allocator) Create(sourceRepo, branchName, sessionKey string) (Info, error) {
	if err := os.MkdirAll(a.byNameDir(), 0755); err != nil {
		return Info{}, fmt.Errorf("worktree: creating by-name dir: %w", err)
	}
	if err := os.MkdirAll(a.bySessionDir(), 0755); err != nil {
		return Info{}, fmt.Errorf("worktree: creating by-session dir: %w", err)
	}

	g := git.New(sourceRepo)
	if !g.IsRepo() {
		return Info{}, fmt.Errorf("worktree: %s is not a git repository", sourceRepo)
	}
	if exists, err := g.BranchExists(branchName); err != nil {
		return Info{}, fmt.Errorf("worktree: checking branch: %w", err)
	} else if exists {
		return Info{}, ErrConflict
	}

	sanitizedBranch := nameutil.Sanitize(branchName)
	repoName := nameutil.Sanitize(filepath.Base(filepath.Clean(sourceRepo)))
	shortID := uuid.New().String()[:8]
	dirName := fmt.Sprintf("%s--%s--%s", repoName, sanitizedBranch, shortID)
	worktreePath := filepath.Join(a.byNameDir(), dirName)

	if _, err := os.Stat(worktreePath); err == nil {
		return Info{}, ErrConflict
	}

	if err := g.AddWorktree(worktreePath, branchName); err != nil {
		return Info{}, fmt.Errorf("worktree: git worktree add: %w", err)
	}

	linkPath := filepath.Join(a.bySessionDir(), sessionKey)
	if _, err := os.Lstat(linkPath); err == nil {
		_ = g.RemoveWorktree(worktreePath)
		return Info{}, ErrConflict
	}
	if err := os.Symlink(worktreePath, linkPath); err != nil {
		_ = g.RemoveWorktree(worktreePath)
		return Info{}, fmt.Errorf("worktree: creating session symlink: %w", err)
	}

	return Info{
		SourcePath:   sourceRepo,
		WorktreePath: worktreePath,
		Branch:       branchName,
	}, nil
}

// ListAll scans the managed root and returns every worktree it finds.
func (a *Allocator) ListAll() ([]Info, error) {
	entries, err := os.ReadDir(a.byNameDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("worktree: scanning by-name dir: %w", err)
	}

	sessionBySymlinkTarget, err := a.sessionKeysByTarget()
	if err != nil {
		return nil, err
	}

	var out []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(a.byNameDir(), e.Name())
		g := git.New(path)
		branch, err := g.CurrentBranch()
		if err != nil {
			continue // not a valid worktree (e.g. mid-removal); skip rather than fail the scan
		}
		info := Info{WorktreePath: path, Branch: branch}
		if key, ok := sessionBySymlinkTarget[path]; ok {
			info.SessionID, _ = uuid.Parse(key)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorktreePath < out[j].WorktreePath })
	return out, nil
}

// sessionKeysByTarget maps each worktree path to the session key whose
// by-session symlink resolves to it.
func (a *Allocator) sessionKeysByTarget() (map[string]string, error) {
	result := map[string]string{}
	entries, err := os.ReadDir(a.bySessionDir())
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("worktree: scanning by-session dir: %w", err)
	}
	for _, e := range entries {
		linkPath := filepath.Join(a.bySessionDir(), e.Name())
		target, err := os.Readlink(linkPath)
		if err != nil {
			continue
		}
		result[target] = e.Name()
	}
	return result, nil
}

// FindForWorkspace returns every worktree whose source repository matches
// sourceRepo.
func (a *Allocator) FindForWorkspace(sourceRepo string) ([]Info, error) {
	all, err := a.ListAll()
	if err != nil {
		return nil, err
	}
	want := filepath.Clean(sourceRepo)
	var out []Info
	for _, info := range all {
		g := git.New(info.WorktreePath)
		if resolvesToSameRepo(g, want) {
			info.SourcePath = sourceRepo
			out = append(out, info)
		}
	}
	return out, nil
}

func resolvesToSameRepo(g *git.Git, wantSourceRepo string) bool {
	// A worktree's common git dir lives under <sourceRepo>/.git/worktrees/<name>;
	// reading it back out would require parsing .git, which is unnecessary
	// complexity here since the allocator already encodes the repo name into
	// the directory it creates.
	return strings.HasPrefix(filepath.Base(g.Dir), nameutil.Sanitize(filepath.Base(wantSourceRepo))+"--")
}

// Remove removes the worktree owned by sessionKey and its by-session
// symlink, pruning stale git worktree references. Idempotent: a missing
// symlink or worktree is not an error.
func (a *Allocator) Remove(sessionKey string) error {
	linkPath := filepath.Join(a.bySessionDir(), sessionKey)
	target, err := os.Readlink(linkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("worktree: reading session symlink: %w", err)
	}

	sourceRepo := findSourceRepoFor(target)
	if sourceRepo != "" {
		g := git.New(sourceRepo)
		if err := g.RemoveWorktree(target); err != nil {
			return fmt.Errorf("worktree: removing worktree: %w", err)
		}
	} else {
		// Source repo unknown (e.g. it was deleted); fall back to a direct
		// removal of the directory so the symlink never dangles.
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("worktree: removing worktree directory: %w", err)
		}
	}

	if err := os.Remove(linkPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("worktree: removing session symlink: %w", err)
	}
	return nil
}

// findSourceRepoFor reads the worktree's gitdir pointer to locate the
// source repository that registered it, so Remove can ask that repo to
// prune its worktree metadata rather than leaving it stale.
func findSourceRepoFor(worktreePath string) string {
	data, err := os.ReadFile(filepath.Join(worktreePath, ".git"))
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir: "
	if !strings.HasPrefix(line, prefix) {
		return ""
	}
	gitdir := strings.TrimPrefix(line, prefix)
	// gitdir looks like <sourceRepo>/.git/worktrees/<name>
	idx := strings.Index(gitdir, string(filepath.Separator)+".git"+string(filepath.Separator)+"worktrees")
	if idx < 0 {
		return ""
	}
	return gitdir[:idx]
}
