package doctor

import (
	"fmt"
	"os"
	"path/filepath"
)

// OrphanSymlinkCheck finds worktrees/by-session/* symlinks whose target
// no longer exists — left behind by a Remove that was interrupted before
// unlinking, or by manual deletion of the concrete worktree directory.
type OrphanSymlinkCheck struct {
	FixableCheck
}

func (c OrphanSymlinkCheck) bySessionDir(ctx *CheckContext) string {
	return filepath.Join(ctx.WorktreeRoot, "by-session")
}

func (c OrphanSymlinkCheck) orphans(ctx *CheckContext) ([]string, error) {
	dir := c.bySessionDir(ctx)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var orphans []string
	for _, e := range entries {
		link := filepath.Join(dir, e.Name())
		if _, err := os.Stat(link); os.IsNotExist(err) {
			orphans = append(orphans, link)
		}
	}
	return orphans, nil
}

func (c OrphanSymlinkCheck) Run(ctx *CheckContext) *CheckResult {
	orphans, err := c.orphans(ctx)
	if err != nil {
		return fail(c.Name(), err, "")
	}
	if len(orphans) == 0 {
		return ok(c.Name(), "no orphaned session symlinks")
	}
	result := warn(c.Name(), fmt.Sprintf("%d orphaned session symlink(s) found", len(orphans)),
		"run `ciab doctor --fix` to remove them")
	for _, o := range orphans {
		result.Details += o + "\n"
	}
	return result
}

func (c OrphanSymlinkCheck) Fix(ctx *CheckContext) error {
	orphans, err := c.orphans(ctx)
	if err != nil {
		return err
	}
	for _, o := range orphans {
		if err := os.Remove(o); err != nil {
			return fmt.Errorf("removing orphaned symlink %s: %w", o, err)
		}
	}
	return nil
}
