package doctor

import (
	"fmt"
	"os"
)

// WorktreeRootCheck verifies the managed worktree root exists and is a
// directory (spec.md §3 invariant: worktrees only ever live under it).
type WorktreeRootCheck struct {
	FixableCheck
}

func (c WorktreeRootCheck) Run(ctx *CheckContext) *CheckResult {
	info, err := os.Stat(ctx.WorktreeRoot)
	if os.IsNotExist(err) {
		return warn(c.Name(), ctx.WorktreeRoot+" does not exist yet", "run `ciab doctor --fix` or create a session, which creates it on demand")
	}
	if err != nil {
		return fail(c.Name(), fmt.Errorf("stat %s: %w", ctx.WorktreeRoot, err), "check permissions on the parent directory")
	}
	if !info.IsDir() {
		return fail(c.Name(), fmt.Errorf("%s exists but is not a directory", ctx.WorktreeRoot), "remove the conflicting file")
	}
	return ok(c.Name(), ctx.WorktreeRoot+" exists and is a directory")
}

func (c WorktreeRootCheck) Fix(ctx *CheckContext) error {
	return os.MkdirAll(ctx.WorktreeRoot, 0o755)
}
