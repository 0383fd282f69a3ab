package doctor

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigRootWritableCheck verifies ciab can create and write files under
// its config root (sessions/, worktrees/, auth/, the lockfile, config.yaml).
type ConfigRootWritableCheck struct {
	BaseCheck
}

func (c ConfigRootWritableCheck) Run(ctx *CheckContext) *CheckResult {
	if err := os.MkdirAll(ctx.ConfigRoot, 0o755); err != nil {
		return fail(c.Name(), fmt.Errorf("creating config root: %w", err), "check permissions on the parent directory")
	}
	probe := filepath.Join(ctx.ConfigRoot, ".doctor-write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fail(c.Name(), fmt.Errorf("writing probe file: %w", err), "check permissions on "+ctx.ConfigRoot)
	}
	defer os.Remove(probe)
	return ok(c.Name(), ctx.ConfigRoot+" is writable")
}
