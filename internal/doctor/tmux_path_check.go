package doctor

import "os/exec"

// TmuxOnPathCheck verifies the tmux binary is reachable, since every
// session, preview, and attach operation shells out to it.
type TmuxOnPathCheck struct {
	BaseCheck
}

func (c TmuxOnPathCheck) Run(ctx *CheckContext) *CheckResult {
	path, err := exec.LookPath("tmux")
	if err != nil {
		return fail(c.Name(), err, "install tmux and ensure it is on PATH")
	}
	return ok(c.Name(), "tmux found at "+path)
}
