// Package doctor runs environment preflight checks for ciab: a slice of
// independent Check values, each reporting a CheckResult, some of which
// can also Fix themselves. Grounded on the teacher's internal/doctor
// package shape (one file per check, BaseCheck/FixableCheck embedding),
// scoped down to ciab's own invariants.
package doctor

// Status is a check's outcome.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Category groups related checks for `ciab doctor`'s summary output.
type Category string

const (
	CategoryEnvironment Category = "environment"
	CategoryConfig      Category = "config"
	CategoryWorktrees   Category = "worktrees"
)

// CheckContext carries the paths a Check needs without requiring it to
// rediscover them itself.
type CheckContext struct {
	ConfigRoot   string
	WorktreeRoot string
}

// CheckResult is a single check's report.
type CheckResult struct {
	Name    string
	Status  Status
	Message string
	Details string
	FixHint string
}

// Check is a single preflight check.
type Check interface {
	Name() string
	Category() Category
	Run(ctx *CheckContext) *CheckResult
}

// Fixer is implemented by checks that can repair what they find wrong.
type Fixer interface {
	Fix(ctx *CheckContext) error
}

// BaseCheck supplies the Name/Category boilerplate every Check needs.
type BaseCheck struct {
	CheckName     string
	CheckCategory Category
}

func (b BaseCheck) Name() string       { return b.CheckName }
func (b BaseCheck) Category() Category { return b.CheckCategory }

// FixableCheck is a BaseCheck that also implements Fixer.
type FixableCheck struct {
	BaseCheck
}

// AllChecks returns ciab's full preflight suite in report order.
func AllChecks() []Check {
	return []Check{
		TmuxOnPathCheck{BaseCheck{CheckName: "tmux-on-path", CheckCategory: CategoryEnvironment}},
		ConfigRootWritableCheck{BaseCheck{CheckName: "config-root-writable", CheckCategory: CategoryConfig}},
		WorktreeRootCheck{FixableCheck{BaseCheck{CheckName: "worktree-root-valid", CheckCategory: CategoryWorktrees}}},
		OrphanSymlinkCheck{FixableCheck{BaseCheck{CheckName: "no-orphaned-session-symlinks", CheckCategory: CategoryWorktrees}}},
	}
}

// Run executes every check against ctx and returns their results in order.
func Run(ctx *CheckContext, checks []Check) []*CheckResult {
	results := make([]*CheckResult, 0, len(checks))
	for _, c := range checks {
		results = append(results, c.Run(ctx))
	}
	return results
}

func ok(name, message string) *CheckResult {
	return &CheckResult{Name: name, Status: StatusOK, Message: message}
}

func warn(name, message, fixHint string) *CheckResult {
	return &CheckResult{Name: name, Status: StatusWarning, Message: message, FixHint: fixHint}
}

func fail(name string, err error, fixHint string) *CheckResult {
	return &CheckResult{Name: name, Status: StatusError, Message: err.Error(), FixHint: fixHint}
}
