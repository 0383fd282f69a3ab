package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ciab/ciab/internal/config"
	"github.com/ciab/ciab/internal/doctor"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the environment is ready to run ciab",
	Long: `doctor runs ciab's preflight checks:

  - tmux-on-path                  tmux is installed and on PATH
  - config-root-writable          the config root can be created and written to
  - worktree-root-valid           the managed worktree root exists and is a directory (fixable)
  - no-orphaned-session-symlinks  worktrees/by-session/* has no dangling symlinks (fixable)

Pass --fix to repair anything fixable.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt to fix any problems found")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	root := cfg.ConfigRoot
	if root == "" {
		root, err = config.DefaultConfigRoot()
		if err != nil {
			return fmt.Errorf("resolving config root: %w", err)
		}
	}

	ctx := &doctor.CheckContext{
		ConfigRoot:   root,
		WorktreeRoot: filepath.Join(root, "worktrees"),
	}

	checks := doctor.AllChecks()
	failed := false
	for _, c := range checks {
		result := c.Run(ctx)
		printResult(cmd, result)

		if result.Status != doctor.StatusOK && doctorFix {
			if fixer, ok := c.(doctor.Fixer); ok {
				if err := fixer.Fix(ctx); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "    fix failed: %v\n", err)
					failed = true
					continue
				}
				result = c.Run(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "    after fix: %s\n", result.Status)
			}
		}
		if result.Status == doctor.StatusError {
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

func printResult(cmd *cobra.Command, r *doctor.CheckResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
	if r.Details != "" {
		fmt.Fprint(out, r.Details)
	}
	if r.Status != doctor.StatusOK && r.FixHint != "" {
		fmt.Fprintf(out, "    hint: %s\n", r.FixHint)
	}
}
