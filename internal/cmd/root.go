// Package cmd wires ciab's cobra command tree: the default action launches
// the TUI, and `ciab doctor` runs environment preflight checks.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ciab/ciab/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ciab",
	Short: "Manage parallel AI coding sessions over tmux worktrees",
	Long: `ciab is a terminal UI for running several AI coding agents side by
side, each in its own git worktree and tmux session.

With no subcommand, ciab launches the TUI. Use "ciab doctor" to check
that tmux, the config root, and the managed worktree root are in a
healthy state before starting a session.`,
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: ~/.config/ciab/config.yaml)")
	rootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
