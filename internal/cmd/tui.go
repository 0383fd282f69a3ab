package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ciab/ciab/internal/app"
	"github.com/ciab/ciab/internal/attach"
	"github.com/ciab/ciab/internal/config"
	"github.com/ciab/ciab/internal/lockfile"
	"github.com/ciab/ciab/internal/preview"
	"github.com/ciab/ciab/internal/reconcile"
	"github.com/ciab/ciab/internal/session"
	"github.com/ciab/ciab/internal/store"
	"github.com/ciab/ciab/internal/tmux"
	"github.com/ciab/ciab/internal/watch"
	"github.com/ciab/ciab/internal/worktree"
)

func runTUI(cmd *cobra.Command, args []string) error {
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

	lock, err := lockfile.TryAcquire(filepath.Join(root, "ciab.lock"))
	if err != nil {
		return fmt.Errorf("another ciab instance is already running against %s: %w", root, err)
	}
	defer lock.Unlock()

	logger := newLogger()

	sessionsDir := filepath.Join(root, "sessions")
	worktreeRoot := filepath.Join(root, "worktrees")

	st, err := store.NewFileStore(sessionsDir, logger)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	alloc := worktree.New(worktreeRoot)
	t := tmux.New()
	if !t.IsAvailable() {
		return fmt.Errorf("tmux not found on PATH; run `ciab doctor` for details")
	}

	mgr := session.NewManager(t, alloc, st, logger)
	mgr.SetTmuxDefaults(cfg.TmuxHistoryLimit, cfg.EnableMouseScroll)
	if err := mgr.Restore(); err != nil {
		logger.Warn("restoring sessions from disk", "err", err)
	}

	previewLoop := preview.New(t, time.Duration(cfg.PreviewIntervalMS)*time.Millisecond)
	previewLoop.IsAttached = mgr.IsAttached

	watcher, err := watch.New(worktreeRoot, sessionsDir, logger)
	if err != nil {
		logger.Warn("starting filesystem watcher", "err", err)
	}

	model := app.New(mgr, previewLoop, cfg.DetachKey())
	model.SetReconcileFunc(func() []reconcile.Workspace {
		return runReconcile(t, st, alloc, logger)
	})

	program := tea.NewProgram(model, tea.WithAltScreen())

	model.SetAttachFunc(func(id uuid.UUID) error {
		if err := program.ReleaseTerminal(); err != nil {
			return fmt.Errorf("releasing terminal: %w", err)
		}
		defer program.RestoreTerminal()
		return attach.New(os.Stdin).Attach(mgr, id, cfg.DetachKey())
	})

	stop := make(chan struct{})
	if watcher != nil {
		defer watcher.Close()
		go watcher.Run(stop, func() {
			program.Send(app.ReconcileRequestedMsg{})
		})
		defer close(stop)
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// runReconcile gathers the live tmux, store, and worktree state and
// feeds it through the pure Reconciler. This is the only place that
// state-gathering and reconciling meet; App State never calls it
// directly.
func runReconcile(t *tmux.Tmux, st *store.FileStore, alloc *worktree.Allocator, logger interface {
	Warn(msg string, args ...any)
}) []reconcile.Workspace {
	names, err := t.List()
	if err != nil {
		logger.Warn("listing tmux sessions", "err", err)
	}
	live := make([]reconcile.LiveSession, 0, len(names))
	for _, name := range names {
		hasClient, err := t.HasClients(name)
		if err != nil {
			logger.Warn("checking tmux clients", "session", name, "err", err)
		}
		live = append(live, reconcile.LiveSession{Name: name, HasClient: hasClient})
	}

	records, err := st.LoadAll()
	if err != nil {
		logger.Warn("loading session records", "err", err)
	}

	worktrees, err := alloc.ListAll()
	if err != nil {
		logger.Warn("listing worktrees", "err", err)
	}

	return reconcile.Reconcile(live, records, worktrees)
}
