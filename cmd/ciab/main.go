// ciab manages parallel AI coding sessions, each in its own git worktree
// and tmux session, from a single terminal UI.
package main

import (
	"os"

	"github.com/ciab/ciab/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
