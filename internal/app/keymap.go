package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the session-list view's keyboard surface from spec.md §6.
// Grounded on bubbles/key's binding+help idiom, the same one the
// teacher's feed and convoy models build their own keymaps from.
type KeyMap struct {
	New          key.Binding
	Attach       key.Binding
	Delete       key.Binding
	Refresh      key.Binding
	Tab          key.Binding
	EnterScroll  key.Binding
	ExitScroll   key.Binding
	Quit         key.Binding
	Help         key.Binding
	Up           key.Binding
	Down         key.Binding
	Enter        key.Binding
	Escape       key.Binding
}

// DefaultKeyMap returns the bindings spec.md §6 names.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
		Attach:      key.NewBinding(key.WithKeys("a", "enter"), key.WithHelp("a/enter", "attach")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		EnterScroll: key.NewBinding(key.WithKeys("shift+up", "shift+down"), key.WithHelp("shift+↑/↓", "scroll")),
		ExitScroll:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "exit scroll / cancel")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Up:          key.NewBinding(key.WithKeys("up", "k")),
		Down:        key.NewBinding(key.WithKeys("down", "j")),
		Enter:       key.NewBinding(key.WithKeys("enter")),
		Escape:      key.NewBinding(key.WithKeys("esc")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Attach, k.Delete, k.Refresh, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Attach, k.Delete, k.Refresh},
		{k.Tab, k.EnterScroll, k.ExitScroll},
		{k.Quit, k.Help},
	}
}
