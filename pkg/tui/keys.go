package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the dashboard TUI.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	FocusToggle key.Binding

	// Ticket filters.
	LevelFilter    key.Binding
	PlatformFilter key.Binding

	// Severity chips, in rank order.
	ToggleCritical key.Binding
	ToggleHigh     key.Binding
	ToggleMedium   key.Binding
	ToggleLow      key.Binding

	// Select makes the vulnerability under the cursor active.
	Select key.Binding

	// Ticket actions apply to the ticket under the ticket cursor.
	Escalate    key.Binding
	Resolve     key.Binding
	Diagnostics key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	FocusToggle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "switch list"),
	),
	LevelFilter: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "level filter"),
	),
	PlatformFilter: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "platform filter"),
	),
	ToggleCritical: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "critical"),
	),
	ToggleHigh: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "high"),
	),
	ToggleMedium: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "medium"),
	),
	ToggleLow: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "low"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select CVE"),
	),
	Escalate: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "escalate"),
	),
	Resolve: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "resolve"),
	),
	Diagnostics: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "run diagnostics"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.FocusToggle, keys.Escalate, keys.Resolve, keys.Diagnostics, keys.Help, keys.Quit}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Up, keys.Down, keys.FocusToggle, keys.Select},
		{keys.LevelFilter, keys.PlatformFilter},
		{keys.ToggleCritical, keys.ToggleHigh, keys.ToggleMedium, keys.ToggleLow},
		{keys.Escalate, keys.Resolve, keys.Diagnostics},
		{keys.Help, keys.Quit},
	}
}
