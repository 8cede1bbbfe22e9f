package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextCase    key.Binding
	PrevCase    key.Binding
	NextFailure key.Binding
	PrevFailure key.Binding
	Toggle      key.Binding
	Keep        key.Binding
	Drop        key.Binding
	Undo        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	NextCase: key.NewBinding(
		key.WithKeys("n", "tab"),
		key.WithHelp("n/tab", "next case"),
	),
	PrevCase: key.NewBinding(
		key.WithKeys("N", "shift+tab"),
		key.WithHelp("N/S-tab", "prev case"),
	),
	NextFailure: key.NewBinding(
		key.WithKeys("f", "]"),
		key.WithHelp("f/]", "next failure"),
	),
	PrevFailure: key.NewBinding(
		key.WithKeys("F", "["),
		key.WithHelp("F/[", "prev failure"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "diff/input/expected/actual"),
	),
	Keep: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "keep case"),
	),
	Drop: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "drop case"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "clear decision"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
