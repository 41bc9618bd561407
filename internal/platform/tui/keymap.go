package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is a controller input derived from a key press.
type Action int

const (
	ActionNone Action = iota
	ActionLeft
	ActionRight
	ActionJump
	ActionButton
)

// KeyMap defines the console key bindings.
type KeyMap struct {
	Left   key.Binding
	Right  key.Binding
	Jump   key.Binding
	Button key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Jump, k.Button, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Jump},
		{k.Button, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "a", "h"),
			key.WithHelp("←/a", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d", "l"),
			key.WithHelp("→/d", "right"),
		),
		Jump: key.NewBinding(
			key.WithKeys("up", "w", "k"),
			key.WithHelp("↑/w", "jump"),
		),
		Button: key.NewBinding(
			key.WithKeys(" ", "space", "enter"),
			key.WithHelp("space", "button"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// MapKey translates a key message to a controller action.
func (k KeyMap) MapKey(msg tea.KeyMsg) Action {
	switch {
	case key.Matches(msg, k.Left):
		return ActionLeft
	case key.Matches(msg, k.Right):
		return ActionRight
	case key.Matches(msg, k.Jump):
		return ActionJump
	case key.Matches(msg, k.Button):
		return ActionButton
	}
	return ActionNone
}
