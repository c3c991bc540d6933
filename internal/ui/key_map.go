package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings shared by the import views.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	start key.Binding
	no    key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		start: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y/enter", "import")),
		no:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.start, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.start, k.no, k.quit},
	}
}
