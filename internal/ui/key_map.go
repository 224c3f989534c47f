package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	enter  key.Binding
	search key.Binding
	back   key.Binding
	share  key.Binding
	open   key.Binding
	copy   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		share:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
		open:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		copy:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.enter, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.search, k.back},
		{k.share, k.open, k.copy, k.quit},
	}
}
