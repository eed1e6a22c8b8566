package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	search   key.Binding
	play     key.Binding
	enqueue  key.Binding
	save     key.Binding
	load     key.Binding
	toggle   key.Binding
	skip     key.Binding
	previous key.Binding
	drop     key.Binding
	clear    key.Binding
	focus    key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search now")),
		play:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		enqueue:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "queue")),
		save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save to playlist")),
		load:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "play playlist")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		skip:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "previous")),
		drop:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drop next")),
		clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear queue")),
		focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.focus, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.play, k.enqueue},
		{k.save, k.load, k.toggle, k.skip, k.previous},
		{k.drop, k.clear, k.focus, k.back, k.quit},
	}
}
