package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	queue    key.Binding
	back     key.Binding
	moveUp   key.Binding
	moveDown key.Binding
	top      key.Binding
	bottom   key.Binding
	remove   key.Binding
	played   key.Binding
	keyUp    key.Binding
	keyDown  key.Binding
	playing  key.Binding
	ended    key.Binding
	cancel   key.Binding
	skip     key.Binding
	auto     key.Binding
	advance  key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "set current")),
		queue:    key.NewBinding(key.WithKeys("v", "tab"), key.WithHelp("v", "queue")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		moveUp:   key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		moveDown: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		top:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "to top")),
		bottom:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "to bottom")),
		remove:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		played:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle played")),
		keyUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "key up")),
		keyDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "key down")),
		playing:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "playing")),
		ended:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end song")),
		cancel:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel advance")),
		skip:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip next advance")),
		auto:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle auto-advance")),
		advance:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next singer now")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.queue, k.ended, k.cancel, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.queue, k.back},
		{k.moveUp, k.moveDown, k.top, k.bottom, k.remove},
		{k.playing, k.ended, k.cancel, k.skip, k.auto, k.advance},
		{k.played, k.keyUp, k.keyDown, k.help, k.quit},
	}
}
