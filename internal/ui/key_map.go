package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the player.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	toggle     key.Binding
	next       key.Binding
	prev       key.Binding
	stop       key.Binding
	forward    key.Binding
	back       key.Binding
	volumeUp   key.Binding
	volumeDown key.Binding
	mute       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play/pause")),
		next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		forward:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "seek +5%")),
		back:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "seek -5%")),
		volumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		mute:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.prev, k.mute, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle},
		{k.next, k.prev, k.stop},
		{k.forward, k.back},
		{k.volumeUp, k.volumeDown, k.mute, k.quit},
	}
}
